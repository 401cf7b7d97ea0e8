package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BookmarkSummarizer/internal/source"
)

func writeReplay(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posts.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSourceHistory(t *testing.T) {
	t.Parallel()

	path := writeReplay(t, `# captured 2025-09-01
{"id":"3","text":"third","author":"post","createdAt":"2025-09-01T10:03:00Z"}
{"id":"1","text":"first","author":"post","createdAt":"2025-09-01T10:01:00Z","embeds":[{"description":"d","imageUrl":"https://cdn/i.png"}]}

{"id":"0","text":"too old","author":"post","createdAt":"2025-09-01T09:00:00Z"}
{"id":"2","text":"second","author":"someone","authorIsBot":true,"createdAt":"2025-09-01T10:02:00Z"}
`)

	after := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	items, err := NewSource(path).History(context.Background(), after, 10)
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "2", items[1].ID)
	assert.Equal(t, "3", items[2].ID)
	assert.True(t, items[1].AuthorIsBot)
	assert.Equal(t, "https://cdn/i.png", items[0].Embeds[0].ImageURL)

	items, err = NewSource(path).History(context.Background(), after, 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSourceHistoryIncludesWindowStart(t *testing.T) {
	t.Parallel()

	path := writeReplay(t, `{"id":"later","text":"b","author":"post","createdAt":"2025-09-01T10:01:00Z"}
{"id":"edge","text":"a","author":"post","createdAt":"2025-09-01T10:00:00Z"}
{"id":"before","text":"c","author":"post","createdAt":"2025-09-01T09:59:59Z"}
`)

	start := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	items, err := NewSource(path).History(context.Background(), start, 10)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "edge", items[0].ID)
	assert.Equal(t, "later", items[1].ID)
}

func TestReaderKeepsItemAtWindowStart(t *testing.T) {
	t.Parallel()

	path := writeReplay(t, `{"id":"edge","text":"a","author":"post","createdAt":"2025-09-01T10:00:00Z"}
{"id":"later","text":"b","author":"post","createdAt":"2025-09-01T10:01:00Z"}
`)

	start := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	reader := source.NewReader(NewSource(path), []string{"post"}, nil,
		source.WithClock(func() time.Time { return start.Add(15 * time.Minute) }))

	items := reader.Fetch(context.Background(), start, 10)
	require.Len(t, items, 2)
	assert.Equal(t, "edge", items[0].ID)
}

func TestSourceHistoryErrors(t *testing.T) {
	t.Parallel()

	_, err := NewSource("").History(context.Background(), time.Time{}, 10)
	require.Error(t, err)

	_, err = NewSource(filepath.Join(t.TempDir(), "missing.jsonl")).History(context.Background(), time.Time{}, 10)
	require.Error(t, err)

	path := writeReplay(t, "{\"id\":\"1\"}\nnot json\n")
	_, err = NewSource(path).History(context.Background(), time.Time{}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
