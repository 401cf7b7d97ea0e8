package archive

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BookmarkSummarizer/internal/domain"
	"BookmarkSummarizer/internal/infrastructure/storage"
)

func TestPartitionNamesZeroPadded(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, time.March, 7, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, [3]string{"2025", "03", "07"}, PartitionNames(ts, time.UTC))

	tokyo := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, [3]string{"2025", "03", "08"}, PartitionNames(ts, tokyo))
}

func TestResolveDayContainerCreatesMissingLevels(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	resolver := NewContainerResolver(store, "root", time.UTC, NewContainerCache(), nil)

	id, err := resolver.ResolveDayContainer(context.Background(), time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, []string{"2025", "2025/09", "2025/09/01"}, store.ContainerPaths())
}

func TestResolveDayContainerMemoizesWithinRun(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	cache := NewContainerCache()
	resolver := NewContainerResolver(store, "root", time.UTC, cache, nil)
	ctx := context.Background()

	day := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	first, err := resolver.ResolveDayContainer(ctx, day)
	require.NoError(t, err)
	for i := 1; i < 5; i++ {
		id, err := resolver.ResolveDayContainer(ctx, day.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, first, id)
	}

	assert.Equal(t, 3, store.Calls(storage.OpFindContainer))
	assert.Equal(t, 3, store.Calls(storage.OpCreateContainer))
	assert.Equal(t, 3, cache.Len())

	_, err = resolver.ResolveDayContainer(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 4, store.Calls(storage.OpFindContainer), "only the new day level is looked up")
}

func TestResolveDayContainerReusesExisting(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	ctx := context.Background()
	day := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

	want, err := NewContainerResolver(store, "root", time.UTC, nil, nil).ResolveDayContainer(ctx, day)
	require.NoError(t, err)
	store.ResetCalls()

	got, err := NewContainerResolver(store, "root", time.UTC, nil, nil).ResolveDayContainer(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Zero(t, store.Calls(storage.OpCreateContainer))
}

func TestResolveDayContainerFailsAtLevel(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	store.FailWith(func(op, subject string) error {
		if op == storage.OpCreateContainer && subject == "09" {
			return errors.New("permission denied")
		}
		return nil
	})
	cache := NewContainerCache()
	resolver := NewContainerResolver(store, "root", time.UTC, cache, nil)

	_, err := resolver.ResolveDayContainer(context.Background(), time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `create container "09"`)
	assert.Equal(t, 1, cache.Len(), "failed levels are not cached")
}

func TestArtifactName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content domain.GeneratedContent
		want    string
	}{
		{"header stripped", domain.GeneratedContent{Markdown: "# Go 1.25 released\nbody"}, "Go 1.25 released.md"},
		{"leading blank lines", domain.GeneratedContent{Markdown: "\n\n## Title\n"}, "Title.md"},
		{"reserved characters", domain.GeneratedContent{Markdown: "# a/b: c?"}, "a b c.md"},
		{"no title", domain.GeneratedContent{Markdown: "#  \n"}, UntitledName},
		{"sentinel", domain.GeneratedContent{Markdown: "# Whatever", Failed: true}, ErrorName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ArtifactName(tc.content))
		})
	}
}

func TestArtifactNameTruncatesLongTitles(t *testing.T) {
	t.Parallel()

	name := ArtifactName(domain.GeneratedContent{Markdown: "# " + strings.Repeat("語", 250)})
	assert.Equal(t, strings.Repeat("語", maxTitleRunes)+".md", name)
}

func TestDuplicateGuard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	writer := NewArtifactWriter(store, "discord_message_id", nil)
	guard := NewDuplicateGuard(store, "discord_message_id", nil)

	exists, err := guard.Exists(ctx, "day", "42")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = writer.CreateEmpty(ctx, "day", "Title.md", "42")
	require.NoError(t, err)

	exists, err = guard.Exists(ctx, "day", "42")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDuplicateGuardQueryError(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	store.FailWith(func(op, _ string) error {
		if op == storage.OpHasArtifact {
			return errors.New("rate limited")
		}
		return nil
	})

	_, err := NewDuplicateGuard(store, "k", nil).Exists(context.Background(), "day", "42")
	require.Error(t, err)
}

func TestArtifactWriterTwoPhases(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	writer := NewArtifactWriter(store, "discord_message_id", nil)

	artifact, err := writer.CreateEmpty(ctx, "day", "Title.md", "42")
	require.NoError(t, err)
	assert.Equal(t, "42", artifact.SourceItemID)
	assert.Equal(t, MarkdownMimeType, artifact.MimeType)

	body, _ := store.Content(artifact.ID)
	assert.Empty(t, body)

	written, err := writer.WriteContent(ctx, artifact, "# Title\nBody")
	require.NoError(t, err)
	assert.Equal(t, "42", written.SourceItemID)
	assert.NotEmpty(t, written.LocationURL)

	body, _ = store.Content(artifact.ID)
	assert.Equal(t, "# Title\nBody", body)
}

func TestArtifactWriterWriteFailureLeavesEmptyArtifact(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	store.FailWith(func(op, _ string) error {
		if op == storage.OpWriteContent {
			return errors.New("upload interrupted")
		}
		return nil
	})
	writer := NewArtifactWriter(store, "discord_message_id", nil)

	artifact, err := writer.CreateEmpty(ctx, "day", "Title.md", "42")
	require.NoError(t, err)

	_, err = writer.WriteContent(ctx, artifact, "# Title")
	require.Error(t, err)

	require.Len(t, store.Artifacts(), 1)
	body, _ := store.Content(artifact.ID)
	assert.Empty(t, body)
}
