// Package replay serves previously captured posts from a JSON-lines file.
package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"BookmarkSummarizer/internal/domain"
	"BookmarkSummarizer/internal/ports"
)

// SourceKind is the registry name of the replay source.
const SourceKind = "replay"

const maxLineBytes = 1 << 20

// Source reads one domain.RawItem per line. The file is re-read on every call.
type Source struct {
	path string
}

var _ ports.MessageSource = (*Source)(nil)

// NewSource reads items from the JSON-lines file at path.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// History returns items created at or after the given time, oldest first, at most limit.
func (s *Source) History(ctx context.Context, after time.Time, limit int) ([]domain.RawItem, error) {
	if s.path == "" {
		return nil, fmt.Errorf("replay source misconfigured: path is required")
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	defer f.Close()

	var items []domain.RawItem
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var item domain.RawItem
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return nil, fmt.Errorf("decode replay line %d: %w", lineNo, err)
		}
		if item.CreatedAt.Before(after) {
			continue
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read replay file: %w", err)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
