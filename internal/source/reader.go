// Package source selects the batch of posts one pipeline run works on.
package source

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"BookmarkSummarizer/internal/domain"
	"BookmarkSummarizer/internal/logging"
	"BookmarkSummarizer/internal/ports"
)

// Reader applies the fetch window, the item cap and the bot filter on top of a MessageSource.
type Reader struct {
	source      ports.MessageSource
	allowedBots map[string]struct{}
	now         func() time.Time
	logger      *slog.Logger
}

// ReaderOption customises a Reader.
type ReaderOption func(*Reader)

// WithClock overrides the wall clock used as the window's upper bound.
func WithClock(now func() time.Time) ReaderOption {
	return func(r *Reader) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReader wires a source with the names of automated accounts whose posts are kept.
func NewReader(src ports.MessageSource, allowedBots []string, logger *slog.Logger, opts ...ReaderOption) *Reader {
	allowed := make(map[string]struct{}, len(allowedBots))
	for _, name := range allowedBots {
		allowed[name] = struct{}{}
	}
	r := &Reader{
		source:      src,
		allowedBots: allowed,
		now:         time.Now,
		logger:      logging.Default(logger),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch returns at most maxCount items created in [windowStart, now], oldest first.
// Transport failures yield an empty batch.
func (r *Reader) Fetch(ctx context.Context, windowStart time.Time, maxCount int) []domain.RawItem {
	if r.source == nil || maxCount <= 0 {
		return nil
	}

	now := r.now()
	r.logger.Info("fetching recent items", "after", windowStart.Format(time.RFC3339), "limit", maxCount)

	fetched, err := r.source.History(ctx, windowStart, maxCount)
	if err != nil {
		r.logger.Error("fetch failed, continuing with empty batch", "error", err)
		return nil
	}

	items := make([]domain.RawItem, 0, len(fetched))
	for _, item := range fetched {
		if item.CreatedAt.Before(windowStart) || item.CreatedAt.After(now) {
			r.logger.Debug("item outside window", "id", item.ID, "created_at", item.CreatedAt)
			continue
		}
		if item.AuthorIsBot && !r.botAllowed(item.Author) {
			r.logger.Debug("item from automated account skipped", "id", item.ID, "author", item.Author)
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > maxCount {
		items = items[:maxCount]
	}

	r.logger.Info("items fetched", "scanned", len(fetched), "kept", len(items))
	return items
}

func (r *Reader) botAllowed(author string) bool {
	_, ok := r.allowedBots[author]
	return ok
}
