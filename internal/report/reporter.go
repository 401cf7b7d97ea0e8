package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"BookmarkSummarizer/internal/domain"
	"BookmarkSummarizer/internal/logging"
	"BookmarkSummarizer/internal/ports"
)

// BatchReporter sends one digest per run listing every written artifact.
type BatchReporter struct {
	notifier    ports.Notifier
	displayName string
	logger      *slog.Logger
}

// NewBatchReporter binds a notification sink and the sender display name.
func NewBatchReporter(notifier ports.Notifier, displayName string, logger *slog.Logger) *BatchReporter {
	return &BatchReporter{notifier: notifier, displayName: displayName, logger: logging.Default(logger)}
}

// Report delivers the digest. It is a no-op for an empty batch and never fails:
// delivery errors are logged because the artifacts are already persisted.
func (r *BatchReporter) Report(ctx context.Context, items []domain.SummaryMetadata) {
	if len(items) == 0 {
		r.logger.Info("no new summaries to report")
		return
	}
	if r.notifier == nil {
		r.logger.Warn("notification sink not configured", "items", len(items))
		return
	}

	if err := r.notifier.PublishDigest(ctx, r.displayName, RenderDigest(items)); err != nil {
		r.logger.Error("send notification", "error", err, "items", len(items))
		return
	}
	r.logger.Info("notification sent", "items", len(items))
}

// RenderDigest lists each item as a markdown link, one per line.
func RenderDigest(items []domain.SummaryMetadata) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "- [%s](%s)\n", item.Title, item.URL)
	}
	return b.String()
}
