package report

import (
	"context"
	"log/slog"

	"BookmarkSummarizer/internal/logging"
	"BookmarkSummarizer/internal/ports"
)

// LogSink prints digests to the logger instead of delivering them. Used for dry runs.
type LogSink struct {
	logger *slog.Logger
}

var _ ports.Notifier = (*LogSink)(nil)

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logging.Default(logger)}
}

func (s *LogSink) PublishDigest(_ context.Context, displayName, digest string) error {
	s.logger.Info("digest", "display_name", displayName, "body", digest)
	return nil
}
