package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"

	"BookmarkSummarizer/internal/logging"
	"BookmarkSummarizer/internal/ports"
)

// CronScheduler triggers a job on a standard five-field cron expression.
// Overlapping triggers are skipped while a run is still in progress.
type CronScheduler struct {
	spec     string
	location *time.Location
	logger   *slog.Logger

	mu   sync.Mutex
	cron *rcron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string, loc *time.Location, logger *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{spec: spec, location: loc, logger: logging.Default(logger)}
}

// Start registers job and begins ticking. Calling Start twice is a no-op.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	cronLogger := rcron.PrintfLogger(slog.NewLogLogger(c.logger.Handler(), slog.LevelInfo))
	cr := rcron.New(
		rcron.WithLocation(c.location),
		rcron.WithChain(rcron.Recover(cronLogger), rcron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := cr.AddFunc(c.spec, func() {
		if ctx.Err() != nil {
			return
		}
		job(time.Now().In(c.location))
	}); err != nil {
		return fmt.Errorf("parse cron expression %q: %w", c.spec, err)
	}

	cr.Start()
	c.cron = cr
	c.logger.Info("scheduler started", "cron", c.spec, "timezone", c.location.String())
	return nil
}

// Stop halts scheduling and waits for a running job until ctx expires.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	cr := c.cron
	c.cron = nil
	c.mu.Unlock()
	if cr == nil {
		return nil
	}

	done := cr.Stop()
	select {
	case <-done.Done():
		c.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running job: %w", ctx.Err())
	}
}
