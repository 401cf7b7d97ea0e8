package usecase

import (
	"context"
	"time"

	"BookmarkSummarizer/internal/ports"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) RunSummary
}

// Scheduler wires the cron-like driver with the pipeline use case.
type Scheduler struct {
	driver ports.Scheduler
	runner Runner
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, runner Runner) *Scheduler {
	return &Scheduler{driver: driver, runner: runner}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(time.Time) {
		s.runner.Run(ctx)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
