package usecase

import (
	"context"
	"log/slog"
	"time"

	"HNDigest/internal/ports"
)

// BatchRunner is anything that runs all sources once per trigger.
type BatchRunner interface {
	RunAll(ctx context.Context, now time.Time) error
}

var _ BatchRunner = (*Batch)(nil)

// Scheduler wires the cron driver with the batch use case.
type Scheduler struct {
	driver ports.Scheduler
	batch  BatchRunner
	logger *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, batch BatchRunner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, batch: batch, logger: logger}
}

// Start registers the batch with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.batch == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if err := s.batch.RunAll(ctx, trigger); err != nil {
			s.logger.Error("scheduled run failed", "trigger", trigger, "error", err)
		}
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
