package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"HNDigest/internal/ports"
)

// SourceRun binds a pipeline to the directory its pages are written to.
type SourceRun struct {
	Slug     string
	OutDir   string
	Pipeline *Pipeline
}

// Batch runs every configured source once per trigger.
type Batch struct {
	runs      []SourceRun
	publisher *Publisher
	recorder  ports.RunRecorder
	logger    *slog.Logger
}

// NewBatch builds a batch; publisher and recorder may be nil.
func NewBatch(runs []SourceRun, publisher *Publisher, recorder ports.RunRecorder, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{runs: runs, publisher: publisher, recorder: recorder, logger: logger}
}

// RunAll runs sources in order. A failing source does not stop the others;
// all failures are returned joined.
func (b *Batch) RunAll(ctx context.Context, now time.Time) error {
	var errs []error

	for _, run := range b.runs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		log := b.logger.With("source", run.Slug)
		report, err := run.Pipeline.Run(ctx, now)
		if err != nil {
			log.Error("source run failed", "error", err)
			errs = append(errs, fmt.Errorf("source %s: %w", run.Slug, err))
			continue
		}
		if b.recorder != nil {
			report.Source = run.Slug
			b.recorder.ObserveRun(report)
		}

		copied, err := b.publisher.Publish(run.Slug, run.OutDir)
		if err != nil {
			log.Error("publish failed", "error", err)
			errs = append(errs, fmt.Errorf("publish %s: %w", run.Slug, err))
			continue
		}
		if len(copied) > 0 {
			log.Info("pages published", "count", len(copied))
		}
	}

	if b.recorder != nil {
		if err := b.recorder.Flush(); err != nil {
			b.logger.Warn("metrics flush failed", "error", err)
		}
	}

	return errors.Join(errs...)
}
