package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"HNDigest/internal/crossing"
	"HNDigest/internal/domain"
	"HNDigest/internal/enrich"
	"HNDigest/internal/history"
	"HNDigest/internal/ports"
)

// DefaultHistoryLimit is the retention cap for published entries.
const DefaultHistoryLimit = 200

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Name     string
	Source   ports.ItemSource
	Store    ports.StateStore
	Detector *crossing.Detector
	Enricher *enrich.Enricher
	Feed     ports.FeedWriter
	Notifier ports.Notifier
	Logger   *slog.Logger

	HistoryLimit int
	BaseURL      string
}

// Pipeline runs one source from state load to feed output.
type Pipeline struct {
	name     string
	source   ports.ItemSource
	store    ports.StateStore
	detector *crossing.Detector
	enricher *enrich.Enricher
	feed     ports.FeedWriter
	notifier ports.Notifier
	logger   *slog.Logger

	historyLimit int
	baseURL      string
}

// Outcome is what one pass over the window produced before anything is written.
type Outcome struct {
	State     domain.State
	Published []domain.DigestEntry
	Detection crossing.Result
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := deps.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	detector := deps.Detector
	if detector == nil {
		detector = crossing.NewDetector(crossing.Config{}, logger)
	}
	enricher := deps.Enricher
	if enricher == nil {
		enricher = enrich.New(enrich.Deps{}, 1, logger)
	}
	return &Pipeline{
		name:         deps.Name,
		source:       deps.Source,
		store:        deps.Store,
		detector:     detector,
		enricher:     enricher,
		feed:         deps.Feed,
		notifier:     deps.Notifier,
		logger:       logger,
		historyLimit: limit,
		baseURL:      deps.BaseURL,
	}
}

// Name identifies the source the pipeline serves.
func (p *Pipeline) Name() string {
	return p.name
}

// Advance computes the next state from prev and the ranked window ids. prev is not modified.
func (p *Pipeline) Advance(ctx context.Context, prev domain.State, ids []int, now time.Time) (Outcome, error) {
	result, err := p.detector.Detect(ctx, ids, p.source, prev.Ledger, history.Keys(prev.History))
	if err != nil {
		return Outcome{}, fmt.Errorf("detect crossings: %w", err)
	}

	for _, c := range result.Dropped {
		p.logger.Info("crossing dropped by batch cap", "id", c.Item.ID, "score", c.Score)
	}

	fresh := p.enricher.Enrich(ctx, result.Candidates, now)
	merged := history.Merge(prev.History, fresh, p.historyLimit)

	return Outcome{
		State:     domain.State{Ledger: result.Ledger, History: merged},
		Published: fresh,
		Detection: result,
	}, nil
}

// Run executes one full cycle: load, detect, enrich, merge, save, render.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (report domain.RunReport, err error) {
	report = domain.RunReport{Source: p.name, StartedAt: now}
	started := time.Now()
	defer func() { report.Duration = time.Since(started) }()

	if p.source == nil || p.store == nil {
		return report, fmt.Errorf("pipeline %s misconfigured", p.name)
	}

	prev, err := p.store.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrCorruptState):
		p.logger.Warn("state is corrupt, starting from empty state", "error", err)
		prev = domain.EmptyState()
	case err != nil:
		return report, fmt.Errorf("load state: %w", err)
	}

	ids, err := p.source.ListWindow(ctx)
	if err != nil {
		return report, fmt.Errorf("list window: %w", err)
	}

	out, err := p.Advance(ctx, prev, ids, now)
	if err != nil {
		return report, err
	}
	report.Scanned = out.Detection.Scanned
	report.Failed = out.Detection.Failed
	report.Candidates = len(out.Detection.Candidates)
	report.Dropped = len(out.Detection.Dropped)
	report.Published = out.Published
	report.HistorySize = len(out.State.History)

	if err := p.store.Save(ctx, out.State); err != nil {
		return report, fmt.Errorf("save state: %w", err)
	}

	if p.feed != nil {
		files, err := p.feed.Write(out.State.History, now, p.baseURL)
		if err != nil {
			return report, fmt.Errorf("write feed: %w", err)
		}
		report.Files = files
	}

	if p.notifier != nil && len(out.Published) > 0 {
		if err := p.notifier.PublishEntries(ctx, p.name, out.Published); err != nil {
			p.logger.Warn("notification failed", "error", err)
		}
	}

	p.logger.Info("run complete",
		"scanned", report.Scanned,
		"failed", report.Failed,
		"candidates", report.Candidates,
		"dropped", report.Dropped,
		"history", report.HistorySize,
		"pages", len(report.Files),
	)
	return report, nil
}
