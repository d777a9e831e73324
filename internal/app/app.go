package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"HNDigest/internal/config"
	"HNDigest/internal/crossing"
	"HNDigest/internal/enrich"
	"HNDigest/internal/feed"
	"HNDigest/internal/infrastructure/extract"
	"HNDigest/internal/infrastructure/hackernews"
	"HNDigest/internal/infrastructure/llm"
	"HNDigest/internal/infrastructure/metrics"
	"HNDigest/internal/infrastructure/scheduler"
	"HNDigest/internal/infrastructure/storage"
	"HNDigest/internal/infrastructure/telegram"
	"HNDigest/internal/logging"
	"HNDigest/internal/ports"
	"HNDigest/internal/scanner"
	"HNDigest/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	httpClient *http.Client
	summarizer ports.Summarizer
	notifier   ports.Notifier
	recorder   *metrics.TextfileRecorder
	publisher  *usecase.Publisher
}

var _ usecase.BatchRunner = (*Application)(nil)

// New builds the application. Collaborators that lack credentials are left
// out: without an API key every summary becomes a failure placeholder.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{
		cfg:        cfg,
		logger:     baseLogger,
		httpClient: &http.Client{Timeout: cfg.Enrichment.HTTPTimeout},
		recorder:   metrics.NewTextfileRecorder(cfg.Metrics.Textfile),
		publisher:  usecase.NewPublisher(cfg.Feed.PublicDir),
	}

	summarizer, err := llm.NewSummarizer(llm.Options{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	}, baseLogger.With("component", "llm"))
	if err != nil {
		baseLogger.Warn("summarizer disabled", "error", err)
	} else {
		a.summarizer = summarizer
	}

	if cfg.Notifications.Telegram.Enabled() {
		a.notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	return a
}

// RunAll performs one batch over every configured source.
func (a *Application) RunAll(ctx context.Context, now time.Time) error {
	log, runID := logging.WithRun(a.logger)
	log.Info("run started", "sources", len(a.cfg.Sources))

	batch, closer, err := a.buildBatch(ctx, log)
	defer func() {
		if cerr := closer.Close(); cerr != nil {
			log.Warn("close state stores failed", "error", cerr)
		}
	}()
	if err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}

	if err := batch.RunAll(ctx, now.UTC()); err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}
	log.Info("run finished")
	return nil
}

// Run performs a single batch now.
func (a *Application) Run(ctx context.Context) error {
	return a.RunAll(ctx, time.Now())
}

// Serve runs batches on the configured cron schedule until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	driver, err := scheduler.NewCronScheduler(
		a.cfg.Scheduler.CronExpression,
		a.cfg.Scheduler.Location(),
		a.logger.With("component", "scheduler"),
	)
	if err != nil {
		return err
	}

	sched := usecase.NewScheduler(driver, a, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("serving", "next_run", driver.Next(time.Now()))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for _, cl := range c {
		errs = append(errs, cl.Close())
	}
	return errors.Join(errs...)
}

func (a *Application) buildBatch(ctx context.Context, log *slog.Logger) (*usecase.Batch, io.Closer, error) {
	var open closers

	extractor := extract.New(a.httpClient, a.cfg.Enrichment.ArticleCharLimit, a.cfg.Enrichment.ThreadCharLimit)
	enricher := enrich.New(enrich.Deps{
		Articles:   extractor,
		Threads:    extractor,
		Summarizer: a.summarizer,
	}, a.cfg.Enrichment.Workers, log.With("component", "enrich"))

	runs := make([]usecase.SourceRun, 0, len(a.cfg.Sources))
	for _, src := range a.cfg.Sources {
		srcLog := log.With("source", src.Slug)

		registry := scanner.NewRegistry()
		registry.Register(hackernews.NewClient(a.httpClient, hackernews.Options{
			APIURL:            src.APIURL,
			SiteURL:           src.SiteURL,
			RequestsPerSecond: src.RequestsPerSecond,
		}, srcLog.With("component", "scanner.hackernews")))

		source, err := scanner.NewStrategySource(registry, src.Scanner, scanner.Request{
			Source:     src.Slug,
			WindowSize: src.WindowSize,
			Options:    src.Options,
		}, srcLog.With("component", "source"))
		if err != nil {
			return nil, open, err
		}

		store, closer, err := a.openStore(ctx, src)
		if err != nil {
			return nil, open, fmt.Errorf("source %s: %w", src.Slug, err)
		}
		if closer != nil {
			open = append(open, closer)
		}

		outDir := a.cfg.OutDir(src)
		pipeline := usecase.NewPipeline(usecase.PipelineDeps{
			Name:   src.Name,
			Source: source,
			Store:  store,
			Detector: crossing.NewDetector(crossing.Config{
				Threshold:     src.Threshold,
				MaxCandidates: src.MaxCandidates,
				Workers:       a.cfg.Enrichment.ScanWorkers,
			}, srcLog.With("component", "crossing")),
			Enricher: enricher,
			Feed: feed.NewPaginator(feed.Config{
				Dir:      outDir,
				PageSize: a.cfg.Feed.PageSize,
				Title:    src.Title(),
				SiteURL:  src.SiteURL,
				IDPrefix: a.cfg.Feed.IDPrefix,
			}, srcLog.With("component", "feed")),
			Notifier:     a.notifier,
			Logger:       srcLog.With("component", "pipeline"),
			HistoryLimit: a.cfg.History.MaxEntries,
			BaseURL:      a.cfg.BaseURL(src),
		})

		runs = append(runs, usecase.SourceRun{Slug: src.Slug, OutDir: outDir, Pipeline: pipeline})
	}

	var recorder ports.RunRecorder
	if a.recorder != nil {
		recorder = a.recorder
	}
	return usecase.NewBatch(runs, a.publisher, recorder, log.With("component", "batch")), open, nil
}

func (a *Application) openStore(ctx context.Context, src config.SourceConfig) (ports.StateStore, io.Closer, error) {
	path := a.cfg.StatePath(src)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create state dir: %w", err)
	}

	if a.cfg.State.Driver == config.DriverSQLite {
		store, err := storage.OpenSQLiteStore(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
	return storage.NewJSONStore(path), nil, nil
}
