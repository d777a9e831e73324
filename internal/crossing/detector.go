package crossing

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"HNDigest/internal/domain"
	"HNDigest/internal/ports"
)

// Config tunes crossing detection.
type Config struct {
	Threshold     int
	MaxCandidates int
	Workers       int
}

// Result is the outcome of one scan over the ranked window.
type Result struct {
	// Candidates are the freshly crossing items, highest score first, capped.
	Candidates []domain.Candidate
	// Dropped crossed this run but did not fit the cap. They are not retried.
	Dropped []domain.Candidate
	Ledger  domain.Ledger
	Scanned int
	Failed  int
}

// Detector turns a score snapshot into threshold crossings.
type Detector struct {
	cfg    Config
	logger *slog.Logger
}

// NewDetector builds a detector; Workers below one means sequential scanning.
func NewDetector(cfg Config, logger *slog.Logger) *Detector {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{cfg: cfg, logger: logger}
}

type observation struct {
	item *domain.Item
	err  error
}

// Detect fetches every id in the window and compares the current scores with
// the ledger. The input ledger and seen set are left untouched.
func (d *Detector) Detect(ctx context.Context, ids []int, fetcher ports.ItemFetcher, ledger domain.Ledger, seen map[string]struct{}) (Result, error) {
	observations := make([]observation, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item, err := fetcher.FetchItem(gctx, id)
			observations[i] = observation{item: item, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	next := ledger.Clone()
	keys := make(map[string]struct{}, len(seen))
	for k := range seen {
		keys[k] = struct{}{}
	}

	res := Result{Ledger: next}
	var crossed []domain.Candidate
	for i, id := range ids {
		obs := observations[i]
		if obs.err != nil {
			res.Failed++
			d.logger.Warn("fetch item failed, skipping", "item_id", id, "error", obs.err)
			continue
		}
		if obs.item == nil || obs.item.Type != domain.TypeStory {
			continue
		}

		res.Scanned++
		score := obs.item.Score
		if score < 0 {
			score = 0
		}
		prev := next[id]
		next[id] = score

		key := obs.item.Key()
		if _, dup := keys[key]; dup {
			continue
		}
		if prev < d.cfg.Threshold && d.cfg.Threshold <= score {
			keys[key] = struct{}{}
			crossed = append(crossed, domain.Candidate{Score: score, Item: *obs.item})
			d.logger.Info("story crossed threshold", "item_id", id, "threshold", d.cfg.Threshold, "score", score, "title", obs.item.Title)
		}
	}

	sort.SliceStable(crossed, func(a, b int) bool {
		return crossed[a].Score > crossed[b].Score
	})
	if d.cfg.MaxCandidates > 0 && len(crossed) > d.cfg.MaxCandidates {
		res.Dropped = crossed[d.cfg.MaxCandidates:]
		crossed = crossed[:d.cfg.MaxCandidates]
		d.logger.Info("candidate batch capped", "kept", len(crossed), "dropped", len(res.Dropped))
	}
	res.Candidates = crossed

	return res, nil
}
