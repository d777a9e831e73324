package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"HNDigest/internal/domain"
	"HNDigest/internal/ports"
)

// StrategySource implements ports.ItemSource by binding a registered scanner
// to one configured source.
type StrategySource struct {
	scanner Scanner
	req     Request
	logger  *slog.Logger
}

var _ ports.ItemSource = (*StrategySource)(nil)

// NewStrategySource resolves the named scanner and binds it to req.
func NewStrategySource(reg *Registry, scannerName string, req Request, log *slog.Logger) (*StrategySource, error) {
	if reg == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}
	sc, err := reg.Resolve(scannerName)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", req.Source, err)
	}
	return &StrategySource{scanner: sc, req: req, logger: log}, nil
}

// ListWindow returns the ranked ids to scan for this source.
func (s *StrategySource) ListWindow(ctx context.Context) ([]int, error) {
	ids, err := s.scanner.Window(ctx, s.req)
	if err != nil {
		return nil, fmt.Errorf("list window for %s: %w", s.req.Source, err)
	}
	s.debug("window listed", "source", s.req.Source, "scanner", s.scanner.Name(), "count", len(ids))
	return ids, nil
}

// FetchItem delegates to the bound scanner.
func (s *StrategySource) FetchItem(ctx context.Context, id int) (*domain.Item, error) {
	return s.scanner.Item(ctx, s.req, id)
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
