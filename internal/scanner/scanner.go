package scanner

import (
	"context"
	"fmt"

	"HNDigest/internal/domain"
)

// Request carries the per-source parameters of a scan.
type Request struct {
	Source     string
	WindowSize int
	Options    map[string]string
}

// Scanner captures a single upstream strategy (Hacker News, etc.).
type Scanner interface {
	Name() string
	Window(ctx context.Context, req Request) ([]int, error)
	Item(ctx context.Context, req Request, id int) (*domain.Item, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
