package scanner

import (
	"context"
	"fmt"

	"TopicScanner/internal/domain"
)

// Scanner captures a single source adapter (Hacker News, CoinGecko, etc.).
//
// Scan returns every candidate produced before a failure together with the
// error, so callers can persist partial results.
type Scanner interface {
	Name() domain.Source
	Scan(ctx context.Context) ([]domain.ScoredTopic, error)
}

// Registry keeps a mapping from source names to their adapters.
type Registry struct {
	scanners map[domain.Source]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[domain.Source]Scanner{}}
}

// Register adds or replaces an adapter.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[domain.Source]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns an adapter by source or an error if it is absent.
func (r *Registry) Resolve(source domain.Source) (Scanner, error) {
	if scanner, ok := r.scanners[source]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", source)
}
