// Package scraper holds the adapter contract, the transport abstraction
// adapters fetch through, and the Runner that drives one harvest run.
package scraper

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"jobmate/harvester-service/internal/model"
)

// DefaultAdapter is the kind used when a RunConfig names none.
const DefaultAdapter = "workday"

// Adapter is the site-specific half of a run. Implementations only do
// network I/O through their Fetcher; persistence, progress and logging are
// the Runner's concern.
type Adapter interface {
	// Enumerate walks the site's pagination until exhaustion and returns
	// the de-duplicated postings in site order.
	Enumerate(ctx context.Context) ([]model.Posting, error)
	// FetchDetails returns whatever fields the site exposes for one posting.
	FetchDetails(ctx context.Context, p model.Posting) (*model.RawJob, error)
}

// Namer is implemented by adapters that derive a platform name from their
// source URL when the RunConfig carries none.
type Namer interface {
	Name() string
}

// Constructor builds an adapter for one run. It must not perform I/O.
type Constructor func(cfg model.RunConfig, f Fetcher) (Adapter, error)

// Registry maps adapter kinds to constructors.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds or replaces the constructor for kind.
func (r *Registry) Register(kind string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[strings.ToLower(kind)] = c
}

// Kinds returns the registered adapter kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.ctors))
	for k := range r.ctors {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build constructs the adapter named by cfg.Adapter.
func (r *Registry) Build(cfg model.RunConfig, f Fetcher) (Adapter, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Adapter))
	if kind == "" {
		kind = DefaultAdapter
	}
	r.mu.RLock()
	ctor, ok := r.ctors[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, kind)
	}
	a, err := ctor(cfg, f)
	if err != nil {
		return nil, fmt.Errorf("build %s adapter: %w", kind, err)
	}
	return a, nil
}

// Platform resolves the progress-row key for cfg: its Name, or the name the
// adapter derives from the source URL.
func (r *Registry) Platform(cfg model.RunConfig) (string, error) {
	if name := strings.TrimSpace(cfg.Name); name != "" {
		return name, nil
	}
	a, err := r.Build(cfg, nil)
	if err != nil {
		return "", err
	}
	if n, ok := a.(Namer); ok && n.Name() != "" {
		return n.Name(), nil
	}
	return "", fmt.Errorf("run config for %q has no name", cfg.SourceURL)
}

// UniquePostings drops repeated URLs, keeping the first occurrence.
func UniquePostings(in []model.Posting) []model.Posting {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.Posting, 0, len(in))
	for _, p := range in {
		if _, dup := seen[p.URL]; dup {
			continue
		}
		seen[p.URL] = struct{}{}
		out = append(out, p)
	}
	return out
}
