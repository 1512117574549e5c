// Package providers defines the capability contract metadata sources
// implement and the typed registry the matcher fans out over.
package providers

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"helixio/internal/metadata"
)

// Availability reports whether a provider can currently serve requests.
type Availability struct {
	Available bool
	Detail    string
}

// Provider is the capability interface a metadata source must satisfy.
// Implementations are registered into a Registry at startup; any source
// satisfying the interface is pluggable.
type Provider interface {
	Source() metadata.Source
	CheckAvailability(ctx context.Context) Availability
	SearchSeries(ctx context.Context, query metadata.SeriesQuery, opts metadata.SearchOptions) ([]metadata.SeriesMetadata, error)
	SeriesIssues(ctx context.Context, seriesID string, opts metadata.IssueOptions) ([]metadata.IssueMetadata, error)
}

// Registry holds the providers registered for this process keyed by source.
type Registry struct {
	mu        sync.RWMutex
	providers map[metadata.Source]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[metadata.Source]Provider)}
}

// Register adds a provider, replacing any previous entry for its source.
func (r *Registry) Register(p Provider) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Source()] = p
}

// Get returns the provider for a source.
func (r *Registry) Get(source metadata.Source) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[source]
	return p, ok
}

// Sources returns the registered sources in a stable order.
func (r *Registry) Sources() []metadata.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]metadata.Source, 0, len(r.providers))
	for source := range r.providers {
		out = append(out, source)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NewLimiter builds the request pacer injected into each provider client.
// Keeping the limiter an explicit per-client object isolates sources from
// each other and keeps pacing visible in tests.
func NewLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}
