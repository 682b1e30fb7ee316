package snippet

import (
	"context"

	"github.com/docvecdev/docvec/domain/query"
	"github.com/docvecdev/docvec/domain/search"
)

// Stats summarizes a library's snippets.
type Stats struct {
	snippetCount    int64
	countByProvider map[search.Provider]int64
	meanDimension   float64
	vectorCount     int64
}

// NewStats creates a Stats value.
func NewStats(snippetCount int64, countByProvider map[search.Provider]int64, meanDimension float64, vectorCount int64) Stats {
	byProvider := make(map[search.Provider]int64, len(countByProvider))
	for k, v := range countByProvider {
		byProvider[k] = v
	}
	return Stats{
		snippetCount:    snippetCount,
		countByProvider: byProvider,
		meanDimension:   meanDimension,
		vectorCount:     vectorCount,
	}
}

// SnippetCount returns the number of snippet rows.
func (s Stats) SnippetCount() int64 { return s.snippetCount }

// CountByProvider returns snippet counts grouped by provider (copy).
func (s Stats) CountByProvider() map[search.Provider]int64 {
	result := make(map[search.Provider]int64, len(s.countByProvider))
	for k, v := range s.countByProvider {
		result[k] = v
	}
	return result
}

// MeanDimension returns the mean original embedding width.
func (s Stats) MeanDimension() float64 { return s.meanDimension }

// VectorCount returns the current vector-row count for the library.
func (s Stats) VectorCount() int64 { return s.vectorCount }

// HealthState classifies store health.
type HealthState string

// HealthState values.
const (
	HealthHealthy  HealthState = "healthy"
	HealthDegraded HealthState = "degraded"
	HealthError    HealthState = "error"
)

// Health is the result of a store health probe. Probe failures are captured
// into the detail payload; the probe itself never returns an error.
type Health struct {
	state  HealthState
	detail string
}

// NewHealth creates a Health value.
func NewHealth(state HealthState, detail string) Health {
	return Health{state: state, detail: detail}
}

// State returns the health classification.
func (h Health) State() HealthState { return h.state }

// Detail returns a human-readable detail payload.
func (h Health) Detail() string { return h.detail }

// Store defines persistence operations for snippet metadata. Vector
// persistence is mediated through the store so metadata and vectors stay
// paired.
type Store interface {
	// InsertSnippets writes metadata rows in one deferred transaction, then
	// commits vectors outside it. Returns generated IDs in input order.
	InsertSnippets(ctx context.Context, records []Record) ([]int64, error)

	// DeleteLibrarySnippets removes a library's vectors, then its metadata
	// rows. Absence is tolerated.
	DeleteLibrarySnippets(ctx context.Context, libraryName string) error

	// GetAllSnippets lists metadata rows for a library in insertion order.
	GetAllSnippets(ctx context.Context, libraryName string, limit int) ([]Snippet, error)

	// SimilaritySearch ranks a library's snippets against a raw query
	// embedding from the given provider.
	SimilaritySearch(ctx context.Context, libraryName string, queryEmbedding []float64, provider search.Provider, limit int) ([]Scored, error)

	// CrossProviderSearch ranks snippets regardless of the provider they
	// were indexed with; all stored vectors share the canonical space.
	CrossProviderSearch(ctx context.Context, libraryName string, queryEmbedding []float64, provider search.Provider, limit int) ([]Scored, error)

	// LibraryStats summarizes a library's snippets and vectors.
	LibraryStats(ctx context.Context, libraryName string) (Stats, error)

	// HealthCheck probes metadata and vector storage. Never returns an error.
	HealthCheck(ctx context.Context) Health
}

// WithLibraryName filters by the "library_name" column.
func WithLibraryName(name string) query.Option {
	return query.WithCondition("library_name", name)
}

// WithProvider filters by the "provider" column.
func WithProvider(p search.Provider) query.Option {
	return query.WithCondition("provider", p.String())
}
