package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docvecdev/docvec/domain/library"
	"github.com/docvecdev/docvec/domain/search"
	"github.com/docvecdev/docvec/domain/snippet"
	"github.com/docvecdev/docvec/internal/config"
)

// SearchOption configures a retrieval request.
type SearchOption func(*searchConfig)

type searchConfig struct {
	limit         int
	crossProvider bool
}

func newSearchConfig() *searchConfig {
	return &searchConfig{limit: config.DefaultSearchLimit}
}

// WithLimit sets the maximum number of results.
func WithLimit(n int) SearchOption {
	return func(c *searchConfig) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithCrossProvider includes snippets indexed by any embedding provider,
// not just the one the query was embedded with.
func WithCrossProvider(enabled bool) SearchOption {
	return func(c *searchConfig) { c.crossProvider = enabled }
}

// Retrieval answers documentation queries against indexed libraries by
// embedding the query and ranking stored snippets by cosine similarity.
type Retrieval struct {
	embedder  search.Embedder
	snippets  snippet.Store
	libraries library.Store
	logger    *slog.Logger
}

// NewRetrieval creates a Retrieval service.
func NewRetrieval(
	embedder search.Embedder,
	snippets snippet.Store,
	libraries library.Store,
	logger *slog.Logger,
) *Retrieval {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrieval{
		embedder:  embedder,
		snippets:  snippets,
		libraries: libraries,
		logger:    logger,
	}
}

// Query embeds the query text and returns the library's most similar
// snippets, best first.
func (r *Retrieval) Query(ctx context.Context, libraryName, query string, opts ...SearchOption) ([]snippet.Scored, error) {
	if r.embedder == nil {
		return nil, ErrNoEmbedder
	}

	cfg := newSearchConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	exists, err := r.libraries.Exists(ctx, libraryName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up library %s: %w", libraryName, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrLibraryNotFound, libraryName)
	}

	embedding, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	queryVector := embedding.Vectors()[0]

	if cfg.crossProvider {
		return r.snippets.CrossProviderSearch(ctx, libraryName, queryVector, r.embedder.Provider(), cfg.limit)
	}
	return r.snippets.SimilaritySearch(ctx, libraryName, queryVector, r.embedder.Provider(), cfg.limit)
}

// Browse lists a library's snippets in insertion order, without ranking.
// A limit of 0 returns everything.
func (r *Retrieval) Browse(ctx context.Context, libraryName string, limit int) ([]snippet.Snippet, error) {
	exists, err := r.libraries.Exists(ctx, libraryName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up library %s: %w", libraryName, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrLibraryNotFound, libraryName)
	}

	return r.snippets.GetAllSnippets(ctx, libraryName, limit)
}
