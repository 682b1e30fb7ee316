package search

import (
	"context"
	"errors"
)

// ErrEmptyInput indicates blank text was passed for embedding. Callers must
// fail fast on this before any network call is made.
var ErrEmptyInput = errors.New("cannot embed empty input")

// ErrMissingAPIKey indicates the credential for the chosen provider is
// absent. Surfaced immediately, never retried.
var ErrMissingAPIKey = errors.New("missing API key")

// Embedding holds the vectors produced for a batch of texts, along with the
// provider and model that produced them.
type Embedding struct {
	vectors  [][]float64
	provider Provider
	model    string
}

// NewEmbedding creates an Embedding.
func NewEmbedding(vectors [][]float64, provider Provider, model string) Embedding {
	copied := make([][]float64, len(vectors))
	for i, v := range vectors {
		copied[i] = make([]float64, len(v))
		copy(copied[i], v)
	}
	return Embedding{vectors: copied, provider: provider, model: model}
}

// Vectors returns the embedding vectors in input order.
func (e Embedding) Vectors() [][]float64 {
	result := make([][]float64, len(e.vectors))
	for i, v := range e.vectors {
		result[i] = make([]float64, len(v))
		copy(result[i], v)
	}
	return result
}

// Provider returns the acting provider.
func (e Embedding) Provider() Provider { return e.provider }

// Model returns the model identifier.
func (e Embedding) Model() string { return e.model }

// Dimension returns the width of the produced vectors (0 if empty).
func (e Embedding) Dimension() int {
	if len(e.vectors) == 0 {
		return 0
	}
	return len(e.vectors[0])
}

// Embedder generates embedding vectors for texts.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	// Blank inputs fail with ErrEmptyInput before any external call.
	Embed(ctx context.Context, texts []string) (Embedding, error)

	// Provider returns the provider this embedder acts as.
	Provider() Provider

	// Model returns the model identifier in use.
	Model() string
}
