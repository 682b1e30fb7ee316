// Package snippet provides snippet domain types: one extracted, described
// unit of example code tied to a library and source file.
package snippet

import (
	"time"

	"github.com/docvecdev/docvec/domain/search"
)

// Snippet represents one extracted code snippet. Snippets are immutable
// after creation; re-indexing a library deletes and reinserts them.
type Snippet struct {
	id           int64
	libraryName  string
	path         string
	title        string
	description  string
	content      string
	language     string
	provider     search.Provider
	embeddingDim int
	createdAt    time.Time
}

// New creates a Snippet ready for insertion. The id is assigned by the
// store; embeddingDim records the provider's original vector width before
// normalization.
func New(libraryName, path, title, description, content, language string, provider search.Provider, embeddingDim int) Snippet {
	return Snippet{
		libraryName:  libraryName,
		path:         path,
		title:        title,
		description:  description,
		content:      content,
		language:     language,
		provider:     provider,
		embeddingDim: embeddingDim,
		createdAt:    time.Now(),
	}
}

// Reconstruct rebuilds a Snippet from persistence.
func Reconstruct(
	id int64,
	libraryName, path, title, description, content, language string,
	provider search.Provider,
	embeddingDim int,
	createdAt time.Time,
) Snippet {
	return Snippet{
		id:           id,
		libraryName:  libraryName,
		path:         path,
		title:        title,
		description:  description,
		content:      content,
		language:     language,
		provider:     provider,
		embeddingDim: embeddingDim,
		createdAt:    createdAt,
	}
}

// ID returns the store-assigned identifier (0 before insertion).
func (s Snippet) ID() int64 { return s.id }

// LibraryName returns the owning library's owner/repo name.
func (s Snippet) LibraryName() string { return s.libraryName }

// Path returns the source file path within the repository.
func (s Snippet) Path() string { return s.path }

// Title returns the snippet title.
func (s Snippet) Title() string { return s.title }

// Description returns the snippet description.
func (s Snippet) Description() string { return s.description }

// Content returns the code body.
func (s Snippet) Content() string { return s.content }

// Language returns the source language tag.
func (s Snippet) Language() string { return s.language }

// Provider returns the embedding provider used at indexing time.
func (s Snippet) Provider() search.Provider { return s.provider }

// EmbeddingDim returns the provider's original embedding width.
func (s Snippet) EmbeddingDim() int { return s.embeddingDim }

// CreatedAt returns the creation timestamp.
func (s Snippet) CreatedAt() time.Time { return s.createdAt }

// Record pairs a snippet with its raw (unnormalized) embedding during
// ingestion. The vector store normalizes the embedding on write.
type Record struct {
	snippet   Snippet
	embedding []float64
}

// NewRecord creates a Record.
func NewRecord(s Snippet, embedding []float64) Record {
	vec := make([]float64, len(embedding))
	copy(vec, embedding)
	return Record{snippet: s, embedding: vec}
}

// Snippet returns the snippet metadata.
func (r Record) Snippet() Snippet { return r.snippet }

// Embedding returns the raw embedding (copy).
func (r Record) Embedding() []float64 {
	vec := make([]float64, len(r.embedding))
	copy(vec, r.embedding)
	return vec
}

// Scored pairs a snippet with its query similarity.
type Scored struct {
	snippet    Snippet
	similarity float64
}

// NewScored creates a Scored snippet.
func NewScored(s Snippet, similarity float64) Scored {
	return Scored{snippet: s, similarity: similarity}
}

// Snippet returns the snippet.
func (s Scored) Snippet() Snippet { return s.snippet }

// Similarity returns the cosine similarity against the query.
func (s Scored) Similarity() float64 { return s.similarity }
