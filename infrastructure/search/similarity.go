package search

import (
	"fmt"
	"math"
	"sort"

	"github.com/docvecdev/docvec/domain/search"
)

// DimensionMismatchError indicates two vectors of different widths were
// compared.
type DimensionMismatchError struct {
	LenA int
	LenB int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: %d vs %d", e.LenA, e.LenB)
}

// CosineSimilarity computes the cosine similarity between two vectors of
// equal width. Returns a value between -1 (opposite) and 1 (identical), and
// 0 if either vector has zero magnitude (never divides by zero).
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, &DimensionMismatchError{LenA: len(a), LenB: len(b)}
	}

	var dotProduct, magA, magB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0, nil
	}

	return dotProduct / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}

// StoredVector holds a canonical embedding with its snippet ID.
type StoredVector struct {
	snippetID int64
	embedding []float64
}

// NewStoredVector creates a StoredVector (copying the embedding).
func NewStoredVector(snippetID int64, embedding []float64) StoredVector {
	vec := make([]float64, len(embedding))
	copy(vec, embedding)
	return StoredVector{snippetID: snippetID, embedding: vec}
}

// SnippetID returns the snippet identifier.
func (v StoredVector) SnippetID() int64 { return v.snippetID }

// Embedding returns the embedding vector (copy).
func (v StoredVector) Embedding() []float64 {
	result := make([]float64, len(v.embedding))
	copy(result, v.embedding)
	return result
}

// RankByDistance scores every candidate against the query, converts
// similarity to distance (1 - similarity), and returns the k closest
// matches ordered by non-decreasing distance. Equal distances keep the
// candidates' iteration order (stable sort). Candidates whose width does
// not match the query are skipped.
func RankByDistance(query []float64, vectors []StoredVector, k int) []search.Match {
	if len(vectors) == 0 || k <= 0 {
		return []search.Match{}
	}

	matches := make([]search.Match, 0, len(vectors))
	for _, v := range vectors {
		similarity, err := CosineSimilarity(query, v.embedding)
		if err != nil {
			continue
		}
		matches = append(matches, search.NewMatch(v.snippetID, 1-similarity))
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance() < matches[j].Distance()
	})

	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k]
}
