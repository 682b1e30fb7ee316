// Package search implements embedding normalization, cosine similarity, and
// the fallback vector store.
package search

import (
	"fmt"

	"github.com/docvecdev/docvec/domain/search"
)

// CanonicalDimension is the fixed width all stored vectors are normalized
// to, enabling cross-provider comparison.
const CanonicalDimension = 3072

// providerWidths is the closed strategy table: the input widths each
// provider is known to emit. Widths below the canonical dimension are
// zero-padded, the canonical width passes through unchanged, and anything
// wider than canonical is prefix-truncated regardless of the table. Adding
// a provider is a data addition here, not a new conditional branch.
var providerWidths = map[search.Provider]map[int]struct{}{
	search.ProviderOpenAI: {
		1536:               {},
		CanonicalDimension: {},
	},
	search.ProviderGemini: {
		768:                {},
		CanonicalDimension: {},
	},
}

// UnsupportedDimensionError indicates a provider/width combination outside
// the strategy table.
type UnsupportedDimensionError struct {
	Provider search.Provider
	Width    int
}

func (e *UnsupportedDimensionError) Error() string {
	return fmt.Sprintf("unsupported embedding dimension %d for provider %s", e.Width, e.Provider)
}

// Normalize converts a provider-specific embedding into the canonical
// 3072-wide space. It is pure and deterministic: the same input vector and
// provider always yield the same output.
//
// Width rules:
//   - exactly 3072: returned unchanged (as a copy)
//   - wider than 3072: prefix-truncated (Matryoshka-style, lossy)
//   - a known narrower width: zero-padded on the right
//   - anything else: UnsupportedDimensionError naming provider and width
func Normalize(vector []float64, provider search.Provider) ([]float64, error) {
	width := len(vector)

	// Widths beyond the canonical space always truncate; the table only
	// gates widths that would otherwise need padding.
	if width > CanonicalDimension {
		out := make([]float64, CanonicalDimension)
		copy(out, vector[:CanonicalDimension])
		return out, nil
	}

	widths, ok := providerWidths[provider]
	if !ok {
		return nil, &UnsupportedDimensionError{Provider: provider, Width: width}
	}
	if _, ok := widths[width]; !ok {
		return nil, &UnsupportedDimensionError{Provider: provider, Width: width}
	}

	// Copy into a zeroed canonical buffer: identity for full-width input,
	// right zero-padding for narrower accepted widths.
	out := make([]float64, CanonicalDimension)
	copy(out, vector)
	return out, nil
}
