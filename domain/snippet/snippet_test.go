package snippet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvecdev/docvec/domain/search"
)

func TestNew(t *testing.T) {
	s := New("acme/widgets", "docs/intro.md", "Connect", "Opens a client.", "c := widgets.New()", "go",
		search.ProviderOpenAI, 1536)

	assert.Zero(t, s.ID(), "the store assigns identifiers")
	assert.Equal(t, "acme/widgets", s.LibraryName())
	assert.Equal(t, "docs/intro.md", s.Path())
	assert.Equal(t, "Connect", s.Title())
	assert.Equal(t, search.ProviderOpenAI, s.Provider())
	assert.Equal(t, 1536, s.EmbeddingDim())
	assert.False(t, s.CreatedAt().IsZero())
}

func TestRecordCopiesEmbedding(t *testing.T) {
	embedding := []float64{1, 2, 3}
	record := NewRecord(New("acme/widgets", "p", "t", "", "c", "go", search.ProviderOpenAI, 3), embedding)

	embedding[0] = 99
	require.Equal(t, []float64{1, 2, 3}, record.Embedding())

	got := record.Embedding()
	got[0] = 99
	assert.Equal(t, []float64{1, 2, 3}, record.Embedding())
}

func TestScored(t *testing.T) {
	s := New("acme/widgets", "p", "t", "", "c", "go", search.ProviderOpenAI, 1536)
	scored := NewScored(s, 0.87)

	assert.Equal(t, "t", scored.Snippet().Title())
	assert.InDelta(t, 0.87, scored.Similarity(), 0.0001)
}
