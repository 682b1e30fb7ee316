package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvecdev/docvec/domain/library"
	domainsearch "github.com/docvecdev/docvec/domain/search"
	"github.com/docvecdev/docvec/domain/snippet"
	"github.com/docvecdev/docvec/infrastructure/persistence"
	"github.com/docvecdev/docvec/infrastructure/search"
	"github.com/docvecdev/docvec/internal/testdb"
)

type retrievalFixture struct {
	retrieval *Retrieval
	embedder  *fakeEmbedder
	snippets  *persistence.SnippetStore
	libraries persistence.LibraryStore
}

func newRetrievalFixture(t *testing.T) *retrievalFixture {
	t.Helper()
	db := testdb.New(t)
	vectors := search.NewVectorStore(db, slog.Default())
	snippets := persistence.NewSnippetStore(db, vectors, slog.Default())
	libraries := persistence.NewLibraryStore(db)
	embedder := &fakeEmbedder{failTexts: map[string]bool{}}

	return &retrievalFixture{
		retrieval: NewRetrieval(embedder, snippets, libraries, slog.Default()),
		embedder:  embedder,
		snippets:  snippets,
		libraries: libraries,
	}
}

// seedLibrary registers a library and indexes snippets whose embeddings
// match what the fake embedder produces for their titles.
func (fx *retrievalFixture) seedLibrary(t *testing.T, name string, titles ...string) {
	t.Helper()
	ctx := context.Background()

	lib, err := library.New(name, "seeded", "main", "sha", nil)
	require.NoError(t, err)
	require.NoError(t, fx.libraries.Replace(ctx, lib.WithCounts(1, len(titles))))

	records := make([]snippet.Record, len(titles))
	for i, title := range titles {
		meta := snippet.New(name, "docs/seed.md", title, "about "+title, "code", "go", domainsearch.ProviderOpenAI, 1536)
		records[i] = snippet.NewRecord(meta, textVector(title))
	}
	_, err = fx.snippets.InsertSnippets(ctx, records)
	require.NoError(t, err)
}

func TestRetrieval_QueryReturnsBestMatchFirst(t *testing.T) {
	fx := newRetrievalFixture(t)
	fx.seedLibrary(t, "acme/widgets", "connect", "shutdown", "retry")

	// The fake embeds equal texts identically, so querying with an indexed
	// title must rank that snippet first with similarity 1.
	results, err := fx.retrieval.Query(context.Background(), "acme/widgets", "shutdown")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "shutdown", results[0].Snippet().Title())
	assert.InDelta(t, 1.0, results[0].Similarity(), 0.001)
}

func TestRetrieval_QueryHonorsLimit(t *testing.T) {
	fx := newRetrievalFixture(t)
	fx.seedLibrary(t, "acme/widgets", "a", "b", "c", "d", "e")

	results, err := fx.retrieval.Query(context.Background(), "acme/widgets", "a", WithLimit(2))
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRetrieval_QueryUnknownLibrary(t *testing.T) {
	fx := newRetrievalFixture(t)

	_, err := fx.retrieval.Query(context.Background(), "nobody/nothing", "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLibraryNotFound)
}

func TestRetrieval_QueryWithoutEmbedder(t *testing.T) {
	fx := newRetrievalFixture(t)
	retrieval := NewRetrieval(nil, fx.snippets, fx.libraries, slog.Default())

	_, err := retrieval.Query(context.Background(), "acme/widgets", "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEmbedder)
}

func TestRetrieval_QueryCrossProvider(t *testing.T) {
	fx := newRetrievalFixture(t)
	ctx := context.Background()

	lib, err := library.New("acme/widgets", "seeded", "main", "sha", nil)
	require.NoError(t, err)
	require.NoError(t, fx.libraries.Replace(ctx, lib))

	// One snippet per provider, both embedded along the query's canonical
	// direction. Gemini vectors are narrower; zero-padding aligns them.
	openaiVec := textVector("connect")
	geminiVec := make([]float64, 768)
	copy(geminiVec, openaiVec[:768])

	openaiMeta := snippet.New("acme/widgets", "docs/a.md", "openai-doc", "", "code", "go", domainsearch.ProviderOpenAI, 1536)
	geminiMeta := snippet.New("acme/widgets", "docs/b.md", "gemini-doc", "", "code", "go", domainsearch.ProviderGemini, 768)
	_, err = fx.snippets.InsertSnippets(ctx, []snippet.Record{
		snippet.NewRecord(openaiMeta, openaiVec),
		snippet.NewRecord(geminiMeta, geminiVec),
	})
	require.NoError(t, err)

	// Provider-scoped search sees only the openai snippet.
	results, err := fx.retrieval.Query(ctx, "acme/widgets", "connect")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "openai-doc", results[0].Snippet().Title())

	// Cross-provider search sees both.
	results, err = fx.retrieval.Query(ctx, "acme/widgets", "connect", WithCrossProvider(true))
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRetrieval_Browse(t *testing.T) {
	fx := newRetrievalFixture(t)
	fx.seedLibrary(t, "acme/widgets", "first", "second")

	rows, err := fx.retrieval.Browse(context.Background(), "acme/widgets", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "first", rows[0].Title())
	assert.Equal(t, "second", rows[1].Title())
}

func TestRetrieval_BrowseUnknownLibrary(t *testing.T) {
	fx := newRetrievalFixture(t)

	_, err := fx.retrieval.Browse(context.Background(), "nobody/nothing", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLibraryNotFound)
}
