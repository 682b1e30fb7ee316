package search

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvecdev/docvec/domain/search"
	"github.com/docvecdev/docvec/internal/database"
)

// newTestDB creates an in-memory SQLite database with a minimal snippets
// table for library-filtered operations. Cannot use the testdb package here
// due to an import cycle (testdb imports persistence, which imports this
// package).
func newTestDB(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewDatabase(ctx, "sqlite:///:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	err = db.Session(ctx).Exec(`
CREATE TABLE snippets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    library_name TEXT NOT NULL
)`).Error
	require.NoError(t, err)
	return db
}

func newTestStore(t *testing.T) (*VectorStore, database.Database) {
	t.Helper()
	db := newTestDB(t)
	return NewVectorStore(db, nil), db
}

// openaiVector builds a full-width vector dominated by one component, so
// vectors with different leads are clearly separable under cosine distance.
func openaiVector(lead int, weight float64) []float64 {
	vec := make([]float64, CanonicalDimension)
	vec[lead] = weight
	vec[CanonicalDimension-1] = 0.05
	return vec
}

func insertSnippetRow(t *testing.T, db database.Database, id int64, libraryName string) {
	t.Helper()
	err := db.Session(context.Background()).Exec(
		"INSERT INTO snippets (id, library_name) VALUES (?, ?)", id, libraryName,
	).Error
	require.NoError(t, err)
}

func TestVectorStore_StoreVectorUpserts(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreVector(ctx, 1, openaiVector(0, 1), search.ProviderOpenAI))
	require.NoError(t, store.StoreVector(ctx, 1, openaiVector(1, 1), search.ProviderOpenAI))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// The surviving row must hold the second vector.
	matches, err := store.SimilaritySearch(ctx, openaiVector(1, 1), search.ProviderOpenAI, 1, "")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(1), matches[0].SnippetID())
	assert.InDelta(t, 0, matches[0].Distance(), 0.001)
}

func TestVectorStore_StoreVectorsSubBatchBoundary(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// 120 records span two full sub-batches of 50 plus a remainder of 20.
	records := make([]Record, 120)
	for i := range records {
		records[i] = NewRecord(int64(i+1), openaiVector(i%CanonicalDimension, 1), search.ProviderOpenAI)
	}

	require.NoError(t, store.StoreVectors(ctx, records))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(120), count)
}

func TestVectorStore_StoreVectorsIdempotentReingest(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	records := []Record{
		NewRecord(1, openaiVector(0, 1), search.ProviderOpenAI),
		NewRecord(2, openaiVector(1, 1), search.ProviderOpenAI),
	}

	require.NoError(t, store.StoreVectors(ctx, records))
	require.NoError(t, store.StoreVectors(ctx, records))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestVectorStore_StoreVectorsSkipsUnsupportedWidth(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	records := []Record{
		NewRecord(1, openaiVector(0, 1), search.ProviderOpenAI),
		NewRecord(2, make([]float64, 100), search.ProviderOpenAI), // unsupported width
		NewRecord(3, openaiVector(2, 1), search.ProviderOpenAI),
	}

	require.NoError(t, store.StoreVectors(ctx, records))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestVectorStore_StoreVectorsEmptyBatch(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.StoreVectors(context.Background(), nil))
}

func TestVectorStore_SimilaritySearchOrdering(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// A is closest to the query, then B, then C.
	query := openaiVector(0, 1)
	a := openaiVector(0, 1)
	b := openaiVector(0, 1)
	b[5] = 0.8
	c := openaiVector(7, 1)

	require.NoError(t, store.StoreVectors(ctx, []Record{
		NewRecord(3, c, search.ProviderOpenAI),
		NewRecord(1, a, search.ProviderOpenAI),
		NewRecord(2, b, search.ProviderOpenAI),
	}))

	matches, err := store.SimilaritySearch(ctx, query, search.ProviderOpenAI, 3, "")
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, int64(1), matches[0].SnippetID())
	assert.Equal(t, int64(2), matches[1].SnippetID())
	assert.Equal(t, int64(3), matches[2].SnippetID())
}

func TestVectorStore_SimilaritySearchLibraryFilter(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	insertSnippetRow(t, db, 1, "alpha/lib")
	insertSnippetRow(t, db, 2, "beta/lib")

	require.NoError(t, store.StoreVectors(ctx, []Record{
		NewRecord(1, openaiVector(0, 1), search.ProviderOpenAI),
		NewRecord(2, openaiVector(0, 1), search.ProviderOpenAI),
	}))

	matches, err := store.SimilaritySearch(ctx, openaiVector(0, 1), search.ProviderOpenAI, 10, "alpha/lib")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(1), matches[0].SnippetID())
}

func TestVectorStore_SimilaritySearchRejectsUnsupportedQuery(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.SimilaritySearch(context.Background(), make([]float64, 99), search.ProviderOpenAI, 5, "")
	require.Error(t, err)

	var dimErr *UnsupportedDimensionError
	assert.ErrorAs(t, err, &dimErr)
}

func TestVectorStore_DeleteVectors(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreVectors(ctx, []Record{
		NewRecord(1, openaiVector(0, 1), search.ProviderOpenAI),
		NewRecord(2, openaiVector(1, 1), search.ProviderOpenAI),
		NewRecord(3, openaiVector(2, 1), search.ProviderOpenAI),
	}))

	require.NoError(t, store.DeleteVectors(ctx, []int64{1, 3}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Empty slice is a no-op.
	require.NoError(t, store.DeleteVectors(ctx, nil))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestVectorStore_DeleteVectorsByLibrary(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		insertSnippetRow(t, db, i, "alpha/lib")
	}
	insertSnippetRow(t, db, 4, "beta/lib")

	records := make([]Record, 4)
	for i := range records {
		records[i] = NewRecord(int64(i+1), openaiVector(i, 1), search.ProviderOpenAI)
	}
	require.NoError(t, store.StoreVectors(ctx, records))

	require.NoError(t, store.DeleteVectorsByLibrary(ctx, "alpha/lib"))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	remaining, err := store.CountByLibrary(ctx, "beta/lib")
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)

	// Deleting a library with no snippets is safe.
	require.NoError(t, store.DeleteVectorsByLibrary(ctx, "gamma/lib"))
}

func TestVectorStore_CrossProviderSpaceIsShared(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// A 768-wide Gemini vector and a 1536-wide OpenAI vector agreeing on
	// their leading components land close together in canonical space.
	gemini := make([]float64, 768)
	gemini[0] = 1
	openai := make([]float64, 1536)
	openai[0] = 1

	require.NoError(t, store.StoreVector(ctx, 1, gemini, search.ProviderGemini))
	require.NoError(t, store.StoreVector(ctx, 2, openai, search.ProviderOpenAI))

	matches, err := store.SimilaritySearch(ctx, gemini, search.ProviderGemini, 2, "")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.InDelta(t, 0, m.Distance(), 0.001)
	}
}

func TestVectorStore_HealthCheck(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreVector(ctx, 1, openaiVector(0, 1), search.ProviderOpenAI))

	health := store.HealthCheck(ctx)
	assert.True(t, health.Ready())
	assert.Equal(t, int64(1), health.VectorCount())
	assert.Equal(t, CanonicalDimension, health.Dimension())
	assert.GreaterOrEqual(t, health.CountLatency().Nanoseconds(), int64(0))
}

func TestVectorStore_InitializeIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.initialize(ctx), fmt.Sprintf("call %d", i))
	}
}
