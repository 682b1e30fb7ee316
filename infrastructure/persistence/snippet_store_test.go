package persistence

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainsearch "github.com/docvecdev/docvec/domain/search"
	"github.com/docvecdev/docvec/domain/snippet"
	"github.com/docvecdev/docvec/infrastructure/search"
	"github.com/docvecdev/docvec/internal/database"
)

// Cannot use the testdb package here due to an import cycle (testdb imports
// this package), so tests open and migrate the database directly.
func newTestDB(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewDatabase(ctx, "sqlite:///:memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newTestSnippetStore builds a store over a fresh database, seeding a
// registry row per named library so snippet inserts satisfy the foreign key
// to the libraries table.
func newTestSnippetStore(t *testing.T, libraries ...string) *SnippetStore {
	t.Helper()
	db := newTestDB(t)
	seedLibraries(t, db, libraries...)
	vectors := search.NewVectorStore(db, slog.Default())
	return NewSnippetStore(db, vectors, slog.Default())
}

func seedLibraries(t *testing.T, db database.Database, names ...string) {
	t.Helper()
	for _, name := range names {
		owner, repo, ok := strings.Cut(name, "/")
		require.True(t, ok)
		model := LibraryModel{
			Name:      name,
			Owner:     owner,
			Repo:      repo,
			CommitSHA: "abc123def456",
			CreatedAt: time.Now(),
		}
		require.NoError(t, db.Session(context.Background()).Create(&model).Error)
	}
}

// axisVector builds a width-wide unit vector pointing along the given axis.
func axisVector(width, axis int) []float64 {
	vec := make([]float64, width)
	vec[axis] = 1
	return vec
}

func docRecord(libraryName, title string, provider domainsearch.Provider, embedding []float64) snippet.Record {
	s := snippet.New(libraryName, "docs/"+title+".md", title, "about "+title, "example code for "+title, "go", provider, len(embedding))
	return snippet.NewRecord(s, embedding)
}

func TestSnippetStore_InsertSnippetsReturnsIDsInOrder(t *testing.T) {
	store := newTestSnippetStore(t, "acme/widgets")
	ctx := context.Background()

	records := []snippet.Record{
		docRecord("acme/widgets", "first", domainsearch.ProviderOpenAI, axisVector(1536, 0)),
		docRecord("acme/widgets", "second", domainsearch.ProviderOpenAI, axisVector(1536, 1)),
		docRecord("acme/widgets", "third", domainsearch.ProviderOpenAI, axisVector(1536, 2)),
	}

	ids, err := store.InsertSnippets(ctx, records)
	require.NoError(t, err)
	require.Len(t, ids, 3)
	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i], ids[i-1], "IDs must be ascending in input order")
	}

	rows, err := store.GetAllSnippets(ctx, "acme/widgets", 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "first", rows[0].Title())
	assert.Equal(t, "second", rows[1].Title())
	assert.Equal(t, "third", rows[2].Title())
	assert.Equal(t, ids[0], rows[0].ID())
}

func TestSnippetStore_InsertSnippetsRequiresRegistryRow(t *testing.T) {
	store := newTestSnippetStore(t)

	_, err := store.InsertSnippets(context.Background(), []snippet.Record{
		docRecord("acme/widgets", "orphan", domainsearch.ProviderOpenAI, axisVector(1536, 0)),
	})
	require.Error(t, err, "snippet rows reference the libraries table; inserting without a registry row must fail")
}

func TestSnippetStore_InsertSnippetsEmptyBatch(t *testing.T) {
	store := newTestSnippetStore(t)

	ids, err := store.InsertSnippets(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSnippetStore_InsertSnippetsCommitsVectors(t *testing.T) {
	store := newTestSnippetStore(t, "acme/widgets")
	ctx := context.Background()

	_, err := store.InsertSnippets(ctx, []snippet.Record{
		docRecord("acme/widgets", "first", domainsearch.ProviderOpenAI, axisVector(1536, 0)),
		docRecord("acme/widgets", "second", domainsearch.ProviderOpenAI, axisVector(1536, 1)),
	})
	require.NoError(t, err)

	stats, err := store.LibraryStats(ctx, "acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.VectorCount())
}

func TestSnippetStore_GetAllSnippetsHonorsLimit(t *testing.T) {
	store := newTestSnippetStore(t, "acme/widgets")
	ctx := context.Background()

	var records []snippet.Record
	for i := 0; i < 5; i++ {
		records = append(records, docRecord("acme/widgets", string(rune('a'+i)), domainsearch.ProviderOpenAI, axisVector(1536, i)))
	}
	_, err := store.InsertSnippets(ctx, records)
	require.NoError(t, err)

	rows, err := store.GetAllSnippets(ctx, "acme/widgets", 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSnippetStore_DeleteLibrarySnippets(t *testing.T) {
	store := newTestSnippetStore(t, "acme/widgets", "acme/gadgets")
	ctx := context.Background()

	_, err := store.InsertSnippets(ctx, []snippet.Record{
		docRecord("acme/widgets", "kept", domainsearch.ProviderOpenAI, axisVector(1536, 0)),
	})
	require.NoError(t, err)
	_, err = store.InsertSnippets(ctx, []snippet.Record{
		docRecord("acme/gadgets", "other", domainsearch.ProviderOpenAI, axisVector(1536, 1)),
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteLibrarySnippets(ctx, "acme/widgets"))

	rows, err := store.GetAllSnippets(ctx, "acme/widgets", 0)
	require.NoError(t, err)
	assert.Empty(t, rows)

	stats, err := store.LibraryStats(ctx, "acme/widgets")
	require.NoError(t, err)
	assert.Zero(t, stats.SnippetCount(), "metadata rows must be gone")
	assert.Zero(t, stats.VectorCount(), "vector rows must be gone")

	// The other library is untouched.
	rows, err = store.GetAllSnippets(ctx, "acme/gadgets", 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSnippetStore_DeleteLibrarySnippetsAbsentLibrary(t *testing.T) {
	store := newTestSnippetStore(t)

	require.NoError(t, store.DeleteLibrarySnippets(context.Background(), "nobody/nothing"))
}

func TestSnippetStore_ReingestionReplacesRows(t *testing.T) {
	store := newTestSnippetStore(t, "acme/widgets")
	ctx := context.Background()

	_, err := store.InsertSnippets(ctx, []snippet.Record{
		docRecord("acme/widgets", "v1-a", domainsearch.ProviderOpenAI, axisVector(1536, 0)),
		docRecord("acme/widgets", "v1-b", domainsearch.ProviderOpenAI, axisVector(1536, 1)),
		docRecord("acme/widgets", "v1-c", domainsearch.ProviderOpenAI, axisVector(1536, 2)),
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteLibrarySnippets(ctx, "acme/widgets"))
	_, err = store.InsertSnippets(ctx, []snippet.Record{
		docRecord("acme/widgets", "v2-a", domainsearch.ProviderOpenAI, axisVector(1536, 0)),
		docRecord("acme/widgets", "v2-b", domainsearch.ProviderOpenAI, axisVector(1536, 1)),
	})
	require.NoError(t, err)

	rows, err := store.GetAllSnippets(ctx, "acme/widgets", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "v2-a", rows[0].Title())
	assert.Equal(t, "v2-b", rows[1].Title())

	stats, err := store.LibraryStats(ctx, "acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.VectorCount(), "no orphaned vectors may survive re-ingestion")
}

func TestSnippetStore_SimilaritySearchRanksByCosine(t *testing.T) {
	store := newTestSnippetStore(t, "acme/widgets")
	ctx := context.Background()

	aligned := axisVector(1536, 0)
	blended := make([]float64, 1536)
	blended[0] = 0.8
	blended[1] = 0.6
	orthogonal := axisVector(1536, 1)

	_, err := store.InsertSnippets(ctx, []snippet.Record{
		docRecord("acme/widgets", "orthogonal", domainsearch.ProviderOpenAI, orthogonal),
		docRecord("acme/widgets", "aligned", domainsearch.ProviderOpenAI, aligned),
		docRecord("acme/widgets", "blended", domainsearch.ProviderOpenAI, blended),
	})
	require.NoError(t, err)

	results, err := store.SimilaritySearch(ctx, "acme/widgets", axisVector(1536, 0), domainsearch.ProviderOpenAI, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "aligned", results[0].Snippet().Title())
	assert.Equal(t, "blended", results[1].Snippet().Title())
	assert.Equal(t, "orthogonal", results[2].Snippet().Title())
	assert.InDelta(t, 1.0, results[0].Similarity(), 0.001)
	assert.InDelta(t, 0.8, results[1].Similarity(), 0.001)
}

func TestSnippetStore_SimilaritySearchFiltersByProvider(t *testing.T) {
	store := newTestSnippetStore(t, "acme/widgets")
	ctx := context.Background()

	_, err := store.InsertSnippets(ctx, []snippet.Record{
		docRecord("acme/widgets", "openai-doc", domainsearch.ProviderOpenAI, axisVector(1536, 0)),
		docRecord("acme/widgets", "gemini-doc", domainsearch.ProviderGemini, axisVector(768, 0)),
	})
	require.NoError(t, err)

	results, err := store.SimilaritySearch(ctx, "acme/widgets", axisVector(1536, 0), domainsearch.ProviderOpenAI, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "openai-doc", results[0].Snippet().Title())
}

func TestSnippetStore_SimilaritySearchScopedToLibrary(t *testing.T) {
	store := newTestSnippetStore(t, "acme/widgets", "acme/gadgets")
	ctx := context.Background()

	_, err := store.InsertSnippets(ctx, []snippet.Record{
		docRecord("acme/widgets", "in-scope", domainsearch.ProviderOpenAI, axisVector(1536, 0)),
	})
	require.NoError(t, err)
	_, err = store.InsertSnippets(ctx, []snippet.Record{
		docRecord("acme/gadgets", "out-of-scope", domainsearch.ProviderOpenAI, axisVector(1536, 0)),
	})
	require.NoError(t, err)

	results, err := store.SimilaritySearch(ctx, "acme/widgets", axisVector(1536, 0), domainsearch.ProviderOpenAI, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "in-scope", results[0].Snippet().Title())
}

func TestSnippetStore_SimilaritySearchTruncatesToLimit(t *testing.T) {
	store := newTestSnippetStore(t, "acme/widgets")
	ctx := context.Background()

	var records []snippet.Record
	for i := 0; i < 5; i++ {
		records = append(records, docRecord("acme/widgets", string(rune('a'+i)), domainsearch.ProviderOpenAI, axisVector(1536, i)))
	}
	_, err := store.InsertSnippets(ctx, records)
	require.NoError(t, err)

	results, err := store.SimilaritySearch(ctx, "acme/widgets", axisVector(1536, 0), domainsearch.ProviderOpenAI, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSnippetStore_CrossProviderSearchSpansProviders(t *testing.T) {
	store := newTestSnippetStore(t, "acme/widgets")
	ctx := context.Background()

	// Both vectors zero-pad to the same canonical direction.
	_, err := store.InsertSnippets(ctx, []snippet.Record{
		docRecord("acme/widgets", "openai-doc", domainsearch.ProviderOpenAI, axisVector(1536, 0)),
		docRecord("acme/widgets", "gemini-doc", domainsearch.ProviderGemini, axisVector(768, 0)),
	})
	require.NoError(t, err)

	results, err := store.CrossProviderSearch(ctx, "acme/widgets", axisVector(1536, 0), domainsearch.ProviderOpenAI, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.InDelta(t, 1.0, r.Similarity(), 0.001)
	}
}

func TestSnippetStore_LibraryStats(t *testing.T) {
	store := newTestSnippetStore(t, "acme/widgets")
	ctx := context.Background()

	_, err := store.InsertSnippets(ctx, []snippet.Record{
		docRecord("acme/widgets", "a", domainsearch.ProviderOpenAI, axisVector(1536, 0)),
		docRecord("acme/widgets", "b", domainsearch.ProviderOpenAI, axisVector(1536, 1)),
		docRecord("acme/widgets", "c", domainsearch.ProviderGemini, axisVector(768, 2)),
	})
	require.NoError(t, err)

	stats, err := store.LibraryStats(ctx, "acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.SnippetCount())
	assert.Equal(t, int64(2), stats.CountByProvider()[domainsearch.ProviderOpenAI])
	assert.Equal(t, int64(1), stats.CountByProvider()[domainsearch.ProviderGemini])
	assert.InDelta(t, 1280.0, stats.MeanDimension(), 0.001)
	assert.Equal(t, int64(3), stats.VectorCount())
}

func TestSnippetStore_LibraryStatsEmptyLibrary(t *testing.T) {
	store := newTestSnippetStore(t)

	stats, err := store.LibraryStats(context.Background(), "nobody/nothing")
	require.NoError(t, err)
	assert.Zero(t, stats.SnippetCount())
	assert.Zero(t, stats.VectorCount())
	assert.Zero(t, stats.MeanDimension())
}

func TestSnippetStore_HealthCheckHealthy(t *testing.T) {
	store := newTestSnippetStore(t, "acme/widgets")
	ctx := context.Background()

	_, err := store.InsertSnippets(ctx, []snippet.Record{
		docRecord("acme/widgets", "a", domainsearch.ProviderOpenAI, axisVector(1536, 0)),
	})
	require.NoError(t, err)

	health := store.HealthCheck(ctx)
	assert.Equal(t, snippet.HealthHealthy, health.State())
	assert.NotEmpty(t, health.Detail())
}

func TestSnippetStore_HealthCheckDegradedOnClosedVectorStore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	brokenDB, err := database.NewDatabase(ctx, "sqlite:///:memory:")
	require.NoError(t, err)
	require.NoError(t, brokenDB.Close())

	store := NewSnippetStore(db, search.NewVectorStore(brokenDB, slog.Default()), slog.Default())

	health := store.HealthCheck(ctx)
	assert.Equal(t, snippet.HealthDegraded, health.State())
}
