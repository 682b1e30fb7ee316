package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/docvecdev/docvec/domain/query"
	domainsearch "github.com/docvecdev/docvec/domain/search"
	"github.com/docvecdev/docvec/domain/snippet"
	"github.com/docvecdev/docvec/infrastructure/search"
	"github.com/docvecdev/docvec/internal/database"
	"gorm.io/gorm"
)

// Over-fetch factors compensate for filtering that happens after the vector
// layer has already truncated its candidate list.
const (
	similarityOverFetch    = 2
	crossProviderOverFetch = 3
)

// SnippetStore implements snippet.Store using GORM, mediating between the
// metadata tables and the vector store so rows and vectors stay paired.
type SnippetStore struct {
	db      database.Database
	vectors *search.VectorStore
	repo    database.Repository[snippet.Snippet, SnippetModel]
	mapper  SnippetMapper
	logger  *slog.Logger
}

// NewSnippetStore creates a SnippetStore.
func NewSnippetStore(db database.Database, vectors *search.VectorStore, logger *slog.Logger) *SnippetStore {
	if logger == nil {
		logger = slog.Default()
	}
	mapper := SnippetMapper{}
	return &SnippetStore{
		db:      db,
		vectors: vectors,
		repo:    database.NewRepository[snippet.Snippet, SnippetModel](db, mapper, "snippet"),
		mapper:  mapper,
		logger:  logger,
	}
}

// InsertSnippets writes metadata rows in one transaction, capturing the
// generated identifiers, then commits vectors after the transaction. The
// transaction is deferred (no write lock until the first insert executes);
// vector writes run outside it, so a vector-store failure after committed
// metadata is logged as a warning, not rolled into the metadata
// transaction. Returns generated IDs in input order.
func (s *SnippetStore) InsertSnippets(ctx context.Context, records []snippet.Record) ([]int64, error) {
	if len(records) == 0 {
		return []int64{}, nil
	}

	ids, err := database.WithTransactionResult(ctx, s.db, func(tx *gorm.DB) ([]int64, error) {
		generated := make([]int64, 0, len(records))
		for _, r := range records {
			model := s.mapper.ToModel(r.Snippet())
			if err := tx.Create(&model).Error; err != nil {
				return nil, fmt.Errorf("insert snippet %q: %w", r.Snippet().Title(), err)
			}
			generated = append(generated, model.ID)
		}
		return generated, nil
	})
	if err != nil {
		return nil, err
	}

	vectorRecords := make([]search.Record, 0, len(records))
	for i, r := range records {
		vectorRecords = append(vectorRecords, search.NewRecord(ids[i], r.Embedding(), r.Snippet().Provider()))
	}

	if err := s.vectors.StoreVectors(ctx, vectorRecords); err != nil {
		// Metadata is already committed; the health check surfaces the
		// metadata/vector inconsistency, this store does not auto-heal it.
		s.logger.Warn("vector commit failed after metadata commit",
			slog.Int("snippets", len(records)),
			slog.String("error", err.Error()),
		)
	}

	return ids, nil
}

// DeleteLibrarySnippets removes a library's vectors, then its metadata
// rows. Delete failures are logged as warnings and do not abort: first-time
// ingestion of a library has nothing to delete.
func (s *SnippetStore) DeleteLibrarySnippets(ctx context.Context, libraryName string) error {
	ids, err := s.snippetIDs(ctx, libraryName)
	if err != nil {
		s.logger.Warn("failed to resolve snippet IDs for deletion",
			slog.String("library", libraryName),
			slog.String("error", err.Error()),
		)
		return nil
	}

	if err := s.vectors.DeleteVectors(ctx, ids); err != nil {
		s.logger.Warn("failed to delete vectors",
			slog.String("library", libraryName),
			slog.String("error", err.Error()),
		)
	}

	if err := s.repo.DeleteBy(ctx, snippet.WithLibraryName(libraryName)); err != nil {
		s.logger.Warn("failed to delete snippets",
			slog.String("library", libraryName),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

func (s *SnippetStore) snippetIDs(ctx context.Context, libraryName string) ([]int64, error) {
	var ids []int64
	err := s.db.Session(ctx).Model(&SnippetModel{}).
		Where("library_name = ?", libraryName).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetAllSnippets lists metadata rows for a library in insertion order.
func (s *SnippetStore) GetAllSnippets(ctx context.Context, libraryName string, limit int) ([]snippet.Snippet, error) {
	options := []query.Option{
		snippet.WithLibraryName(libraryName),
		query.WithOrderAsc("id"),
	}
	if limit > 0 {
		options = append(options, query.WithLimit(limit))
	}
	return s.repo.Find(ctx, options...)
}

// SimilaritySearch ranks a library's snippets against the query embedding,
// restricted to snippets indexed with the query's provider. The vector
// layer over-fetches 2x because provider filtering happens here, after
// truncation there.
func (s *SnippetStore) SimilaritySearch(ctx context.Context, libraryName string, queryEmbedding []float64, provider domainsearch.Provider, limit int) ([]snippet.Scored, error) {
	if limit <= 0 {
		limit = 10
	}

	matches, err := s.vectors.SimilaritySearch(ctx, queryEmbedding, provider, limit*similarityOverFetch, libraryName)
	if err != nil {
		return nil, err
	}

	scored, err := s.attachMetadata(ctx, matches, provider)
	if err != nil {
		return nil, err
	}

	return truncateScored(scored, limit), nil
}

// CrossProviderSearch ranks snippets regardless of the provider they were
// indexed with: all stored vectors share the canonical space and are
// directly comparable. Over-fetches 3x.
func (s *SnippetStore) CrossProviderSearch(ctx context.Context, libraryName string, queryEmbedding []float64, provider domainsearch.Provider, limit int) ([]snippet.Scored, error) {
	if limit <= 0 {
		limit = 10
	}

	matches, err := s.vectors.SimilaritySearch(ctx, queryEmbedding, provider, limit*crossProviderOverFetch, libraryName)
	if err != nil {
		return nil, err
	}

	scored, err := s.attachMetadata(ctx, matches, "")
	if err != nil {
		return nil, err
	}

	return truncateScored(scored, limit), nil
}

// attachMetadata loads metadata rows for the matches, attaches
// similarity = 1 - distance, and re-sorts descending by similarity. When
// provider is non-empty, rows indexed with a different provider are
// dropped.
func (s *SnippetStore) attachMetadata(ctx context.Context, matches []domainsearch.Match, provider domainsearch.Provider) ([]snippet.Scored, error) {
	if len(matches) == 0 {
		return []snippet.Scored{}, nil
	}

	ids := make([]int64, len(matches))
	distances := make(map[int64]float64, len(matches))
	for i, m := range matches {
		ids[i] = m.SnippetID()
		distances[m.SnippetID()] = m.Distance()
	}

	rows, err := s.repo.Find(ctx, query.WithIDIn(ids))
	if err != nil {
		return nil, err
	}

	scored := make([]snippet.Scored, 0, len(rows))
	for _, row := range rows {
		if provider != "" && row.Provider() != provider {
			continue
		}
		distance, ok := distances[row.ID()]
		if !ok {
			continue
		}
		scored = append(scored, snippet.NewScored(row, 1-distance))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity() > scored[j].Similarity()
	})

	return scored, nil
}

func truncateScored(scored []snippet.Scored, limit int) []snippet.Scored {
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// LibraryStats summarizes a library's snippets and its vector rows.
func (s *SnippetStore) LibraryStats(ctx context.Context, libraryName string) (snippet.Stats, error) {
	total, err := s.repo.Count(ctx, snippet.WithLibraryName(libraryName))
	if err != nil {
		return snippet.Stats{}, err
	}

	type providerCount struct {
		Provider string
		Count    int64
	}
	var byProvider []providerCount
	err = s.db.Session(ctx).Model(&SnippetModel{}).
		Select("provider, COUNT(*) as count").
		Where("library_name = ?", libraryName).
		Group("provider").
		Scan(&byProvider).Error
	if err != nil {
		return snippet.Stats{}, fmt.Errorf("count by provider: %w", err)
	}

	counts := make(map[domainsearch.Provider]int64, len(byProvider))
	for _, pc := range byProvider {
		counts[domainsearch.Provider(pc.Provider)] = pc.Count
	}

	var meanDim float64
	if total > 0 {
		err = s.db.Session(ctx).Model(&SnippetModel{}).
			Select("AVG(embedding_dim)").
			Where("library_name = ?", libraryName).
			Scan(&meanDim).Error
		if err != nil {
			return snippet.Stats{}, fmt.Errorf("mean embedding dim: %w", err)
		}
	}

	vectorCount, err := s.vectors.CountByLibrary(ctx, libraryName)
	if err != nil {
		return snippet.Stats{}, err
	}

	return snippet.NewStats(total, counts, meanDim, vectorCount), nil
}

// HealthCheck probes metadata and vector storage: healthy when both
// succeed, degraded when exactly one does, error otherwise. All internal
// failures are captured into the detail payload; this never returns an
// error.
func (s *SnippetStore) HealthCheck(ctx context.Context) snippet.Health {
	var metadataErr error
	var count int64
	if err := s.db.Session(ctx).Model(&SnippetModel{}).Count(&count).Error; err != nil {
		metadataErr = err
	}

	vectorHealth := s.vectors.HealthCheck(ctx)

	switch {
	case metadataErr == nil && vectorHealth.Ready():
		return snippet.NewHealth(snippet.HealthHealthy,
			fmt.Sprintf("%d snippets, %d vectors", count, vectorHealth.VectorCount()))
	case metadataErr == nil:
		return snippet.NewHealth(snippet.HealthDegraded, "vector store probe failed")
	case vectorHealth.Ready():
		return snippet.NewHealth(snippet.HealthDegraded,
			fmt.Sprintf("metadata probe failed: %v", metadataErr))
	default:
		return snippet.NewHealth(snippet.HealthError,
			fmt.Sprintf("metadata probe failed: %v; vector store not ready", metadataErr))
	}
}

// Ensure SnippetStore implements snippet.Store.
var _ snippet.Store = (*SnippetStore)(nil)
