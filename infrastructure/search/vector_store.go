package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docvecdev/docvec/domain/search"
	"github.com/docvecdev/docvec/internal/database"
	"gorm.io/gorm"
)

// subBatchSize bounds per-statement payload size and write-lock hold time
// on the embedded database.
const subBatchSize = 50

// vectorTable is the fallback vector table backing brute-force search.
const vectorTable = "snippet_vectors"

// ErrVectorStoreInitializationFailed indicates first-use setup failed.
var ErrVectorStoreInitializationFailed = errors.New("failed to initialize vector store")

// VectorEntity is a row of the fallback vector table.
type VectorEntity struct {
	SnippetID int64  `gorm:"column:snippet_id;primaryKey"`
	Embedding []byte `gorm:"column:embedding;type:blob"`
}

// TableName implements the gorm table naming convention.
func (VectorEntity) TableName() string { return vectorTable }

// Record is one snippet's raw embedding headed for the vector store.
type Record struct {
	snippetID int64
	embedding []float64
	provider  search.Provider
}

// NewRecord creates a Record (copying the embedding).
func NewRecord(snippetID int64, embedding []float64, provider search.Provider) Record {
	vec := make([]float64, len(embedding))
	copy(vec, embedding)
	return Record{snippetID: snippetID, embedding: vec, provider: provider}
}

// SnippetID returns the snippet identifier.
func (r Record) SnippetID() int64 { return r.snippetID }

// Embedding returns the raw embedding (copy).
func (r Record) Embedding() []float64 {
	vec := make([]float64, len(r.embedding))
	copy(vec, r.embedding)
	return vec
}

// Provider returns the embedding provider.
func (r Record) Provider() search.Provider { return r.provider }

// Health reports the vector store's readiness and row count, with the
// latency of the count probe.
type Health struct {
	ready        bool
	vectorCount  int64
	dimension    int
	countLatency time.Duration
}

// Ready returns whether the store is initialized and answering queries.
func (h Health) Ready() bool { return h.ready }

// VectorCount returns the persisted row count.
func (h Health) VectorCount() int64 { return h.vectorCount }

// Dimension returns the canonical vector width.
func (h Health) Dimension() int { return h.dimension }

// CountLatency returns how long the count probe took.
func (h Health) CountLatency() time.Duration { return h.countLatency }

// VectorStore persists canonical vectors keyed by snippet identity and
// performs brute-force cosine similarity search over them. Initialization
// state is owned by the instance (flag + mutex), so independent stores can
// coexist in tests and in-process.
type VectorStore struct {
	db          database.Database
	logger      *slog.Logger
	initialized bool
	mu          sync.Mutex
}

// NewVectorStore creates a VectorStore.
func NewVectorStore(db database.Database, logger *slog.Logger) *VectorStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorStore{db: db, logger: logger}
}

// initialize performs idempotent first-use setup. Safe to call repeatedly.
func (s *VectorStore) initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	// Raw SQL rather than AutoMigrate: the table is shared with raw batch
	// statements and its shape must stay exactly this.
	createTableSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    snippet_id INTEGER PRIMARY KEY,
    embedding BLOB NOT NULL
)`, vectorTable)

	if err := s.db.Session(ctx).Exec(createTableSQL).Error; err != nil {
		return errors.Join(ErrVectorStoreInitializationFailed, err)
	}

	s.initialized = true
	return nil
}

// StoreVector normalizes and upserts a single vector. An existing row for
// the snippet is deleted first, then the new row inserted, never updated
// in place, so exactly one row per snippet survives.
func (s *VectorStore) StoreVector(ctx context.Context, snippetID int64, embedding []float64, provider search.Provider) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}

	canonical, err := Normalize(embedding, provider)
	if err != nil {
		return err
	}

	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Where("snippet_id = ?", snippetID).Delete(&VectorEntity{}).Error; err != nil {
			return fmt.Errorf("delete existing vector: %w", err)
		}
		entity := VectorEntity{SnippetID: snippetID, Embedding: EncodeVector(canonical)}
		if err := tx.Create(&entity).Error; err != nil {
			return fmt.Errorf("insert vector: %w", err)
		}
		return nil
	})
}

// StoreVectors writes a batch of vectors. Rows matching the batch's snippet
// IDs are deleted first (idempotent re-ingestion), then normalized vectors
// are inserted in fixed-size sub-batches, each all-or-nothing. A sub-batch
// failure propagates rather than silently dropping the remainder.
// A normalization failure on one record excludes only that record.
func (s *VectorStore) StoreVectors(ctx context.Context, records []Record) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}

	if len(records) == 0 {
		return nil
	}

	entities := make([]VectorEntity, 0, len(records))
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		canonical, err := Normalize(r.embedding, r.provider)
		if err != nil {
			s.logger.Warn("skipping vector with unsupported dimension",
				slog.Int64("snippet_id", r.snippetID),
				slog.String("provider", r.provider.String()),
				slog.Int("width", len(r.embedding)),
			)
			continue
		}
		entities = append(entities, VectorEntity{SnippetID: r.snippetID, Embedding: EncodeVector(canonical)})
		ids = append(ids, r.snippetID)
	}

	if len(entities) == 0 {
		return nil
	}

	if err := s.db.Session(ctx).Where("snippet_id IN ?", ids).Delete(&VectorEntity{}).Error; err != nil {
		return fmt.Errorf("delete existing vectors: %w", err)
	}

	for start := 0; start < len(entities); start += subBatchSize {
		end := start + subBatchSize
		if end > len(entities) {
			end = len(entities)
		}
		chunk := entities[start:end]

		err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
			return tx.Create(&chunk).Error
		})
		if err != nil {
			return fmt.Errorf("insert vector sub-batch [%d:%d]: %w", start, end, err)
		}
	}

	return nil
}

// SimilaritySearch normalizes the query, loads candidate vectors
// (optionally restricted to one library by joining against snippet
// metadata), and returns the limit closest matches by cosine distance.
// O(N) over the candidate set; acceptable at the corpus sizes this store
// targets.
func (s *VectorStore) SimilaritySearch(ctx context.Context, queryVector []float64, provider search.Provider, limit int, libraryName string) ([]search.Match, error) {
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}

	canonical, err := Normalize(queryVector, provider)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}

	vectors, err := s.loadVectors(ctx, libraryName)
	if err != nil {
		return nil, err
	}

	if len(vectors) == 0 {
		return []search.Match{}, nil
	}

	return RankByDistance(canonical, vectors, limit), nil
}

// loadVectors loads candidate vectors, optionally filtered to one library.
func (s *VectorStore) loadVectors(ctx context.Context, libraryName string) ([]StoredVector, error) {
	var entities []VectorEntity

	db := s.db.Session(ctx).Table(vectorTable)
	if libraryName != "" {
		db = db.Where(
			"snippet_id IN (SELECT id FROM snippets WHERE library_name = ?)",
			libraryName,
		)
	}

	if err := db.Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}

	vectors := make([]StoredVector, 0, len(entities))
	for _, e := range entities {
		if len(e.Embedding) == 0 {
			s.logger.Warn("skipping empty embedding", slog.Int64("snippet_id", e.SnippetID))
			continue
		}
		vectors = append(vectors, NewStoredVector(e.SnippetID, DecodeVector(e.Embedding)))
	}

	return vectors, nil
}

// DeleteVector removes one snippet's vector row.
func (s *VectorStore) DeleteVector(ctx context.Context, snippetID int64) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}
	return s.db.Session(ctx).Where("snippet_id = ?", snippetID).Delete(&VectorEntity{}).Error
}

// DeleteVectors removes the vector rows for the given snippet IDs. A nil or
// empty slice is a no-op, so deleting a library with zero snippets is safe.
func (s *VectorStore) DeleteVectors(ctx context.Context, snippetIDs []int64) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}
	if len(snippetIDs) == 0 {
		return nil
	}
	return s.db.Session(ctx).Where("snippet_id IN ?", snippetIDs).Delete(&VectorEntity{}).Error
}

// DeleteVectorsByLibrary removes every vector row whose snippet belongs to
// the library. Safe on a library with zero snippets.
func (s *VectorStore) DeleteVectorsByLibrary(ctx context.Context, libraryName string) error {
	if err := s.initialize(ctx); err != nil {
		return err
	}
	return s.db.Session(ctx).
		Where("snippet_id IN (SELECT id FROM snippets WHERE library_name = ?)", libraryName).
		Delete(&VectorEntity{}).Error
}

// Count returns the persisted vector row count.
func (s *VectorStore) Count(ctx context.Context) (int64, error) {
	if err := s.initialize(ctx); err != nil {
		return 0, err
	}
	var count int64
	if err := s.db.Session(ctx).Model(&VectorEntity{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count vectors: %w", err)
	}
	return count, nil
}

// CountByLibrary returns the vector row count for one library's snippets.
func (s *VectorStore) CountByLibrary(ctx context.Context, libraryName string) (int64, error) {
	if err := s.initialize(ctx); err != nil {
		return 0, err
	}
	var count int64
	err := s.db.Session(ctx).Model(&VectorEntity{}).
		Where("snippet_id IN (SELECT id FROM snippets WHERE library_name = ?)", libraryName).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count vectors by library: %w", err)
	}
	return count, nil
}

// HealthCheck probes the store. A failed probe reports not-ready rather
// than returning an error.
func (s *VectorStore) HealthCheck(ctx context.Context) Health {
	start := time.Now()
	count, err := s.Count(ctx)
	latency := time.Since(start)
	if err != nil {
		s.logger.Warn("vector store health probe failed", slog.String("error", err.Error()))
		return Health{ready: false, dimension: CanonicalDimension, countLatency: latency}
	}
	return Health{
		ready:        true,
		vectorCount:  count,
		dimension:    CanonicalDimension,
		countLatency: latency,
	}
}
