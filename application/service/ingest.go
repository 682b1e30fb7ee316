// Package service provides application layer services that orchestrate
// domain operations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docvecdev/docvec/domain/library"
	"github.com/docvecdev/docvec/domain/search"
	domainservice "github.com/docvecdev/docvec/domain/service"
	"github.com/docvecdev/docvec/domain/snippet"
	infrasearch "github.com/docvecdev/docvec/infrastructure/search"
)

// Ingestion stages, in order. A run never persists stage state; a retry
// starts over from stageResolved.
const (
	stageResolved    = "resolved"
	stageFilesListed = "files_listed"
	stageExtracted   = "extracted"
	stageEmbedded    = "embedded"
	stageCommitted   = "committed"
)

const (
	// defaultFetchConcurrency bounds outstanding requests to the
	// documentation source.
	defaultFetchConcurrency = 10

	// defaultEmbedConcurrency bounds concurrent embedding calls, the most
	// rate-limited external dependency.
	defaultEmbedConcurrency = 5

	// embedBatchSize is the number of snippet texts sent per embedding call.
	embedBatchSize = 10
)

// AddOption configures one library-add operation.
type AddOption func(*addConfig)

type addConfig struct {
	ref     string
	folders []string
}

// WithRef pins indexing to a branch or tag instead of the default branch.
func WithRef(ref string) AddOption {
	return func(c *addConfig) { c.ref = ref }
}

// WithFolders scopes indexing to the given repository subtrees.
func WithFolders(folders ...string) AddOption {
	return func(c *addConfig) { c.folders = folders }
}

// Summary reports the outcome of one library-add operation.
type Summary struct {
	libraryName     string
	commitSHA       string
	fileCount       int
	failedFiles     int
	snippetCount    int
	droppedSnippets int
	provider        search.Provider
	model           string
	embeddingDim    int
	canonicalDim    int
	stats           snippet.Stats
	duration        time.Duration
}

// LibraryName returns the owner/repo name that was indexed.
func (s Summary) LibraryName() string { return s.libraryName }

// CommitSHA returns the commit that was indexed.
func (s Summary) CommitSHA() string { return s.commitSHA }

// FileCount returns the number of documentation files processed.
func (s Summary) FileCount() int { return s.fileCount }

// FailedFiles returns the number of files that failed to fetch or extract.
func (s Summary) FailedFiles() int { return s.failedFiles }

// SnippetCount returns the number of snippets committed.
func (s Summary) SnippetCount() int { return s.snippetCount }

// DroppedSnippets returns the number of snippets dropped during embedding
// or normalization.
func (s Summary) DroppedSnippets() int { return s.droppedSnippets }

// Provider returns the embedding provider that produced the vectors.
func (s Summary) Provider() search.Provider { return s.provider }

// Model returns the embedding model identifier in use.
func (s Summary) Model() string { return s.model }

// EmbeddingDim returns the width of the vectors as the provider produced
// them, before normalization (0 if nothing was embedded).
func (s Summary) EmbeddingDim() int { return s.embeddingDim }

// CanonicalDim returns the width the stored vectors are normalized to.
func (s Summary) CanonicalDim() int { return s.canonicalDim }

// Stats returns the library's statistics as read after the commit.
func (s Summary) Stats() snippet.Stats { return s.stats }

// Duration returns the wall-clock time of the run.
func (s Summary) Duration() time.Duration { return s.duration }

// Ingest orchestrates one library's indexing run: resolve the source, list
// and fetch documentation files, extract snippet candidates, embed them, and
// commit metadata plus vectors.
type Ingest struct {
	fetcher          domainservice.Fetcher
	extractor        domainservice.Extractor
	embedder         search.Embedder
	snippets         snippet.Store
	libraries        library.Store
	logger           *slog.Logger
	fetchConcurrency int
	embedConcurrency int
}

// NewIngest creates an Ingest service.
func NewIngest(
	fetcher domainservice.Fetcher,
	extractor domainservice.Extractor,
	embedder search.Embedder,
	snippets snippet.Store,
	libraries library.Store,
	logger *slog.Logger,
) *Ingest {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingest{
		fetcher:          fetcher,
		extractor:        extractor,
		embedder:         embedder,
		snippets:         snippets,
		libraries:        libraries,
		logger:           logger,
		fetchConcurrency: defaultFetchConcurrency,
		embedConcurrency: defaultEmbedConcurrency,
	}
}

// embedded pairs a candidate's snippet metadata with its raw embedding.
type embedded struct {
	candidate domainservice.Candidate
	path      string
	vector    []float64
}

// Add indexes one library end to end. A per-file or per-snippet failure is
// logged and dropped; a resolve failure or commit failure aborts the run.
// Re-adding an already indexed library replaces its snippets and registry
// row.
func (s *Ingest) Add(ctx context.Context, name string, opts ...AddOption) (Summary, error) {
	cfg := &addConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	owner, repo, err := library.SplitName(name)
	if err != nil {
		return Summary{}, err
	}

	started := time.Now()
	repoRef := domainservice.NewRepoRef(owner, repo, cfg.ref)

	sha, description, err := s.fetcher.Resolve(ctx, repoRef)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to resolve %s: %w", name, err)
	}
	s.logger.Info("source resolved",
		slog.String("stage", stageResolved),
		slog.String("library", name),
		slog.String("sha", sha))

	files, err := s.fetcher.ListDocFiles(ctx, repoRef, sha, cfg.folders)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list files for %s: %w", name, err)
	}
	if len(files) == 0 {
		return Summary{}, fmt.Errorf("%w in %s", ErrNoFilesFound, name)
	}
	s.logger.Info("documentation files listed",
		slog.String("stage", stageFilesListed),
		slog.String("library", name),
		slog.Int("files", len(files)))

	candidates, failedFiles := s.extractAll(ctx, repoRef, name, description, files)
	s.logger.Info("snippets extracted",
		slog.String("stage", stageExtracted),
		slog.String("library", name),
		slog.Int("candidates", len(candidates)),
		slog.Int("failed_files", failedFiles))

	embeddedSnippets, droppedSnippets := s.embedAll(ctx, candidates)
	s.logger.Info("snippets embedded",
		slog.String("stage", stageEmbedded),
		slog.String("library", name),
		slog.Int("embedded", len(embeddedSnippets)),
		slog.Int("dropped", droppedSnippets))

	records := make([]snippet.Record, len(embeddedSnippets))
	for i, e := range embeddedSnippets {
		meta := snippet.New(
			name,
			e.path,
			e.candidate.Title(),
			e.candidate.Description(),
			e.candidate.Code(),
			e.candidate.Language(),
			s.embedder.Provider(),
			len(e.vector),
		)
		records[i] = snippet.NewRecord(meta, e.vector)
	}

	if err := s.commit(ctx, name, description, cfg, sha, len(files), records); err != nil {
		return Summary{}, err
	}
	s.logger.Info("library committed",
		slog.String("stage", stageCommitted),
		slog.String("library", name),
		slog.Int("snippets", len(records)))

	embeddingDim := 0
	if len(embeddedSnippets) > 0 {
		embeddingDim = len(embeddedSnippets[0].vector)
	}

	stats, err := s.snippets.LibraryStats(ctx, name)
	if err != nil {
		s.logger.Warn("failed to read post-commit library stats",
			slog.String("library", name),
			slog.Any("error", err))
	}

	return Summary{
		libraryName:     name,
		commitSHA:       sha,
		fileCount:       len(files),
		failedFiles:     failedFiles,
		snippetCount:    len(records),
		droppedSnippets: droppedSnippets,
		provider:        s.embedder.Provider(),
		model:           s.embedder.Model(),
		embeddingDim:    embeddingDim,
		canonicalDim:    infrasearch.CanonicalDimension,
		stats:           stats,
		duration:        time.Since(started),
	}, nil
}

// fileCandidate carries a candidate with its source path through the
// pipeline.
type fileCandidate struct {
	path      string
	candidate domainservice.Candidate
}

// extractAll fetches and extracts files with bounded concurrency. A failing
// file contributes zero snippets and is counted, never propagated.
func (s *Ingest) extractAll(
	ctx context.Context,
	repoRef domainservice.RepoRef,
	name, description string,
	files []domainservice.FileRef,
) ([]fileCandidate, int) {
	var (
		mu         sync.Mutex
		candidates []fileCandidate
		failed     int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchConcurrency)

	for _, file := range files {
		g.Go(func() error {
			content, err := s.fetcher.Content(gctx, repoRef, file.Path())
			if err != nil {
				s.logger.Warn("skipping file: fetch failed",
					slog.String("library", name),
					slog.String("path", file.Path()),
					slog.Any("error", err))
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}

			input := domainservice.NewExtractionInput(name, description, file.Path(), content)
			extracted, err := s.extractor.Extract(gctx, input)
			if err != nil {
				s.logger.Warn("skipping file: extraction failed",
					slog.String("library", name),
					slog.String("path", file.Path()),
					slog.Any("error", err))
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			for _, c := range extracted {
				candidates = append(candidates, fileCandidate{path: file.Path(), candidate: c})
			}
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; Wait only surfaces context cancellation.
	_ = g.Wait()

	return candidates, failed
}

// embedAll embeds candidates in bounded concurrent batches. A failing batch
// falls back to embedding its members one at a time so a single bad input
// drops only itself.
func (s *Ingest) embedAll(ctx context.Context, candidates []fileCandidate) ([]embedded, int) {
	var (
		mu      sync.Mutex
		results []embedded
		dropped int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.embedConcurrency)

	for start := 0; start < len(candidates); start += embedBatchSize {
		end := min(start+embedBatchSize, len(candidates))
		batch := candidates[start:end]

		g.Go(func() error {
			batchResults, batchDropped := s.embedBatch(gctx, batch)
			mu.Lock()
			results = append(results, batchResults...)
			dropped += batchDropped
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()

	return results, dropped
}

// embedBatch embeds one batch in a single call, retrying members
// individually if the batch call fails.
func (s *Ingest) embedBatch(ctx context.Context, batch []fileCandidate) ([]embedded, int) {
	texts := make([]string, len(batch))
	for i, fc := range batch {
		texts[i] = fc.candidate.EmbeddingText()
	}

	result, err := s.embedder.Embed(ctx, texts)
	if err == nil {
		vectors := result.Vectors()
		out := make([]embedded, len(batch))
		for i, fc := range batch {
			out[i] = embedded{candidate: fc.candidate, path: fc.path, vector: vectors[i]}
		}
		return out, 0
	}

	s.logger.Warn("batch embedding failed, retrying snippets individually",
		slog.Int("batch_size", len(batch)),
		slog.Any("error", err))

	var (
		out     []embedded
		dropped int
	)
	for _, fc := range batch {
		single, err := s.embedder.Embed(ctx, []string{fc.candidate.EmbeddingText()})
		if err != nil {
			s.logger.Warn("dropping snippet: embedding failed",
				slog.String("path", fc.path),
				slog.String("title", fc.candidate.Title()),
				slog.Any("error", err))
			dropped++
			continue
		}
		out = append(out, embedded{candidate: fc.candidate, path: fc.path, vector: single.Vectors()[0]})
	}
	return out, dropped
}

// commit replaces the library's snippets and registry row. Old snippets and
// vectors are deleted first, then the registry row is replaced, then the new
// rows and vectors are inserted. Snippet rows reference the registry row
// with a cascading foreign key, so the registry replacement must land before
// any new snippet row exists.
func (s *Ingest) commit(
	ctx context.Context,
	name, description string,
	cfg *addConfig,
	sha string,
	fileCount int,
	records []snippet.Record,
) error {
	if err := s.snippets.DeleteLibrarySnippets(ctx, name); err != nil {
		return fmt.Errorf("failed to clear previous snippets for %s: %w", name, err)
	}

	lib, err := library.New(name, description, cfg.ref, sha, cfg.folders)
	if err != nil {
		return err
	}
	lib = lib.WithCounts(fileCount, len(records))

	if err := s.libraries.Replace(ctx, lib); err != nil {
		return fmt.Errorf("failed to update registry for %s: %w", name, err)
	}

	if _, err := s.snippets.InsertSnippets(ctx, records); err != nil {
		return fmt.Errorf("failed to commit snippets for %s: %w", name, err)
	}

	return nil
}
