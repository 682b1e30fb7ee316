package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/docvecdev/docvec/domain/library"
	"github.com/docvecdev/docvec/domain/snippet"
	"github.com/docvecdev/docvec/internal/database"
)

// Libraries manages the registry of indexed libraries.
type Libraries struct {
	libraries library.Store
	snippets  snippet.Store
	logger    *slog.Logger
}

// NewLibraries creates a Libraries service.
func NewLibraries(libraries library.Store, snippets snippet.Store, logger *slog.Logger) *Libraries {
	if logger == nil {
		logger = slog.Default()
	}
	return &Libraries{
		libraries: libraries,
		snippets:  snippets,
		logger:    logger,
	}
}

// Get returns one indexed library by owner/repo name.
func (s *Libraries) Get(ctx context.Context, name string) (library.Library, error) {
	lib, err := s.libraries.Get(ctx, name)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return library.Library{}, fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
		}
		return library.Library{}, err
	}
	return lib, nil
}

// List returns all indexed libraries ordered by name.
func (s *Libraries) List(ctx context.Context) ([]library.Library, error) {
	return s.libraries.List(ctx)
}

// Remove deletes a library, its snippets, and its vectors. Removing a
// library that does not exist is an error.
func (s *Libraries) Remove(ctx context.Context, name string) error {
	exists, err := s.libraries.Exists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to look up library %s: %w", name, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
	}

	if err := s.snippets.DeleteLibrarySnippets(ctx, name); err != nil {
		return fmt.Errorf("failed to delete snippets for %s: %w", name, err)
	}

	if err := s.libraries.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to delete library %s: %w", name, err)
	}

	s.logger.Info("library removed", slog.String("library", name))
	return nil
}

// Stats summarizes a library's snippets and vectors.
func (s *Libraries) Stats(ctx context.Context, name string) (snippet.Stats, error) {
	exists, err := s.libraries.Exists(ctx, name)
	if err != nil {
		return snippet.Stats{}, fmt.Errorf("failed to look up library %s: %w", name, err)
	}
	if !exists {
		return snippet.Stats{}, fmt.Errorf("%w: %s", ErrLibraryNotFound, name)
	}

	return s.snippets.LibraryStats(ctx, name)
}

// Health probes metadata and vector storage.
func (s *Libraries) Health(ctx context.Context) snippet.Health {
	return s.snippets.HealthCheck(ctx)
}
