package library

import (
	"context"

	"github.com/docvecdev/docvec/domain/query"
)

// Store defines persistence operations for the library registry.
type Store interface {
	// Get returns a library by name.
	Get(ctx context.Context, name string) (Library, error)

	// List returns all libraries matching the given options.
	List(ctx context.Context, options ...query.Option) ([]Library, error)

	// Replace deletes any existing row for the library's name and inserts
	// the given one, in a single transaction.
	Replace(ctx context.Context, lib Library) error

	// Delete removes a library. Snippet rows cascade at the database level.
	Delete(ctx context.Context, name string) error

	// Exists checks if a library is indexed.
	Exists(ctx context.Context, name string) (bool, error)
}

// WithName filters by the "name" column.
func WithName(name string) query.Option {
	return query.WithCondition("name", name)
}
