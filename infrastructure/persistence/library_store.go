package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/docvecdev/docvec/domain/library"
	"github.com/docvecdev/docvec/domain/query"
	"github.com/docvecdev/docvec/internal/database"
	"gorm.io/gorm"
)

// LibraryStore implements library.Store using GORM.
type LibraryStore struct {
	db     database.Database
	repo   database.Repository[library.Library, LibraryModel]
	mapper LibraryMapper
}

// NewLibraryStore creates a LibraryStore.
func NewLibraryStore(db database.Database) LibraryStore {
	mapper := LibraryMapper{}
	return LibraryStore{
		db:     db,
		repo:   database.NewRepository[library.Library, LibraryModel](db, mapper, "library"),
		mapper: mapper,
	}
}

// Get returns a library by name.
func (s LibraryStore) Get(ctx context.Context, name string) (library.Library, error) {
	var model LibraryModel
	err := s.db.Session(ctx).Where("name = ?", name).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return library.Library{}, fmt.Errorf("%w: library %s", database.ErrNotFound, name)
		}
		return library.Library{}, err
	}
	return s.mapper.ToDomain(model), nil
}

// List returns all libraries matching the given options, by name when no
// ordering is requested.
func (s LibraryStore) List(ctx context.Context, options ...query.Option) ([]library.Library, error) {
	if len(query.Build(options...).Orders()) == 0 {
		options = append(options, query.WithOrderAsc("name"))
	}
	return s.repo.Find(ctx, options...)
}

// Replace deletes any existing row for the library's name and inserts the
// given one, in a single transaction. Exactly one row per name survives.
func (s LibraryStore) Replace(ctx context.Context, lib library.Library) error {
	model := s.mapper.ToModel(lib)
	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Where("name = ?", model.Name).Delete(&LibraryModel{}).Error; err != nil {
			return fmt.Errorf("delete existing library: %w", err)
		}
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("insert library: %w", err)
		}
		return nil
	})
}

// Delete removes a library. Snippet rows cascade at the database level.
func (s LibraryStore) Delete(ctx context.Context, name string) error {
	return s.repo.DeleteBy(ctx, library.WithName(name))
}

// Exists checks if a library is indexed.
func (s LibraryStore) Exists(ctx context.Context, name string) (bool, error) {
	return s.repo.Exists(ctx, library.WithName(name))
}

// Ensure LibraryStore implements library.Store.
var _ library.Store = LibraryStore{}
