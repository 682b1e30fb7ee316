package persistence

import (
	"context"
	"fmt"

	"github.com/docvecdev/docvec/internal/database"
)

// AutoMigrate creates or updates the metadata schema. The vector fallback
// table is owned by the vector store's own idempotent initialization, not
// by gorm migration.
func AutoMigrate(db database.Database) error {
	ctx := context.Background()

	// SQLite only honours ON DELETE CASCADE with foreign keys enabled.
	if db.IsSQLite() {
		if err := db.Session(ctx).Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	if err := db.Session(ctx).AutoMigrate(&LibraryModel{}, &SnippetModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}
