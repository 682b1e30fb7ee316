package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widgetModel struct {
	ID   int64  `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name"`
}

func (widgetModel) TableName() string { return "widgets" }

func newMemoryDB(t *testing.T) Database {
	t.Helper()
	db, err := NewDatabase(context.Background(), "sqlite:///:memory:")
	require.NoError(t, err)
	require.NoError(t, db.Session(context.Background()).AutoMigrate(&widgetModel{}))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDatabaseSQLite(t *testing.T) {
	db, err := NewDatabase(context.Background(), "sqlite:///:memory:")
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, db.IsSQLite())
	assert.False(t, db.IsPostgres())
}

func TestNewDatabaseSQLiteSingleConnection(t *testing.T) {
	db, err := NewDatabase(context.Background(), "sqlite:///:memory:")
	require.NoError(t, err)
	defer db.Close()

	sqlDB, err := db.db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections,
		"an in-memory database must stay on one connection")
}

func TestNewDatabaseUnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(context.Background(), "mysql://root@localhost/db")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestWithTransactionCommits(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()

	err := WithTransaction(ctx, db, func(tx *gorm.DB) error {
		return tx.Create(&widgetModel{Name: "kept"}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Session(ctx).Model(&widgetModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := WithTransaction(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Create(&widgetModel{Name: "discarded"}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, db.Session(ctx).Model(&widgetModel{}).Count(&count).Error)
	assert.Zero(t, count, "the insert must be rolled back")
}

func TestWithTransactionResult(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()

	id, err := WithTransactionResult(ctx, db, func(tx *gorm.DB) (int64, error) {
		model := widgetModel{Name: "kept"}
		if err := tx.Create(&model).Error; err != nil {
			return 0, err
		}
		return model.ID, nil
	})
	require.NoError(t, err)
	assert.Positive(t, id)
}

func TestTransactionCommitIsIdempotent(t *testing.T) {
	db := newMemoryDB(t)

	txn, err := NewTransaction(context.Background(), db)
	require.NoError(t, err)
	require.NoError(t, txn.Commit())
	require.NoError(t, txn.Commit())
	require.NoError(t, txn.Rollback(), "rollback after commit is a no-op")
}
