// Package persistence provides database storage implementations.
package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringSlice is a custom type for JSON serialization of []string columns.
type StringSlice []string

// Scan implements sql.Scanner for reading JSON from the database.
func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}

	return json.Unmarshal(data, s)
}

// Value implements driver.Valuer for writing JSON to the database.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// LibraryModel is the libraries registry row: exactly one per owner/repo.
type LibraryModel struct {
	Name         string      `gorm:"column:name;primaryKey"`
	Description  string      `gorm:"column:description"`
	Owner        string      `gorm:"column:owner"`
	Repo         string      `gorm:"column:repo"`
	SourceRef    string      `gorm:"column:source_ref"`
	CommitSHA    string      `gorm:"column:commit_sha"`
	Folders      StringSlice `gorm:"column:folders;type:json"`
	FileCount    int         `gorm:"column:file_count"`
	SnippetCount int         `gorm:"column:snippet_count"`
	CreatedAt    time.Time   `gorm:"column:created_at"`
}

// TableName implements the gorm table naming convention.
func (LibraryModel) TableName() string { return "libraries" }

// SnippetModel is one extracted snippet row. Rows are immutable after
// insertion and cascade-deleted with their library.
type SnippetModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	LibraryName  string    `gorm:"column:library_name;index;not null"`
	Path         string    `gorm:"column:path"`
	Title        string    `gorm:"column:title"`
	Description  string    `gorm:"column:description"`
	Content      string    `gorm:"column:content"`
	Language     string    `gorm:"column:language"`
	Provider     string    `gorm:"column:provider;index"`
	EmbeddingDim int       `gorm:"column:embedding_dim"`
	CreatedAt    time.Time `gorm:"column:created_at;index"`

	Library LibraryModel `gorm:"foreignKey:LibraryName;references:Name;constraint:OnDelete:CASCADE"`
}

// TableName implements the gorm table naming convention.
func (SnippetModel) TableName() string { return "snippets" }
