package persistence

import (
	"github.com/docvecdev/docvec/domain/library"
	"github.com/docvecdev/docvec/domain/search"
	"github.com/docvecdev/docvec/domain/snippet"
)

// LibraryMapper maps between library.Library and LibraryModel.
type LibraryMapper struct{}

// ToDomain converts a model to the domain type.
func (LibraryMapper) ToDomain(m LibraryModel) library.Library {
	return library.Reconstruct(
		m.Name,
		m.Description,
		m.Owner,
		m.Repo,
		m.SourceRef,
		m.CommitSHA,
		m.Folders,
		m.FileCount,
		m.SnippetCount,
		m.CreatedAt,
	)
}

// ToModel converts a domain type to the model.
func (LibraryMapper) ToModel(l library.Library) LibraryModel {
	return LibraryModel{
		Name:         l.Name(),
		Description:  l.Description(),
		Owner:        l.Owner(),
		Repo:         l.Repo(),
		SourceRef:    l.SourceRef(),
		CommitSHA:    l.CommitSHA(),
		Folders:      l.Folders(),
		FileCount:    l.FileCount(),
		SnippetCount: l.SnippetCount(),
		CreatedAt:    l.CreatedAt(),
	}
}

// SnippetMapper maps between snippet.Snippet and SnippetModel.
type SnippetMapper struct{}

// ToDomain converts a model to the domain type.
func (SnippetMapper) ToDomain(m SnippetModel) snippet.Snippet {
	return snippet.Reconstruct(
		m.ID,
		m.LibraryName,
		m.Path,
		m.Title,
		m.Description,
		m.Content,
		m.Language,
		search.Provider(m.Provider),
		m.EmbeddingDim,
		m.CreatedAt,
	)
}

// ToModel converts a domain type to the model.
func (SnippetMapper) ToModel(s snippet.Snippet) SnippetModel {
	return SnippetModel{
		ID:           s.ID(),
		LibraryName:  s.LibraryName(),
		Path:         s.Path(),
		Title:        s.Title(),
		Description:  s.Description(),
		Content:      s.Content(),
		Language:     s.Language(),
		Provider:     s.Provider().String(),
		EmbeddingDim: s.EmbeddingDim(),
		CreatedAt:    s.CreatedAt(),
	}
}
