// Package library provides the library domain type: one indexed
// documentation source, identified by owner/repo.
package library

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidName indicates a library name that is not of the form owner/repo.
var ErrInvalidName = errors.New("library name must be of the form owner/repo")

// Library represents one indexed documentation source.
type Library struct {
	name         string
	description  string
	owner        string
	repo         string
	sourceRef    string
	commitSHA    string
	folders      []string
	fileCount    int
	snippetCount int
	createdAt    time.Time
}

// New creates a Library from an owner/repo name. The folders slice scopes
// indexing to the given subtrees; empty means the whole repository.
func New(name, description, sourceRef, commitSHA string, folders []string) (Library, error) {
	owner, repo, err := SplitName(name)
	if err != nil {
		return Library{}, err
	}

	scoped := make([]string, len(folders))
	copy(scoped, folders)

	return Library{
		name:        name,
		description: description,
		owner:       owner,
		repo:        repo,
		sourceRef:   sourceRef,
		commitSHA:   commitSHA,
		folders:     scoped,
		createdAt:   time.Now(),
	}, nil
}

// Reconstruct rebuilds a Library from persistence.
func Reconstruct(
	name, description, owner, repo, sourceRef, commitSHA string,
	folders []string,
	fileCount, snippetCount int,
	createdAt time.Time,
) Library {
	scoped := make([]string, len(folders))
	copy(scoped, folders)

	return Library{
		name:         name,
		description:  description,
		owner:        owner,
		repo:         repo,
		sourceRef:    sourceRef,
		commitSHA:    commitSHA,
		folders:      scoped,
		fileCount:    fileCount,
		snippetCount: snippetCount,
		createdAt:    createdAt,
	}
}

// SplitName splits an owner/repo name into its parts.
func SplitName(name string) (owner, repo string, err error) {
	parts := strings.Split(name, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return parts[0], parts[1], nil
}

// Name returns the owner/repo identifier.
func (l Library) Name() string { return l.name }

// Description returns the library description.
func (l Library) Description() string { return l.description }

// Owner returns the repository owner.
func (l Library) Owner() string { return l.owner }

// Repo returns the repository name.
func (l Library) Repo() string { return l.repo }

// SourceRef returns the branch or tag that was indexed.
func (l Library) SourceRef() string { return l.sourceRef }

// CommitSHA returns the resolved commit hash.
func (l Library) CommitSHA() string { return l.commitSHA }

// Folders returns the folder scope (copy). Empty means the whole repository.
func (l Library) Folders() []string {
	result := make([]string, len(l.folders))
	copy(result, l.folders)
	return result
}

// FileCount returns the number of documentation files indexed.
func (l Library) FileCount() int { return l.fileCount }

// SnippetCount returns the number of snippets extracted.
func (l Library) SnippetCount() int { return l.snippetCount }

// CreatedAt returns the indexing timestamp.
func (l Library) CreatedAt() time.Time { return l.createdAt }

// WithCounts returns a copy with the given file and snippet counts.
func (l Library) WithCounts(files, snippets int) Library {
	l.fileCount = files
	l.snippetCount = snippets
	return l
}

// WithDescription returns a copy with the given description.
func (l Library) WithDescription(description string) Library {
	l.description = description
	return l
}
