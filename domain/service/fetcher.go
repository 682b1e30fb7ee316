// Package service defines the interfaces of the pipeline's external
// collaborators: the documentation source and the snippet extractor.
package service

import "context"

// FileRef identifies one documentation blob in a repository tree.
type FileRef struct {
	path string
	sha  string
}

// NewFileRef creates a FileRef.
func NewFileRef(path, sha string) FileRef {
	return FileRef{path: path, sha: sha}
}

// Path returns the file path within the repository.
func (f FileRef) Path() string { return f.path }

// SHA returns the blob hash.
func (f FileRef) SHA() string { return f.sha }

// RepoRef addresses a repository at a specific ref.
type RepoRef struct {
	owner string
	repo  string
	ref   string
}

// NewRepoRef creates a RepoRef. An empty ref means the default branch.
func NewRepoRef(owner, repo, ref string) RepoRef {
	return RepoRef{owner: owner, repo: repo, ref: ref}
}

// Owner returns the repository owner.
func (r RepoRef) Owner() string { return r.owner }

// Repo returns the repository name.
func (r RepoRef) Repo() string { return r.repo }

// Ref returns the branch or tag (empty means default branch).
func (r RepoRef) Ref() string { return r.ref }

// Fetcher retrieves documentation files from a repository source.
type Fetcher interface {
	// Resolve returns the commit SHA for the ref (or the default branch)
	// and the repository description.
	Resolve(ctx context.Context, ref RepoRef) (sha, description string, err error)

	// ListDocFiles lists documentation blobs (.md/.mdx) under the given
	// folder scope at the resolved commit. Empty folders means the whole tree.
	ListDocFiles(ctx context.Context, ref RepoRef, sha string, folders []string) ([]FileRef, error)

	// Content downloads one file's raw text.
	Content(ctx context.Context, ref RepoRef, path string) (string, error)
}
