package service

import "errors"

// ErrLibraryNotFound indicates the requested library has not been indexed.
var ErrLibraryNotFound = errors.New("library not found")

// ErrNoEmbedder indicates no embedding provider is configured; queries
// cannot be embedded.
var ErrNoEmbedder = errors.New("no embedding provider configured")

// ErrNoFilesFound indicates the repository tree contains no documentation
// files within the requested folder scope.
var ErrNoFilesFound = errors.New("no documentation files found")
