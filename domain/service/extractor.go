package service

import "context"

// Candidate is one extracted snippet before embedding. Malformed extractor
// output never produces a Candidate; it is filtered silently.
type Candidate struct {
	title       string
	description string
	language    string
	code        string
}

// NewCandidate creates a Candidate.
func NewCandidate(title, description, language, code string) Candidate {
	return Candidate{title: title, description: description, language: language, code: code}
}

// Title returns the snippet title.
func (c Candidate) Title() string { return c.title }

// Description returns the snippet description.
func (c Candidate) Description() string { return c.description }

// Language returns the source language tag.
func (c Candidate) Language() string { return c.language }

// Code returns the code body.
func (c Candidate) Code() string { return c.code }

// EmbeddingText returns the text that is embedded for this candidate:
// title and description carry the searchable meaning, code carries the
// retrievable payload.
func (c Candidate) EmbeddingText() string {
	return c.title + "\n" + c.description + "\n" + c.code
}

// ExtractionInput describes one file handed to the extractor.
type ExtractionInput struct {
	libraryName string
	description string
	path        string
	content     string
}

// NewExtractionInput creates an ExtractionInput.
func NewExtractionInput(libraryName, description, path, content string) ExtractionInput {
	return ExtractionInput{
		libraryName: libraryName,
		description: description,
		path:        path,
		content:     content,
	}
}

// LibraryName returns the owner/repo name.
func (e ExtractionInput) LibraryName() string { return e.libraryName }

// Description returns the library description.
func (e ExtractionInput) Description() string { return e.description }

// Path returns the file path.
func (e ExtractionInput) Path() string { return e.path }

// Content returns the raw file text.
func (e ExtractionInput) Content() string { return e.content }

// Extractor turns one documentation file into snippet candidates.
// Empty content yields an empty slice, not an error.
type Extractor interface {
	Extract(ctx context.Context, input ExtractionInput) ([]Candidate, error)
}
