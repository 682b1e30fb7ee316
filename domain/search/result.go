package search

// Match holds a snippet identifier and its distance from the query.
// Distance is 1 - cosine similarity: lower is closer.
type Match struct {
	snippetID int64
	distance  float64
}

// NewMatch creates a Match.
func NewMatch(snippetID int64, distance float64) Match {
	return Match{snippetID: snippetID, distance: distance}
}

// SnippetID returns the snippet identifier.
func (m Match) SnippetID() int64 { return m.snippetID }

// Distance returns the cosine distance (1 - similarity).
func (m Match) Distance() float64 { return m.distance }

// Similarity returns the cosine similarity (1 - distance).
func (m Match) Similarity() float64 { return 1 - m.distance }
