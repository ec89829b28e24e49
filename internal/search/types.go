// Package search implements the query engine: candidate selection against
// an index snapshot or a raw directory, multi-strategy per-file scoring,
// and deterministic ranking.
package search

// MatchKind identifies where inside a file a match was found.
type MatchKind string

const (
	MatchFilenameExact    MatchKind = "filename_exact"
	MatchFilenameContains MatchKind = "filename_contains"
	MatchTitle            MatchKind = "title"
	MatchHeading          MatchKind = "heading"
	MatchFrontmatter      MatchKind = "frontmatter"
	MatchContent          MatchKind = "content"
)

// Match is a single located occurrence inside one file. Line is 1-based and
// zero for matches with no line, such as filename matches.
type Match struct {
	Kind    MatchKind `json:"type"`
	Line    int       `json:"line"`
	Content string    `json:"content"`
	Context []string  `json:"context"`
}

// Result is one scored file. A result exists only for files with at least
// one match.
type Result struct {
	File    string  `json:"file"`
	Score   int     `json:"score"`
	Matches []Match `json:"matches"`
}

// Weights is the immutable score-weight table the engine is constructed
// with. Tests substitute alternate weightings through it.
type Weights struct {
	FilenameExact    int
	FilenameContains int
	Title            int
	Frontmatter      int
	Heading          int
	Content          int
}

// DefaultWeights returns the standard weight table.
func DefaultWeights() Weights {
	return Weights{
		FilenameExact:    100,
		FilenameContains: 80,
		Title:            70,
		Frontmatter:      60,
		Heading:          50,
		Content:          40,
	}
}
