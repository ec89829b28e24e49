package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/docdex/docdex/internal/errors"
	"github.com/docdex/docdex/internal/search"
)

// Output formats for search results.
const (
	FormatJSON  = "json"
	FormatText  = "text"
	FormatFiles = "files"
)

// maxMatchesPerResult bounds the matches shown per file in text output.
const maxMatchesPerResult = 3

// maxSnippetRunes bounds the matched-line snippet in text output.
const maxSnippetRunes = 80

// resultList is the JSON envelope for search results.
type resultList struct {
	Total   int             `json:"total"`
	Results []search.Result `json:"results"`
}

// FormatResults renders search results in the requested format.
func FormatResults(results []search.Result, format string) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(results)
	case FormatText:
		return formatText(results), nil
	case FormatFiles:
		return formatFiles(results), nil
	default:
		return "", errors.ValidationError(fmt.Sprintf("unknown output format: %s", format), nil)
	}
}

// formatJSON emits UTF-8 JSON with non-ASCII characters kept literal.
func formatJSON(results []search.Result) (string, error) {
	if results == nil {
		results = []search.Result{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resultList{Total: len(results), Results: results}); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func formatText(results []search.Result) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "\n%s (score: %d)\n", r.File, r.Score)
		for i, m := range r.Matches {
			if i >= maxMatchesPerResult {
				break
			}
			fmt.Fprintf(&b, "  L%d [%s]: %s\n", m.Line, m.Kind, truncate(m.Content, maxSnippetRunes))
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatFiles(results []search.Result) string {
	files := make([]string, len(results))
	for i, r := range results {
		files[i] = r.File
	}
	return strings.Join(files, "\n")
}

// truncate bounds s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
