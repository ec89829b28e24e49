// Package token provides the shared tokenizer used by the index builder
// and the search engine.
package token

import (
	"regexp"
	"strings"
)

var (
	// latinPattern matches runs of ASCII letters, digits, and underscores.
	latinPattern = regexp.MustCompile(`[a-zA-Z0-9_]+`)

	// cjkPattern matches runs of CJK ideographs.
	cjkPattern = regexp.MustCompile(`[\x{4e00}-\x{9fff}]+`)
)

// Tokenize splits text into lowercase tokens. Latin-script runs come first
// in text order, followed by individual CJK ideographs in the order of
// their containing runs. CJK runs are split per character rather than
// word-segmented. No deduplication or length filtering happens here;
// callers apply set semantics and minimum-length rules where needed.
func Tokenize(text string) []string {
	tokens := latinPattern.FindAllString(strings.ToLower(text), -1)
	for _, run := range cjkPattern.FindAllString(text, -1) {
		for _, r := range run {
			tokens = append(tokens, string(r))
		}
	}
	return tokens
}

// NormalizeQuery lowercases and trims a query string and tokenizes it.
// Both forms are used during scoring: the lowercased string for substring
// checks, the tokens for inverted-index candidate lookup.
func NormalizeQuery(query string) (string, []string) {
	return strings.ToLower(strings.TrimSpace(query)), Tokenize(query)
}
