package search

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// maxContentMatches bounds how many content hits are materialized.
	maxContentMatches = 5

	// contentScoreCap saturates the content score multiplier. Hits past
	// maxContentMatches still count toward the multiplier, just not as
	// displayed matches.
	contentScoreCap = 3
)

// headingLinePattern identifies heading lines during scoring. Unlike the
// extractor's pattern it requires no text after the marker.
var headingLinePattern = regexp.MustCompile(`^#{1,6}\s+`)

// searchInFile scores one candidate file against the lowercased query.
// Returns nil when the file yields no matches or cannot be read; a stale
// index entry whose file vanished is silently skipped.
func (e *Engine) searchInFile(absPath, relPath, queryLower string, contextLines int) *Result {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil
	}

	text := strings.ToValidUTF8(string(data), "")
	lines := strings.Split(text, "\n")

	var matches []Match
	score := 0

	base := filepath.Base(relPath)
	filename := strings.ToLower(base)
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))

	// Filename pass: exact stem match preempts the contains match.
	if queryLower == stem {
		score += e.weights.FilenameExact
		matches = append(matches, Match{
			Kind:    MatchFilenameExact,
			Line:    0,
			Content: base,
			Context: []string{},
		})
	} else if strings.Contains(filename, queryLower) {
		score += e.weights.FilenameContains
		matches = append(matches, Match{
			Kind:    MatchFilenameContains,
			Line:    0,
			Content: base,
			Context: []string{},
		})
	}

	// Markdown-only passes: front-matter and headings.
	if strings.EqualFold(filepath.Ext(relPath), ".md") {
		if m := e.frontMatterMatch(lines, queryLower, contextLines); m != nil {
			score += e.weights.Frontmatter
			matches = append(matches, *m)
		}

		for i, line := range lines {
			if !headingLinePattern.MatchString(line) {
				continue
			}
			if !strings.Contains(strings.ToLower(line), queryLower) {
				continue
			}
			level := headingLevel(line)
			kind := MatchHeading
			if level == 1 {
				kind = MatchTitle
				score += e.weights.Title
			} else {
				score += e.weights.Heading
			}
			matches = append(matches, Match{
				Kind:    kind,
				Line:    i + 1,
				Content: line,
				Context: contextWindow(lines, i+1, contextLines),
			})
		}
	}

	// Content pass: lines already matched above are skipped. Only the
	// first maxContentMatches hits become Match objects, but every hit
	// counts toward the capped score multiplier.
	contentHits := 0
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), queryLower) {
			continue
		}
		if lineMatched(matches, i+1) {
			continue
		}
		contentHits++
		if contentHits <= maxContentMatches {
			matches = append(matches, Match{
				Kind:    MatchContent,
				Line:    i + 1,
				Content: strings.TrimSpace(line),
				Context: contextWindow(lines, i+1, contextLines),
			})
		}
	}
	if contentHits > 0 {
		score += e.weights.Content * min(contentHits, contentScoreCap)
	}

	if len(matches) == 0 {
		return nil
	}

	return &Result{
		File:    relPath,
		Score:   score,
		Matches: matches,
	}
}

// frontMatterMatch scans a leading front-matter block case-insensitively
// for the query. At most one match is emitted, at the line of the first
// occurrence within the block.
func (e *Engine) frontMatterMatch(lines []string, queryLower string, contextLines int) *Match {
	if len(lines) < 3 || strings.TrimRight(lines[0], " \t\r") != "---" {
		return nil
	}

	end := -1
	for i := 2; i < len(lines)-1; i++ {
		if strings.TrimRight(lines[i], " \t\r") == "---" {
			end = i
			break
		}
	}
	if end < 0 {
		return nil
	}

	for i, line := range lines[1:end] {
		if !strings.Contains(strings.ToLower(line), queryLower) {
			continue
		}
		// Block content starts at file line 2.
		lineNum := i + 2
		return &Match{
			Kind:    MatchFrontmatter,
			Line:    lineNum,
			Content: line,
			Context: contextWindow(lines, lineNum, contextLines),
		}
	}
	return nil
}

// contextWindow returns up to contextLines lines before and after the
// 1-based match line, clipped to file bounds.
func contextWindow(lines []string, lineNum, contextLines int) []string {
	start := lineNum - contextLines - 1
	if start < 0 {
		start = 0
	}
	end := lineNum + contextLines
	if end > len(lines) {
		end = len(lines)
	}
	window := make([]string, end-start)
	copy(window, lines[start:end])
	return window
}

// lineMatched reports whether the 1-based line already has a match.
func lineMatched(matches []Match, lineNum int) bool {
	for _, m := range matches {
		if m.Line == lineNum {
			return true
		}
	}
	return false
}

// headingLevel counts leading '#' characters.
func headingLevel(line string) int {
	level := 0
	for _, r := range line {
		if r != '#' {
			break
		}
		level++
	}
	return level
}
