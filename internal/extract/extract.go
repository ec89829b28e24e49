package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/docdex/docdex/internal/errors"
)

const (
	// DefaultMaxFileSize is the size threshold above which files are skipped.
	DefaultMaxFileSize int64 = 1 << 20 // 1 MiB

	// maxContentRunes bounds the stored content snapshot.
	maxContentRunes = 10000

	// markdownExt marks files that get front-matter and heading extraction.
	markdownExt = ".md"
)

// headingPattern matches markdown heading lines: 1-6 leading '#', spaces, text.
var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// Extractor reads files and produces Document records.
type Extractor struct {
	maxFileSize int64
}

// NewExtractor creates an Extractor with the default size threshold.
func NewExtractor() *Extractor {
	return &Extractor{maxFileSize: DefaultMaxFileSize}
}

// NewExtractorWithMaxSize creates an Extractor with a custom size threshold.
func NewExtractorWithMaxSize(maxFileSize int64) *Extractor {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &Extractor{maxFileSize: maxFileSize}
}

// Extract reads the file at absPath and builds its Document record with a
// path relative to root. Every returned error is skippable: the caller logs
// a warning and moves on, it never aborts the surrounding build.
func (e *Extractor) Extract(absPath, root string) (*Document, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err)
	}

	if info.Size() > e.maxFileSize {
		return nil, errors.Newf(errors.ErrCodeFileTooLarge,
			"file exceeds %d bytes: %s", e.maxFileSize, absPath)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err)
	}

	relPath, err := filepath.Rel(root, absPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, fmt.Errorf("relative path: %w", err))
	}
	relPath = filepath.ToSlash(relPath)

	// Decode errors are tolerated: invalid byte sequences are dropped.
	text := strings.ToValidUTF8(string(data), "")

	sum := sha256.Sum256(data)

	doc := &Document{
		Path:    relPath,
		Size:    info.Size(),
		MTime:   mtimeSeconds(info),
		Hash:    hex.EncodeToString(sum[:]),
		Content: truncateRunes(text, maxContentRunes),
	}

	// Metadata is parsed from the full text; only the stored snapshot is
	// truncated, so heading line numbers past the snapshot survive.
	if strings.EqualFold(filepath.Ext(absPath), markdownExt) {
		doc.Markdown = &MarkdownMeta{
			FrontMatter: ParseFrontMatter(text),
			Headings:    ParseHeadings(text),
		}
	}

	return doc, nil
}

// mtimeSeconds converts the file's modification time to float epoch seconds,
// matching the precision recorded in the snapshot.
func mtimeSeconds(info os.FileInfo) float64 {
	t := info.ModTime()
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// truncateRunes bounds s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ParseFrontMatter captures a leading "---"-delimited block, parsing each
// "key: value" line (split on the first ':', both sides trimmed) into a map.
// Returns nil when the content does not open with a completed block.
func ParseFrontMatter(text string) map[string]string {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 || strings.TrimRight(lines[0], " \t\r") != "---" {
		return nil
	}

	// The closing delimiter must itself be followed by a newline, so the
	// last split element can never close the block. A delimiter on line 2
	// leaves no room for block content and does not count as a block.
	for i := 2; i < len(lines)-1; i++ {
		if strings.TrimRight(lines[i], " \t\r") != "---" {
			continue
		}
		fm := make(map[string]string)
		for _, line := range lines[1:i] {
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			fm[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
		return fm
	}
	return nil
}

// ParseHeadings records every markdown heading with its level (count of
// leading '#'), trimmed text, and 1-based line number.
func ParseHeadings(text string) []Heading {
	headings := []Heading{}
	for i, line := range strings.Split(text, "\n") {
		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		headings = append(headings, Heading{
			Level: len(m[1]),
			Text:  strings.TrimSpace(m[2]),
			Line:  i + 1,
		})
	}
	return headings
}
