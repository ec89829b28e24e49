// Package index builds and persists the document index: it walks a root
// directory, extracts per-file records, reuses prior records for unchanged
// files, and derives the inverted index consumed by the search engine.
package index

import (
	"encoding/json"
	"os"

	"github.com/docdex/docdex/internal/errors"
	"github.com/docdex/docdex/internal/extract"
)

// FormatVersion is the persisted snapshot format version.
const FormatVersion = "1.0"

// Stats summarizes one build pass.
type Stats struct {
	// TotalFiles is the number of qualifying files seen during the walk.
	TotalFiles int `json:"total_files"`
	// IndexedFiles is the number of documents in the snapshot.
	IndexedFiles int `json:"indexed_files"`
	// UpdatedFiles is the number of documents freshly extracted this run.
	UpdatedFiles int `json:"updated_files"`
}

// Snapshot is one built index for one root directory. It is mutated only
// during a build pass and immutable afterwards.
type Snapshot struct {
	Version string `json:"version"`
	// Root is the absolute root path the snapshot was built from.
	Root string `json:"root"`
	// Created is the build timestamp in ISO-8601 form.
	Created string `json:"created"`
	Stats   Stats  `json:"stats"`
	// Docs maps relative path to document record.
	Docs map[string]*extract.Document `json:"docs"`
	// Inverted maps token to its posting list of relative paths, in
	// insertion order, duplicates not removed.
	Inverted map[string][]string `json:"inverted"`
}

// Load reads a persisted snapshot from path.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCorruptIndex, err)
	}
	return &snap, nil
}

// Save writes the snapshot to path as UTF-8 JSON. Non-ASCII characters are
// emitted literally, not escaped.
func (s *Snapshot) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		_ = f.Close()
		return errors.Wrap(errors.ErrCodeInternal, err)
	}
	return f.Close()
}
