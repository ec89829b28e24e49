// Package extract reads a single file and produces a structured document
// record: content hash, size, modification time, a bounded content snapshot,
// and markdown-specific metadata where applicable.
package extract

import "encoding/json"

// Heading is one markdown heading with its 1-based source line.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Line  int    `json:"line"`
}

// MarkdownMeta is the markdown-specific payload of a Document.
// FrontMatter is nil when the file has no leading front-matter block.
// Headings is always non-nil for markdown files, possibly empty.
type MarkdownMeta struct {
	FrontMatter map[string]string
	Headings    []Heading
}

// Document is one extracted file record. It is built by the extractor,
// owned by the index builder during construction, and read-only once
// placed in a snapshot.
//
// Markdown is nil for non-markdown files. On disk the payload flattens
// into the sibling "frontmatter" and "headings" fields (see MarshalJSON),
// so the persisted shape stays a single flat record per file.
type Document struct {
	Path     string
	Size     int64
	MTime    float64 // epoch seconds, float precision
	Hash     string
	Content  string
	Markdown *MarkdownMeta
}

// documentJSON is the persisted shape of a Document. The headings field is
// a pointer so it can stay absent for non-markdown files while serializing
// as an empty array for markdown files without headings.
type documentJSON struct {
	Path        string            `json:"path"`
	Size        int64             `json:"size"`
	MTime       float64           `json:"mtime"`
	Hash        string            `json:"hash"`
	Content     string            `json:"content"`
	FrontMatter map[string]string `json:"frontmatter,omitempty"`
	Headings    *[]Heading        `json:"headings,omitempty"`
}

// MarshalJSON flattens the markdown payload into the persisted record.
func (d Document) MarshalJSON() ([]byte, error) {
	out := documentJSON{
		Path:    d.Path,
		Size:    d.Size,
		MTime:   d.MTime,
		Hash:    d.Hash,
		Content: d.Content,
	}
	if d.Markdown != nil {
		out.FrontMatter = d.Markdown.FrontMatter
		headings := d.Markdown.Headings
		if headings == nil {
			headings = []Heading{}
		}
		out.Headings = &headings
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the markdown payload from the persisted record.
func (d *Document) UnmarshalJSON(data []byte) error {
	var in documentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d.Path = in.Path
	d.Size = in.Size
	d.MTime = in.MTime
	d.Hash = in.Hash
	d.Content = in.Content
	d.Markdown = nil
	if in.Headings != nil || in.FrontMatter != nil {
		headings := []Heading{}
		if in.Headings != nil {
			headings = *in.Headings
		}
		d.Markdown = &MarkdownMeta{
			FrontMatter: in.FrontMatter,
			Headings:    headings,
		}
	}
	return nil
}
