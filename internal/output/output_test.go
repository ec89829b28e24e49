package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdex/docdex/internal/search"
)

func sampleResults() []search.Result {
	return []search.Result{
		{
			File:  "docs/readme.md",
			Score: 140,
			Matches: []search.Match{
				{Kind: search.MatchFilenameExact, Line: 0, Content: "readme.md", Context: []string{}},
				{Kind: search.MatchContent, Line: 3, Content: "install the binary", Context: []string{"install the binary"}},
			},
		},
		{
			File:  "notes.txt",
			Score: 40,
			Matches: []search.Match{
				{Kind: search.MatchContent, Line: 1, Content: "installation", Context: []string{"installation"}},
			},
		},
	}
}

func TestFormatResultsJSON(t *testing.T) {
	out, err := FormatResults(sampleResults(), FormatJSON)
	require.NoError(t, err)

	assert.Contains(t, out, `"total": 2`)
	assert.Contains(t, out, `"file": "docs/readme.md"`)
	assert.Contains(t, out, `"type": "filename_exact"`)
	assert.Contains(t, out, `"line": 3`)
}

func TestFormatResultsJSONEmpty(t *testing.T) {
	out, err := FormatResults(nil, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, out, `"total": 0`)
	assert.Contains(t, out, `"results": []`)
}

func TestFormatResultsJSONKeepsNonASCIILiteral(t *testing.T) {
	results := []search.Result{{
		File:  "中文.md",
		Score: 40,
		Matches: []search.Match{
			{Kind: search.MatchContent, Line: 1, Content: "中文内容", Context: []string{}},
		},
	}}

	out, err := FormatResults(results, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, out, "中文内容")
	assert.NotContains(t, out, `\u`)
}

func TestFormatResultsText(t *testing.T) {
	out, err := FormatResults(sampleResults(), FormatText)
	require.NoError(t, err)

	assert.Contains(t, out, "docs/readme.md (score: 140)")
	assert.Contains(t, out, "L0 [filename_exact]: readme.md")
	assert.Contains(t, out, "L3 [content]: install the binary")
	assert.Contains(t, out, "notes.txt (score: 40)")
}

func TestFormatResultsTextCapsMatches(t *testing.T) {
	result := search.Result{File: "many.txt", Score: 160}
	for i := 1; i <= 5; i++ {
		result.Matches = append(result.Matches, search.Match{
			Kind: search.MatchContent, Line: i, Content: "hit", Context: []string{},
		})
	}

	out, err := FormatResults([]search.Result{result}, FormatText)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "[content]"))
}

func TestFormatResultsTextTruncatesLongLines(t *testing.T) {
	long := strings.Repeat("x", 200)
	results := []search.Result{{
		File:  "long.txt",
		Score: 40,
		Matches: []search.Match{
			{Kind: search.MatchContent, Line: 1, Content: long, Context: []string{}},
		},
	}}

	out, err := FormatResults(results, FormatText)
	require.NoError(t, err)
	assert.Contains(t, out, strings.Repeat("x", 80))
	assert.NotContains(t, out, strings.Repeat("x", 81))
}

func TestFormatResultsFiles(t *testing.T) {
	out, err := FormatResults(sampleResults(), FormatFiles)
	require.NoError(t, err)
	assert.Equal(t, "docs/readme.md\nnotes.txt", out)
}

func TestFormatResultsUnknownFormat(t *testing.T) {
	_, err := FormatResults(nil, "xml")
	assert.Error(t, err)
}

func TestWriterStatus(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Success("done")
	w.Warningf("skipped %d files", 2)
	w.Error("failed")
	w.Plain("plain line")

	out := buf.String()
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "skipped 2 files")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "plain line")
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Progress(15, 30, "indexing")
	assert.Contains(t, buf.String(), "50%")

	buf.Reset()
	w.Progress(30, 30, "indexing")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"), "completed bar ends the line")
}
