package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdex/docdex/internal/index"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func directEngine(t *testing.T, root string) *Engine {
	t.Helper()
	e, err := NewEngine(Config{RootPath: root})
	require.NoError(t, err)
	return e
}

func buildSnapshot(t *testing.T, root string) *index.Snapshot {
	t.Helper()
	b, err := index.NewBuilder()
	require.NoError(t, err)
	snap, err := b.Build(context.Background(), index.Options{RootPath: root})
	require.NoError(t, err)
	return snap
}

func TestNewEngineValidation(t *testing.T) {
	_, err := NewEngine(Config{})
	assert.Error(t, err, "neither root nor snapshot")

	_, err = NewEngine(Config{Snapshot: &index.Snapshot{}})
	assert.Error(t, err, "snapshot without resolvable root")

	_, err = NewEngine(Config{RootPath: t.TempDir()})
	assert.NoError(t, err)
}

func TestSearchEmptyQuery(t *testing.T) {
	e := directEngine(t, t.TempDir())
	_, err := e.Search(context.Background(), "   ", 2, 10)
	assert.Error(t, err)
}

func TestFilenameExactOutranksContentHits(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"readme.md": "# Project\n",
		"guide.md":  "see the readme\nand the readme again\n",
	})

	results, err := directEngine(t, root).Search(context.Background(), "readme", 2, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "readme.md", results[0].File)
	assert.Equal(t, 100, results[0].Score)
	require.NotEmpty(t, results[0].Matches)
	assert.Equal(t, MatchFilenameExact, results[0].Matches[0].Kind)
	assert.Equal(t, 0, results[0].Matches[0].Line)

	assert.Equal(t, "guide.md", results[1].File)
	assert.Equal(t, 80, results[1].Score, "two content hits score 2x content weight")
}

func TestFilenameContainsPreemptedByExact(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"readme.md": "x\n"})

	// "readme" matches the stem exactly: only the exact match is emitted.
	results, err := directEngine(t, root).Search(context.Background(), "readme", 2, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Matches, 1)
	assert.Equal(t, MatchFilenameExact, results[0].Matches[0].Kind)

	// "readme.md" is a substring of the filename but not the stem.
	results, err = directEngine(t, root).Search(context.Background(), "readme.md", 2, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, MatchFilenameContains, results[0].Matches[0].Kind)
	assert.Equal(t, 80, results[0].Score)
}

func TestTitleAndHeadingWeights(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"doc.md": "# Install Guide\n\ntext\n\n## Install Steps\n\n### install details\n",
	})

	results, err := directEngine(t, root).Search(context.Background(), "install", 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// 70 (title) + 50 (h2) + 50 (h3); heading lines are excluded from the
	// content pass, so no content contribution.
	assert.Equal(t, 170, results[0].Score)

	kinds := matchKinds(results[0].Matches)
	assert.Equal(t, []MatchKind{MatchTitle, MatchHeading, MatchHeading}, kinds)
	assert.Equal(t, 1, results[0].Matches[0].Line)
	assert.Equal(t, 5, results[0].Matches[1].Line)
	assert.Equal(t, 7, results[0].Matches[2].Line)
}

func TestHeadingChecksOnlyApplyToMarkdown(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"notes.txt": "# install heading lookalike\n",
	})

	results, err := directEngine(t, root).Search(context.Background(), "install", 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// In a non-markdown file the line scores as plain content.
	assert.Equal(t, 40, results[0].Score)
	assert.Equal(t, MatchContent, results[0].Matches[0].Kind)
}

func TestFrontMatterMatch(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"post.md": "---\ntitle: Deploy Notes\nauthor: sam\n---\nbody line\n",
	})

	results, err := directEngine(t, root).Search(context.Background(), "deploy", 1, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, 60, results[0].Score)
	require.Len(t, results[0].Matches, 1)
	m := results[0].Matches[0]
	assert.Equal(t, MatchFrontmatter, m.Kind)
	assert.Equal(t, 2, m.Line)
	assert.Equal(t, "title: Deploy Notes", m.Content)
	assert.Equal(t, []string{"---", "title: Deploy Notes", "author: sam"}, m.Context)
}

func TestFrontMatterSingleMatchOnly(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"post.md": "---\ntag: alpha\nother: alpha\n---\n",
	})

	results, err := directEngine(t, root).Search(context.Background(), "alpha", 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	fmMatches := 0
	for _, m := range results[0].Matches {
		if m.Kind == MatchFrontmatter {
			fmMatches++
		}
	}
	assert.Equal(t, 1, fmMatches, "only the first occurrence in the block is emitted")
}

func TestContentMatchCapAndSaturation(t *testing.T) {
	root := t.TempDir()
	content := ""
	for i := 0; i < 7; i++ {
		content += "needle here\n"
	}
	writeTree(t, root, map[string]string{"hay.txt": content})

	results, err := directEngine(t, root).Search(context.Background(), "needle", 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Seven hits: five materialized, score saturates at 3x weight.
	assert.Len(t, results[0].Matches, 5)
	assert.Equal(t, 120, results[0].Score)
	for _, m := range results[0].Matches {
		assert.Equal(t, MatchContent, m.Kind)
	}
}

func TestContextWindowClipping(t *testing.T) {
	root := t.TempDir()
	// Ten numbered lines; the query hits lines 1 and 10.
	writeTree(t, root, map[string]string{
		"edge.txt": "hit one\nline2\nline3\nline4\nline5\nline6\nline7\nline8\nline9\nhit ten",
	})

	results, err := directEngine(t, root).Search(context.Background(), "hit", 2, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, results[0].Matches, 2)

	first := results[0].Matches[0]
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, []string{"hit one", "line2", "line3"}, first.Context)

	last := results[0].Matches[1]
	assert.Equal(t, 10, last.Line)
	assert.Equal(t, []string{"line8", "line9", "hit ten"}, last.Context)
}

func TestRankingDeterministicTieBreak(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"zeta.txt": "same hit\n",
		"alfa.txt": "same hit\n",
		"mid.txt":  "same hit\n",
	})

	results, err := directEngine(t, root).Search(context.Background(), "same", 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "alfa.txt", results[0].File)
	assert.Equal(t, "mid.txt", results[1].File)
	assert.Equal(t, "zeta.txt", results[2].File)
}

func TestLimitTruncatesResults(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt": "word\n",
		"b.txt": "word\n",
		"c.txt": "word\n",
	})

	results, err := directEngine(t, root).Search(context.Background(), "word", 0, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestNonPositiveLimitSelectsDefault(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt": "word\n",
		"b.txt": "word\n",
	})

	// Zero is not "no results"; it falls back to the default limit.
	results, err := directEngine(t, root).Search(context.Background(), "word", 0, 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = directEngine(t, root).Search(context.Background(), "word", -1, -5)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestDirectScanRespectsExcludes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.txt":          "target\n",
		".git/skip.txt":     "target\n",
		"node_modules/x.js": "target\n",
		".cache/c.txt":      "target\n",
	})

	results, err := directEngine(t, root).Search(context.Background(), "target", 0, 10)
	require.NoError(t, err)

	// The search default exclusion list omits .cache, unlike the builder's.
	files := resultFiles(results)
	assert.ElementsMatch(t, []string{"keep.txt", ".cache/c.txt"}, files)
}

func TestCustomWeights(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"readme.md": "x\n"})

	weights := DefaultWeights()
	weights.FilenameExact = 7
	e, err := NewEngine(Config{RootPath: root, Weights: weights})
	require.NoError(t, err)

	results, err := e.Search(context.Background(), "readme", 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 7, results[0].Score)
}

func TestIndexBackedSearch(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"readme.md": "# Overview\n\ninstall instructions\n",
		"other.txt": "nothing relevant\n",
	})
	snap := buildSnapshot(t, root)

	e, err := NewEngine(Config{Snapshot: snap})
	require.NoError(t, err)

	results, err := e.Search(context.Background(), "install", 2, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "readme.md", results[0].File)
}

func TestIndexFallbackToAllDocs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"readme.md": "# Overview\n",
		"notes.txt": "spreadsheet data\n",
	})
	snap := buildSnapshot(t, root)

	e, err := NewEngine(Config{Snapshot: snap})
	require.NoError(t, err)

	// "eadshee" is a substring of "spreadsheet" but not an indexed token,
	// so candidate selection must fall back to scanning every document.
	results, err := e.Search(context.Background(), "eadshee", 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "notes.txt", results[0].File)
}

func TestIndexToleratesMissingFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"stays.txt": "anchor word\n",
		"gone.txt":  "anchor word\n",
	})
	snap := buildSnapshot(t, root)
	require.NoError(t, os.Remove(filepath.Join(root, "gone.txt")))

	e, err := NewEngine(Config{Snapshot: snap})
	require.NoError(t, err)

	results, err := e.Search(context.Background(), "anchor", 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "stays.txt", results[0].File)
}

func matchKinds(matches []Match) []MatchKind {
	kinds := make([]MatchKind, len(matches))
	for i, m := range matches {
		kinds[i] = m.Kind
	}
	return kinds
}

func resultFiles(results []Result) []string {
	files := make([]string, len(results))
	for i, r := range results {
		files[i] = r.File
	}
	return files
}
