package index

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/errors"
	"github.com/docdex/docdex/internal/extract"
	"github.com/docdex/docdex/internal/token"
)

const (
	// minTokenLength filters tokens entering the inverted index.
	// Lengths are counted in runes, so single CJK ideographs fall below it.
	minTokenLength = 2

	// maxContentTokens bounds the content contribution per document.
	maxContentTokens = 500

	// extractCacheSize bounds the extraction cache. Repeated builds in
	// watch mode skip re-reading unchanged files without unbounded growth.
	extractCacheSize = 4096
)

// Options configures one build pass.
type Options struct {
	// RootPath is the directory to index.
	RootPath string

	// OutputPath is where the snapshot is persisted. Empty means the
	// snapshot is only returned in memory.
	OutputPath string

	// Types are the included extensions (without leading dot).
	// Defaults to config.DefaultTypes.
	Types []string

	// Exclude are substring patterns; a file whose path contains any of
	// them is skipped. Defaults to config.DefaultIndexExcludes.
	Exclude []string

	// Incremental reuses prior records for files whose mtime has not
	// advanced past the recorded one. This is a heuristic: coarse clock
	// resolution or clock skew can cause stale reuse.
	Incremental bool

	// Workers bounds parallel extraction. Defaults to runtime.NumCPU().
	Workers int

	// Progress, when set, is called after each extracted or reused file.
	Progress func(done, total int)
}

// cachedDoc is one extraction cache entry, validated by size and mtime.
type cachedDoc struct {
	size  int64
	mtime float64
	doc   *extract.Document
}

// Builder walks a root directory and produces index snapshots.
type Builder struct {
	extractor *extract.Extractor
	cache     *lru.Cache[string, cachedDoc]
	cacheMu   sync.Mutex
}

// NewBuilder creates a Builder.
func NewBuilder() (*Builder, error) {
	cache, err := lru.New[string, cachedDoc](extractCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create extraction cache: %w", err)
	}
	return &Builder{
		extractor: extract.NewExtractor(),
		cache:     cache,
	}, nil
}

// candidate is one qualifying file discovered by the walk.
type candidate struct {
	rel   string
	abs   string
	size  int64
	mtime float64
}

// Build runs one indexing pass. Per-file extraction failures are logged and
// skipped; a failed walk at the root is fatal.
func (b *Builder) Build(ctx context.Context, opts Options) (*Snapshot, error) {
	absRoot, err := filepath.Abs(opts.RootPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeWalkFailed, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeWalkFailed, err)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrCodeWalkFailed, "root path is not a directory: %s", absRoot)
	}

	types := typeSet(opts.Types)
	excludes := opts.Exclude
	if excludes == nil {
		excludes = config.DefaultIndexExcludes
	}

	// All reads of the prior snapshot happen once, up front.
	var prior map[string]*extract.Document
	if opts.Incremental && opts.OutputPath != "" {
		if snap, loadErr := Load(opts.OutputPath); loadErr == nil {
			prior = snap.Docs
		} else if !os.IsNotExist(loadErr) {
			slog.Warn("ignoring unreadable prior index",
				slog.String("path", opts.OutputPath),
				slog.String("error", loadErr.Error()))
		}
	}

	files, err := b.discover(ctx, absRoot, types, excludes)
	if err != nil {
		return nil, err
	}

	docs, updated, err := b.extractAll(ctx, absRoot, files, prior, opts)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Version: FormatVersion,
		Root:    absRoot,
		Created: time.Now().Format(time.RFC3339),
		Stats: Stats{
			TotalFiles:   len(files),
			IndexedFiles: len(docs),
			UpdatedFiles: updated,
		},
		Docs:     docs,
		Inverted: buildInverted(docs),
	}

	if opts.OutputPath != "" {
		if err := snap.Save(opts.OutputPath); err != nil {
			return nil, err
		}
		slog.Debug("index saved", slog.String("path", opts.OutputPath))
	}

	slog.Info("index built",
		slog.String("root", absRoot),
		slog.Int("indexed", len(docs)),
		slog.Int("updated", updated))

	return snap, nil
}

// discover walks the root and returns qualifying files in walk order.
func (b *Builder) discover(ctx context.Context, absRoot string, types map[string]struct{}, excludes []string) ([]candidate, error) {
	var files []candidate

	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			if path == absRoot {
				return walkErr
			}
			return nil // skip entries we cannot access
		}

		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && Excluded(rel, excludes) {
				return filepath.SkipDir
			}
			return nil
		}

		if !Included(rel, types, excludes) {
			return nil
		}

		fi, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}

		files = append(files, candidate{
			rel:   rel,
			abs:   path,
			size:  fi.Size(),
			mtime: float64(fi.ModTime().Unix()) + float64(fi.ModTime().Nanosecond())/1e9,
		})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeWalkFailed, err)
	}

	return files, nil
}

// extractAll produces the document set, reusing prior records where the
// mtime has not advanced, and extracting the rest in parallel. A worker
// failure only skips that file.
func (b *Builder) extractAll(ctx context.Context, absRoot string, files []candidate, prior map[string]*extract.Document, opts Options) (map[string]*extract.Document, int, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	docs := make(map[string]*extract.Document, len(files))
	var toExtract []candidate
	done := 0

	for _, f := range files {
		if existing, ok := prior[f.rel]; ok && f.mtime <= existing.MTime {
			docs[f.rel] = existing
			done++
			if opts.Progress != nil {
				opts.Progress(done, len(files))
			}
			continue
		}
		toExtract = append(toExtract, f)
	}

	var (
		mu      sync.Mutex
		updated int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, f := range toExtract {
		f := f
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			doc, err := b.extractCached(f, absRoot)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("skipping file",
					slog.String("path", f.rel),
					slog.String("error", err.Error()))
			} else {
				docs[f.rel] = doc
				updated++
			}
			done++
			if opts.Progress != nil {
				opts.Progress(done, len(files))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return docs, updated, nil
}

// extractCached consults the extraction cache before reading the file.
func (b *Builder) extractCached(f candidate, absRoot string) (*extract.Document, error) {
	b.cacheMu.Lock()
	entry, ok := b.cache.Get(f.abs)
	b.cacheMu.Unlock()
	if ok && entry.size == f.size && entry.mtime == f.mtime {
		return entry.doc, nil
	}

	doc, err := b.extractor.Extract(f.abs, absRoot)
	if err != nil {
		return nil, err
	}

	b.cacheMu.Lock()
	b.cache.Add(f.abs, cachedDoc{size: f.size, mtime: f.mtime, doc: doc})
	b.cacheMu.Unlock()
	return doc, nil
}

// buildInverted derives the inverted index from the document set. Documents
// are processed in sorted-path order so posting lists are reproducible.
func buildInverted(docs map[string]*extract.Document) map[string][]string {
	paths := make([]string, 0, len(docs))
	for p := range docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	inverted := make(map[string][]string)
	for _, path := range paths {
		for _, tok := range documentTokens(docs[path]) {
			inverted[tok] = append(inverted[tok], path)
		}
	}
	return inverted
}

// documentTokens gathers a document's token set in first-seen order from the
// filename stem, heading texts, front-matter values, and the first 500
// content tokens. Tokens shorter than two runes are discarded here, not in
// the tokenizer.
func documentTokens(doc *extract.Document) []string {
	seen := make(map[string]struct{})
	var ordered []string

	add := func(tokens []string) {
		for _, t := range tokens {
			if utf8.RuneCountInString(t) < minTokenLength {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			ordered = append(ordered, t)
		}
	}

	base := filepath.Base(doc.Path)
	add(token.Tokenize(strings.TrimSuffix(base, filepath.Ext(base))))

	if doc.Markdown != nil {
		for _, h := range doc.Markdown.Headings {
			add(token.Tokenize(h.Text))
		}

		fmKeys := make([]string, 0, len(doc.Markdown.FrontMatter))
		for k := range doc.Markdown.FrontMatter {
			fmKeys = append(fmKeys, k)
		}
		sort.Strings(fmKeys)
		for _, k := range fmKeys {
			add(token.Tokenize(doc.Markdown.FrontMatter[k]))
		}
	}

	contentTokens := token.Tokenize(doc.Content)
	if len(contentTokens) > maxContentTokens {
		contentTokens = contentTokens[:maxContentTokens]
	}
	add(contentTokens)

	return ordered
}

// typeSet lowercases the included extensions into a lookup set.
func typeSet(types []string) map[string]struct{} {
	if types == nil {
		types = config.DefaultTypes
	}
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "."))] = struct{}{}
	}
	return set
}

// Included reports whether a relative path qualifies: its lowercased
// extension (without dot) is in the type set and no exclude pattern appears
// as a substring of the path.
func Included(rel string, types map[string]struct{}, excludes []string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(rel), "."))
	if _, ok := types[ext]; !ok {
		return false
	}
	return !Excluded(rel, excludes)
}

// Excluded reports whether any exclude pattern appears as a substring of
// the path. This is plain substring matching, not globbing.
func Excluded(rel string, excludes []string) bool {
	for _, pattern := range excludes {
		if pattern != "" && strings.Contains(rel, pattern) {
			return true
		}
	}
	return false
}
