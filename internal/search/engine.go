package search

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/errors"
	"github.com/docdex/docdex/internal/index"
	"github.com/docdex/docdex/internal/token"
)

// Config configures an Engine. Exactly one of Snapshot or RootPath is
// required; when both are set the snapshot's recorded root wins, matching
// the persisted index's view of the corpus.
type Config struct {
	// RootPath is the directory for direct scans, or a fallback root when
	// the snapshot does not record one.
	RootPath string

	// Snapshot enables index-backed candidate selection.
	Snapshot *index.Snapshot

	// Types are the included extensions for direct scans.
	// Defaults to config.DefaultTypes.
	Types []string

	// Exclude are substring patterns for direct scans. Defaults to
	// config.DefaultSearchExcludes, which is configured independently of
	// the builder's exclusion list.
	Exclude []string

	// Weights overrides the score-weight table. Zero value means defaults.
	Weights Weights

	// Workers bounds parallel per-file scoring. Defaults to runtime.NumCPU().
	Workers int
}

// Engine answers ranked free-text queries.
type Engine struct {
	root     string
	snapshot *index.Snapshot
	types    map[string]struct{}
	exclude  []string
	weights  Weights
	workers  int
}

// NewEngine validates the configuration and builds an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Snapshot == nil && cfg.RootPath == "" {
		return nil, errors.New(errors.ErrCodeNoTarget,
			"either a search path or an index is required", nil)
	}

	root := cfg.RootPath
	if cfg.Snapshot != nil && cfg.Snapshot.Root != "" {
		root = cfg.Snapshot.Root
	}
	if root == "" {
		return nil, errors.New(errors.ErrCodeNoTarget,
			"index records no root and no search path was given", nil)
	}

	types := cfg.Types
	if types == nil {
		types = config.DefaultTypes
	}
	typeSet := make(map[string]struct{}, len(types))
	for _, t := range types {
		typeSet[normalizeExt(t)] = struct{}{}
	}

	exclude := cfg.Exclude
	if exclude == nil {
		exclude = config.DefaultSearchExcludes
	}

	weights := cfg.Weights
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Engine{
		root:     root,
		snapshot: cfg.Snapshot,
		types:    typeSet,
		exclude:  exclude,
		weights:  weights,
		workers:  workers,
	}, nil
}

// Search runs one query and returns up to limit results ranked by score
// descending, ties broken by path ascending. A non-positive limit and a
// negative contextLines both select the package defaults; callers wanting
// zero results should not call Search.
func (e *Engine) Search(ctx context.Context, query string, contextLines, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = config.DefaultLimit
	}
	if contextLines < 0 {
		contextLines = config.DefaultContextLines
	}

	queryLower, queryTokens := token.NormalizeQuery(query)
	if queryLower == "" {
		return nil, errors.ValidationError("empty query", nil)
	}

	var candidates []string
	var err error
	if e.snapshot != nil {
		candidates = e.indexCandidates(queryTokens)
	} else {
		candidates, err = e.scanCandidates(ctx)
		if err != nil {
			return nil, err
		}
	}

	results, err := e.scoreAll(ctx, candidates, queryLower, contextLines)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].File < results[j].File
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// indexCandidates unions the posting lists of every query token. An empty
// union falls back to the entire document set, so substring queries with no
// token overlap still scan everything.
func (e *Engine) indexCandidates(queryTokens []string) []string {
	set := make(map[string]struct{})
	for _, tok := range queryTokens {
		for _, path := range e.snapshot.Inverted[tok] {
			set[path] = struct{}{}
		}
	}

	if len(set) == 0 {
		for path := range e.snapshot.Docs {
			set[path] = struct{}{}
		}
	}

	candidates := make([]string, 0, len(set))
	for path := range set {
		// Postings may reference paths pruned from the document set.
		if _, ok := e.snapshot.Docs[path]; ok {
			candidates = append(candidates, path)
		}
	}
	sort.Strings(candidates)
	return candidates
}

// scanCandidates walks the root and returns every file passing the
// inclusion rule, in walk order.
func (e *Engine) scanCandidates(ctx context.Context) ([]string, error) {
	var candidates []string

	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			if path == e.root {
				return walkErr
			}
			return nil
		}

		rel, relErr := filepath.Rel(e.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && index.Excluded(rel, e.exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		if index.Included(rel, e.types, e.exclude) {
			candidates = append(candidates, rel)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeWalkFailed, err)
	}

	return candidates, nil
}

// scoreAll scores candidates in parallel and collects the non-empty
// results. Ordering is restored by the caller's sort; a failed read only
// skips that candidate.
func (e *Engine) scoreAll(ctx context.Context, candidates []string, queryLower string, contextLines int) ([]Result, error) {
	var (
		mu      sync.Mutex
		results []Result
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, rel := range candidates {
		rel := rel
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			abs := filepath.Join(e.root, filepath.FromSlash(rel))
			result := e.searchInFile(abs, rel, queryLower, contextLines)
			if result != nil {
				mu.Lock()
				results = append(results, *result)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// normalizeExt lowercases an extension and strips a leading dot.
func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
