package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/errors"
	"github.com/docdex/docdex/internal/index"
	"github.com/docdex/docdex/internal/output"
	"github.com/docdex/docdex/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	indexPath    string
	contextLines int
	limit        int
	types        string
	format       string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query> [path]",
		Short: "Run a ranked free-text query",
		Long: `Run a ranked free-text query against an index or a directory.

With --index, candidates come from the saved index file. Without it a
directory path is required and every included file is scanned directly.

Examples:
  docdex search "worker pool" ./docs
  docdex search deployment --index index.json
  docdex search config ./docs --format json --limit 5`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) > 1 {
				root = args[1]
			}
			return runSearch(cmd.Context(), cmd, args[0], root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.indexPath, "index", "i", "", "Saved index file to query")
	cmd.Flags().IntVarP(&opts.contextLines, "context", "c", config.DefaultContextLines, "Context lines around each content match")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", config.DefaultLimit, "Maximum results to return")
	cmd.Flags().StringVarP(&opts.types, "types", "t", "", "File types for direct scans (comma-separated)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", output.FormatText, "Output format: text, json, or files")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query, root string, opts searchOptions) error {
	if opts.indexPath == "" && root == "" {
		return errors.New(errors.ErrCodeNoTarget,
			"nothing to search: provide a directory path or --index", nil)
	}

	cfgRoot := root
	if cfgRoot == "" {
		cfgRoot = "."
	}
	cfg, err := config.Load(cfgRoot)
	if err != nil {
		return err
	}

	var snap *index.Snapshot
	if opts.indexPath != "" {
		snap, err = index.Load(opts.indexPath)
		if err != nil {
			return err
		}
	}

	types := splitList(opts.types)
	if types == nil {
		types = cfg.Types
	}

	engine, err := search.NewEngine(search.Config{
		RootPath: root,
		Snapshot: snap,
		Types:    types,
		Exclude:  cfg.Search.Exclude,
		Weights:  searchWeights(cfg.Search.Weights),
	})
	if err != nil {
		return err
	}

	slog.Debug("search_started",
		slog.String("query", query),
		slog.Bool("indexed", snap != nil))

	results, err := engine.Search(ctx, query, opts.contextLines, opts.limit)
	if err != nil {
		return err
	}

	rendered, err := output.FormatResults(results, opts.format)
	if err != nil {
		return err
	}
	cmd.Println(rendered)
	return nil
}

func searchWeights(w config.WeightsConfig) search.Weights {
	return search.Weights{
		FilenameExact:    w.FilenameExact,
		FilenameContains: w.FilenameContains,
		Title:            w.Title,
		Frontmatter:      w.Frontmatter,
		Heading:          w.Heading,
		Content:          w.Content,
	}
}
