package cmd

import (
	"context"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/index"
	"github.com/docdex/docdex/internal/output"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	outputPath string
	types      string
	exclude    string
	full       bool
	tfidf      bool
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index <path>",
		Short: "Build the document index for a directory",
		Long: `Build the document index for a directory.

Builds are incremental by default: files whose modification time has not
advanced past the recorded one are reused from the prior index without
re-extraction. Use --full to rebuild from scratch.

Examples:
  docdex index ./docs
  docdex index ./docs -o docs-index.json
  docdex index ./docs --types md,txt --exclude drafts,archive
  docdex index ./docs --full`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", config.DefaultOutput, "Output index file")
	cmd.Flags().StringVarP(&opts.types, "types", "t", "", "File types to index (comma-separated)")
	cmd.Flags().StringVarP(&opts.exclude, "exclude", "e", "", "Path patterns to exclude (comma-separated)")
	cmd.Flags().BoolVar(&opts.full, "full", false, "Full rebuild, ignoring any existing index")
	cmd.Flags().BoolVar(&opts.tfidf, "tfidf", false, "Report top TF-IDF terms after the build")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, root string, opts indexOptions) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	types := splitList(opts.types)
	if types == nil {
		types = cfg.Types
	}
	exclude := splitList(opts.exclude)
	if exclude == nil {
		exclude = cfg.Index.Exclude
	}

	builder, err := index.NewBuilder()
	if err != nil {
		return err
	}

	slog.Info("index_started", slog.String("root", root), slog.Bool("full", opts.full))

	snap, err := builder.Build(ctx, index.Options{
		RootPath:    root,
		OutputPath:  opts.outputPath,
		Types:       types,
		Exclude:     exclude,
		Incremental: !opts.full,
		Progress: func(done, total int) {
			out.Progress(done, total, "indexing")
		},
	})
	if err != nil {
		return err
	}

	out.Successf("Indexed %d files (%d updated)", snap.Stats.IndexedFiles, snap.Stats.UpdatedFiles)
	if opts.outputPath != "" {
		out.Statusf("", "Index saved to %s", opts.outputPath)
	}

	if opts.tfidf {
		reportTopTerms(out, snap)
	}
	return nil
}

// reportTopTerms prints the strongest TF-IDF terms per indexed document.
func reportTopTerms(out *output.Writer, snap *index.Snapshot) {
	weights := index.TFIDF(snap)

	out.Newline()
	out.Plain("Top terms by TF-IDF:")
	for _, path := range sortedKeys(weights) {
		terms := index.TopTerms(weights[path], 5)
		line := ""
		for i, tw := range terms {
			if i > 0 {
				line += ", "
			}
			line += tw.Term
		}
		out.Statusf("", "%s: %s", path, line)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
