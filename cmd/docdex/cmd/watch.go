package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/index"
	"github.com/docdex/docdex/internal/output"
	"github.com/docdex/docdex/internal/watch"
)

// watchOptions holds CLI flags for watch.
type watchOptions struct {
	outputPath string
	types      string
	exclude    string
	debounce   time.Duration
}

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch <path>",
		Short: "Keep the index current as files change",
		Long: `Keep the index current as files change.

Performs an initial build, then watches the directory tree and rebuilds
incrementally whenever a debounced batch of file events arrives. Stop
with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", config.DefaultOutput, "Output index file")
	cmd.Flags().StringVarP(&opts.types, "types", "t", "", "File types to index (comma-separated)")
	cmd.Flags().StringVarP(&opts.exclude, "exclude", "e", "", "Path patterns to exclude (comma-separated)")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "Quiet window before rebuilding")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, root string, opts watchOptions) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	buildOpts := index.Options{
		RootPath:    root,
		OutputPath:  opts.outputPath,
		Types:       types,
		Exclude:     exclude,
		Incremental: true,
	}

	snap, err := builder.Build(ctx, buildOpts)
	if err != nil {
		return err
	}
	out.Successf("Indexed %d files, watching %s", snap.Stats.IndexedFiles, root)

	watcher, err := watch.New(watch.Options{
		DebounceWindow: opts.debounce,
		Exclude:        exclude,
	})
	if err != nil {
		return err
	}
	defer watcher.Stop()

	if err := watcher.Start(ctx, root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			out.Newline()
			out.Status("", "Stopped")
			return nil
		case batch, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			slog.Debug("rebuild_triggered", slog.Int("events", len(batch)))
			snap, err := builder.Build(ctx, buildOpts)
			if err != nil {
				out.Errorf("Rebuild failed: %s", err)
				continue
			}
			out.Statusf("", "Reindexed %d files (%d updated)",
				snap.Stats.IndexedFiles, snap.Stats.UpdatedFiles)
		}
	}
}
