package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/patrol/internal/config"
	"github.com/dshills/patrol/internal/logging"
	"github.com/dshills/patrol/internal/report"
	"github.com/dshills/patrol/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Re-analyze files as they change",
	Long: "Watch the given paths (default: current directory) and run the " +
		"analyzers on each debounced batch of changed files. Runs until " +
		"interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, cfg)

		log := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

		roots := args
		if len(roots) == 0 {
			roots = []string{"."}
		}

		w, err := watch.New(roots,
			watch.WithDebounce(cfg.Watch.Debounce()),
			watch.WithWatchLogger(log))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		w.Start()
		defer w.Stop()

		// Full pass first, then incremental passes per batch.
		rep, err := runAnalysis(cmd.Context(), roots, cfg, "watch", log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if err := report.WriteReport(rep, cfg.Format, flagOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		}

		ctx := cmd.Context()
		for {
			select {
			case <-ctx.Done():
				return nil
			case batch, ok := <-w.Batches():
				if !ok {
					return nil
				}
				batch = existingPaths(batch)
				if len(batch) == 0 {
					continue
				}
				log.Info("changes detected", "files", len(batch))
				rep, err := runAnalysis(ctx, batch, cfg, "watch", log)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					continue
				}
				if err := report.WriteReport(rep, cfg.Format, flagOut); err != nil {
					fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
				}
			}
		}
	},
}

// existingPaths drops batch entries that no longer exist, such as
// deleted or renamed-away files.
func existingPaths(paths []string) []string {
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	addCheckFlags(watchCmd)
}
