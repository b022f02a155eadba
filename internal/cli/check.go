package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/patrol/internal/cache"
	"github.com/dshills/patrol/internal/config"
	"github.com/dshills/patrol/internal/engine"
	"github.com/dshills/patrol/internal/gitctx"
	"github.com/dshills/patrol/internal/logging"
	"github.com/dshills/patrol/internal/redact"
	"github.com/dshills/patrol/internal/reduce"
	"github.com/dshills/patrol/internal/report"
	"github.com/dshills/patrol/internal/rules"
	"github.com/dshills/patrol/internal/scanner"
)

// Shared check flags
var (
	flagStaged    bool
	flagUnstaged  bool
	flagRange     string
	flagMergeBase bool
	flagInclude   string
	flagExclude   string
	flagFormat    string
	flagOut       string
	flagFailOn    string
	flagAnalyzers string
	flagWorkers   int
	flagNoCache   bool
	flagNoRedact  bool
)

func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&flagStaged, "staged", false, "Check staged changes (index vs HEAD)")
	cmd.Flags().BoolVar(&flagUnstaged, "unstaged", false, "Check unstaged and untracked changes")
	cmd.Flags().StringVar(&flagRange, "range", "", "Check a revision range (e.g., origin/main..HEAD)")
	cmd.Flags().BoolVar(&flagMergeBase, "merge-base", true, "Use merge base for range comparisons")
	cmd.Flags().StringVar(&flagInclude, "include", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif, junit)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, low, medium, high)")
	cmd.Flags().StringVar(&flagAnalyzers, "analyzers", "", "Restrict to specific analyzers (comma-separated)")
	cmd.Flags().IntVar(&flagWorkers, "workers", 0, "Number of analysis workers")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the result cache")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable snippet redaction (use with caution)")
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("format") {
		cfg.Format = flagFormat
	}
	if cmd.Flags().Changed("fail-on") {
		cfg.FailOn = flagFailOn
	}
	if cmd.Flags().Changed("include") {
		cfg.Include = splitComma(flagInclude)
	}
	if cmd.Flags().Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, splitComma(flagExclude)...)
	}
	if cmd.Flags().Changed("analyzers") {
		cfg.Analyzers = splitComma(flagAnalyzers)
	}
	if cmd.Flags().Changed("workers") && flagWorkers > 0 {
		cfg.Engine.Workers = flagWorkers
	}
	if flagNoCache {
		cfg.Cache.Enabled = false
	}
	if flagNoRedact {
		cfg.Privacy.RedactSnippets = false
		fmt.Fprintln(os.Stderr, "WARNING: snippet redaction is disabled")
	}
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Analyze files and report issues",
	Long: "Analyze the given paths (default: current directory) with the " +
		"configured analyzers. Use --staged, --unstaged, or --range to " +
		"check only files git reports as changed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, cfg)

		log := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

		roots, mode, err := resolveRoots(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if len(roots) == 0 {
			fmt.Fprintln(os.Stderr, "No files to check.")
			return nil
		}

		rep, err := runAnalysis(cmd.Context(), roots, cfg, mode, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		if err := report.WriteReport(rep, cfg.Format, flagOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		if rep.MeetsThreshold(cfg.FailOn) {
			exitCode = ExitIssues
		}
		return nil
	},
}

// resolveRoots turns the command arguments and git-mode flags into the
// set of paths to scan, plus the mode label for the report.
func resolveRoots(args []string) ([]string, string, error) {
	switch {
	case flagStaged:
		files, err := gitctx.StagedFiles()
		return files, "staged", err
	case flagUnstaged:
		files, err := gitctx.UnstagedFiles()
		return files, "unstaged", err
	case flagRange != "":
		files, err := gitctx.RangeFiles(flagRange, flagMergeBase)
		return files, "range", err
	default:
		if len(args) == 0 {
			args = []string{"."}
		}
		return args, "paths", nil
	}
}

// analyzerSelector returns the per-file analyzer selection honoring
// the configured allowlist.
func analyzerSelector(cfg *config.Config) engine.SelectFunc {
	if len(cfg.Analyzers) == 0 {
		return rules.ForFile
	}
	allowed := make(map[string]bool, len(cfg.Analyzers))
	for _, name := range cfg.Analyzers {
		allowed[name] = true
	}
	return func(path string) []string {
		var names []string
		for _, name := range rules.ForFile(path) {
			if allowed[name] {
				names = append(names, name)
			}
		}
		return names
	}
}

// runAnalysis is the shared pipeline behind check and watch: scan,
// consult the cache, run the engine over the misses, post-process, and
// assemble the report.
func runAnalysis(ctx context.Context, roots []string, cfg *config.Config, mode string, log *slog.Logger) (*report.Report, error) {
	files, err := scanner.Scan(roots, scanner.Options{
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
		MaxFileBytes: cfg.MaxFileBytes,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}

	selector := analyzerSelector(cfg)

	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, err
	}

	// Partition into cache hits and files that need analysis.
	contents := make(map[string]string, len(files))
	cacheKeys := make(map[string]string, len(files))
	var cached []engine.FileResult
	var misses []engine.Input
	for _, f := range files {
		contents[f.Path] = f.Content
		key := cache.BuildCacheKey(f.Content, selector(f.Path))
		cacheKeys[f.Path] = key
		if issues, ok := c.Get(key); ok {
			cached = append(cached, engine.FileResult{File: f.Path, Issues: issues})
			continue
		}
		misses = append(misses, engine.Input{Path: f.Path, Content: f.Content})
	}
	log.Debug("scan complete", "files", len(files), "cached", len(cached), "to_analyze", len(misses))

	var fresh []engine.FileResult
	var stats engine.BatchStats
	if len(misses) > 0 {
		pool, err := engine.Start(engine.Config{
			MaxWorkers:     cfg.Engine.Workers,
			QueueCapacity:  cfg.Engine.QueueCapacity,
			PerTaskTimeout: cfg.Engine.TaskTimeout(),
			ShutdownGrace:  cfg.Engine.ShutdownGrace(),
			RespawnBudget:  cfg.Engine.RespawnBudget,
		}, engine.WithLogger(log))
		if err != nil {
			return nil, err
		}
		defer pool.Shutdown()

		orch := engine.NewOrchestrator(pool,
			engine.WithSelector(selector),
			engine.WithOrchestratorLogger(log))
		fresh, stats = orch.Process(ctx, misses, rules.Options{MaxIssuesPerFile: cfg.MaxIssuesPerFile})

		// Degraded results are never cached.
		for _, r := range fresh {
			if r.Err != nil {
				continue
			}
			if err := c.Put(cacheKeys[r.File], r.Issues); err != nil {
				log.Warn("cache write failed", "file", r.File, "error", err)
			}
		}
	}

	results := append(cached, fresh...)
	sort.SliceStable(results, func(i, j int) bool { return results[i].File < results[j].File })

	results = reduce.Apply(results, contents, reduce.Options{
		MinSeverity: rules.Severity(cfg.MinSeverity),
		Suppress:    true,
	})

	if cfg.Privacy.RedactSnippets {
		for i := range results {
			results[i].Issues = redact.Issues(results[i].Issues, cfg.Privacy.RedactPaths)
		}
	}

	meta := report.Meta{Mode: mode, Version: version}
	if repo, err := gitctx.GetRepoMeta(); err == nil {
		meta.Repo = report.RepoInfo{Root: repo.Root, Head: repo.Head, Branch: repo.Branch}
	}
	return report.Build(results, stats, meta), nil
}

func init() {
	addCheckFlags(checkCmd)
}
