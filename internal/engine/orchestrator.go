package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/dshills/patrol/internal/rules"
)

// Input is one file handed to the orchestrator by an upstream producer
// (the bulk scanner or the watch batcher).
type Input struct {
	Path    string
	Content string
}

// FileResult is the merged outcome for one file. When Err is set the
// entry is degraded: analysis was incomplete for the file and Issues
// is empty.
type FileResult struct {
	File   string
	Issues []rules.Issue
	Err    error
}

// TaskStat records per-task execution statistics.
type TaskStat struct {
	TaskID   string
	File     string
	Analyzer string
	Duration time.Duration
	Err      error
}

// BatchStats summarizes a Process call.
type BatchStats struct {
	Tasks     int
	Succeeded int
	Failed    int
	Duration  time.Duration
	PerTask   []TaskStat
}

// SelectFunc chooses the analyzers to run for a file path.
type SelectFunc func(path string) []string

// Orchestrator turns batches of files into tasks, fans them out across
// the pool, and merges the results. Task failures degrade the affected
// file only; the batch always completes.
type Orchestrator struct {
	pool     *Pool
	selector SelectFunc
	log      *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithSelector overrides analyzer selection per file. The default is
// rules.ForFile.
func WithSelector(sel SelectFunc) OrchestratorOption {
	return func(o *Orchestrator) { o.selector = sel }
}

// WithOrchestratorLogger sets the orchestrator's logger.
func WithOrchestratorLogger(log *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.log = log }
}

// NewOrchestrator wires an orchestrator to a started pool.
func NewOrchestrator(pool *Pool, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		pool:     pool,
		selector: rules.ForFile,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// taskRef ties a submitted task to its position in the batch.
type taskRef struct {
	task Task
	fut  *Future
	err  error // submission error (queue full, pool closed)
}

// Process builds one task per (file, analyzer) pair, submits them all,
// and awaits every result. A task that fails, times out, or is
// rejected at submission degrades its file's entry; only the pool
// itself failing is fatal, and that surfaces from Start, not here.
func (o *Orchestrator) Process(ctx context.Context, files []Input, opts rules.Options) ([]FileResult, BatchStats) {
	start := time.Now()

	var refs []taskRef
	fileOf := make(map[string]string) // task ID -> file path
	for _, f := range files {
		for _, analyzer := range o.selector(f.Path) {
			task := Task{
				ID:       NewTaskID(),
				Analyzer: analyzer,
				Payload:  Payload{FilePath: f.Path, Content: f.Content, Options: opts},
			}
			fut, err := o.pool.Submit(task)
			if err != nil {
				o.log.Warn("task submission rejected", "file", f.Path, "analyzer", analyzer, "err", err)
			}
			refs = append(refs, taskRef{task: task, fut: fut, err: err})
			fileOf[task.ID] = f.Path
		}
	}

	// Await every future concurrently; each goroutine writes only its
	// own slot, so the slice needs no locking.
	outcomes := make([]Outcome, len(refs))
	var wg conc.WaitGroup
	for i, ref := range refs {
		if ref.err != nil {
			outcomes[i] = Outcome{TaskID: ref.task.ID, Err: ref.err}
			continue
		}
		wg.Go(func() {
			outcomes[i] = ref.fut.Wait(ctx)
		})
	}
	wg.Wait()

	stats := BatchStats{Tasks: len(refs), Duration: time.Since(start)}
	merged := make(map[string]*FileResult, len(files))
	order := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := merged[f.Path]; ok {
			continue
		}
		merged[f.Path] = &FileResult{File: f.Path}
		order = append(order, f.Path)
	}

	for i, ref := range refs {
		out := outcomes[i]
		stats.PerTask = append(stats.PerTask, TaskStat{
			TaskID:   ref.task.ID,
			File:     ref.task.Payload.FilePath,
			Analyzer: ref.task.Analyzer,
			Duration: out.Duration,
			Err:      out.Err,
		})
		fr := merged[fileOf[ref.task.ID]]
		if out.Err != nil {
			stats.Failed++
			if fr.Err == nil {
				fr.Err = out.Err
			}
			continue
		}
		stats.Succeeded++
		fr.Issues = append(fr.Issues, out.Issues...)
	}

	// A degraded file reports its error and no issues, even when other
	// analyzers for the same file succeeded.
	results := make([]FileResult, 0, len(order))
	for _, path := range order {
		fr := merged[path]
		if fr.Err != nil {
			fr.Issues = nil
		}
		results = append(results, *fr)
	}
	return results, stats
}
