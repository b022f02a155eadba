package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/patrol/internal/rules"
)

// workerState tracks a worker's lifecycle as seen by the coordinator.
type workerState int

const (
	workerStarting workerState = iota
	workerIdle
	workerBusy
	workerShuttingDown
	workerTerminated
)

func (s workerState) String() string {
	switch s {
	case workerStarting:
		return "starting"
	case workerIdle:
		return "idle"
	case workerBusy:
		return "busy"
	case workerShuttingDown:
		return "shutting-down"
	case workerTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// msgKind identifies an outbound worker message.
type msgKind int

const (
	msgReady msgKind = iota
	msgResult
	msgError
	msgShutdownComplete
	msgExited
)

// workerMsg is a message from a worker to the coordinator. A worker
// sends its messages sequentially, so per-worker FIFO order is
// preserved on the shared channel.
type workerMsg struct {
	kind     msgKind
	workerID int
	taskID   string
	issues   []rules.Issue
	duration time.Duration
	err      error
	panicVal any
}

// cmdKind identifies an inbound worker command.
type cmdKind int

const (
	cmdTask cmdKind = iota
	cmdShutdown
)

// workerCmd is a message from the coordinator to a worker.
type workerCmd struct {
	kind cmdKind
	task Task
}

// ExecFunc runs one task and returns its issues. The pool installs a
// default that dispatches through the rules registry; tests inject
// slow, failing, or crashing implementations.
type ExecFunc func(task Task) ([]rules.Issue, error)

// defaultExec dispatches over the closed analyzer registry. An
// unrecognized analyzer name yields an empty result rather than an
// error, so a stale task name cannot fail the batch.
func defaultExec(task Task) ([]rules.Issue, error) {
	return rules.Run(task.Analyzer, task.Payload.FilePath, task.Payload.Content, task.Payload.Options), nil
}

// workerHandle is the coordinator's record of one worker. It is
// mutated only by the coordinator goroutine.
type workerHandle struct {
	id          int
	state       workerState
	currentTask string // task ID, set iff state is workerBusy
	inbox       chan workerCmd
}

// worker is the execution side: a goroutine with private state that
// processes one task at a time from its inbox and reports on the
// shared outbox.
type worker struct {
	id    int
	inbox <-chan workerCmd
	out   chan<- workerMsg
	quit  <-chan struct{}
	exec  ExecFunc
	setup func(int) error
	log   *slog.Logger
}

// send delivers a message to the coordinator. Once the pool is done an
// abandoned worker's messages are dropped so its goroutine can unwind
// instead of blocking forever.
func (w *worker) send(m workerMsg) {
	select {
	case w.out <- m:
	case <-w.quit:
	}
}

// run is the worker goroutine body. It performs one-time setup,
// announces readiness, then serves tasks strictly in arrival order
// until told to shut down. The exit notice in the deferred handler is
// how the coordinator observes both clean termination and crashes.
func (w *worker) run() {
	var setupErr error
	defer func() {
		w.send(workerMsg{kind: msgExited, workerID: w.id, err: setupErr, panicVal: recover()})
	}()

	if w.setup != nil {
		if err := w.setup(w.id); err != nil {
			setupErr = err
			return
		}
	}

	w.send(workerMsg{kind: msgReady, workerID: w.id})
	w.log.Debug("worker ready", "worker", w.id)

	for cmd := range w.inbox {
		switch cmd.kind {
		case cmdTask:
			start := time.Now()
			issues, err := w.execute(cmd.task)
			if err != nil {
				w.send(workerMsg{
					kind:     msgError,
					workerID: w.id,
					taskID:   cmd.task.ID,
					duration: time.Since(start),
					err:      err,
				})
				continue
			}
			w.send(workerMsg{
				kind:     msgResult,
				workerID: w.id,
				taskID:   cmd.task.ID,
				issues:   issues,
				duration: time.Since(start),
			})
		case cmdShutdown:
			// No task message accepted past this point.
			w.send(workerMsg{kind: msgShutdownComplete, workerID: w.id})
			return
		}
	}
}

// execute runs one task, converting any panic into a task error so a
// misbehaving analyzer fails its task, not the worker. A Fatal panic
// value is re-raised to kill the worker itself.
func (w *worker) execute(task Task) (issues []rules.Issue, err error) {
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(Fatal); ok {
				panic(f)
			}
			err = &TaskExecutionError{
				TaskID:   task.ID,
				Analyzer: task.Analyzer,
				Reason:   fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	issues, err = w.exec(task)
	if err != nil {
		if _, ok := err.(*TaskExecutionError); !ok {
			err = &TaskExecutionError{
				TaskID:   task.ID,
				Analyzer: task.Analyzer,
				Reason:   err.Error(),
			}
		}
		return nil, err
	}
	return issues, nil
}
