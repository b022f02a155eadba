package engine

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dshills/patrol/internal/rules"
)

// Task is one unit of analysis work: a single analyzer applied to a
// single file. Tasks are immutable once submitted.
type Task struct {
	ID       string
	Analyzer string
	Payload  Payload
}

// Payload carries the file under analysis and per-run options.
type Payload struct {
	FilePath string
	Content  string
	Options  rules.Options
}

// Outcome is the terminal result of a submitted task: either a list of
// issues or an error, never both.
type Outcome struct {
	TaskID   string
	Issues   []rules.Issue
	Err      error
	Duration time.Duration
}

// Sentinel errors for engine failure modes.
var (
	// ErrPoolInit reports that a worker failed to become ready within
	// the startup deadline. Fatal to the engine.
	ErrPoolInit = errors.New("worker pool failed to initialize")
	// ErrQueueFull is the backpressure rejection returned by Submit
	// when no worker is idle and the queue is at capacity.
	ErrQueueFull = errors.New("task queue is full")
	// ErrWorkerCrashed reports that the worker executing a task died
	// before producing a result.
	ErrWorkerCrashed = errors.New("worker crashed during task")
	// ErrTaskTimeout reports that no result arrived within the task's
	// deadline.
	ErrTaskTimeout = errors.New("task timed out")
	// ErrPoolClosed is returned for submissions made after shutdown
	// has begun.
	ErrPoolClosed = errors.New("pool is shut down")
)

// TaskExecutionError reports an exception the worker caught while
// running an analyzer. It is isolated to the task that raised it.
type TaskExecutionError struct {
	TaskID   string
	Analyzer string
	Reason   string
}

func (e *TaskExecutionError) Error() string {
	return fmt.Sprintf("analyzer %s failed for task %s: %s", e.Analyzer, e.TaskID, e.Reason)
}

// Fatal is a panic value that the worker treats as fatal to itself
// rather than reporting it as a task error. It exists to model faults
// that would kill a real worker process.
type Fatal struct {
	Value any
}

var taskSeq atomic.Uint64

// NewTaskID returns a short unique task identifier.
func NewTaskID() string {
	n := taskSeq.Add(1)
	h := sha256.Sum256(fmt.Appendf(nil, "%d:%d", time.Now().UnixNano(), n))
	return fmt.Sprintf("%x", h[:8])
}
