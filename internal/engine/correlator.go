package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/dshills/patrol/internal/rules"
)

// pendingCall correlates a submitted task's ID with the caller awaiting
// its result. It exists from track until completion, rejection, or
// timeout, then is removed.
type pendingCall struct {
	taskID      string
	submittedAt time.Time
	deadline    time.Time
	done        chan Outcome
}

// Future is the caller-side handle for an in-flight task.
type Future struct {
	done <-chan Outcome
}

// Wait blocks until the task completes, is rejected, or times out, or
// until ctx is canceled. Cancellation abandons the wait only; the task
// itself is not preempted.
func (f *Future) Wait(ctx context.Context) Outcome {
	select {
	case out := <-f.done:
		return out
	case <-ctx.Done():
		return Outcome{Err: ctx.Err()}
	}
}

// correlator maps outstanding task IDs to pending callers. It is owned
// by the pool coordinator; every method runs on that goroutine.
type correlator struct {
	pending map[string]*pendingCall
	log     *slog.Logger
}

func newCorrelator(log *slog.Logger) *correlator {
	return &correlator{
		pending: make(map[string]*pendingCall),
		log:     log,
	}
}

// track registers a pending call with an absolute deadline and returns
// the caller's future. Each task ID has at most one live pending call.
func (c *correlator) track(taskID string, deadline time.Time) *Future {
	call := &pendingCall{
		taskID:      taskID,
		submittedAt: time.Now(),
		deadline:    deadline,
		done:        make(chan Outcome, 1),
	}
	c.pending[taskID] = call
	return &Future{done: call.done}
}

// resolve completes the pending call for taskID. A resolve for an
// unknown or already-completed task is a silent no-op; this is how a
// worker's late response for a timed-out task is discarded.
func (c *correlator) resolve(taskID string, issues []rules.Issue, duration time.Duration) {
	call, ok := c.pending[taskID]
	if !ok {
		c.log.Debug("discarding late or duplicate result", "task", taskID)
		return
	}
	delete(c.pending, taskID)
	call.done <- Outcome{TaskID: taskID, Issues: issues, Duration: duration}
}

// reject fails the pending call for taskID. Unknown IDs are a no-op.
func (c *correlator) reject(taskID string, err error) {
	call, ok := c.pending[taskID]
	if !ok {
		c.log.Debug("discarding late or duplicate error", "task", taskID, "err", err)
		return
	}
	delete(c.pending, taskID)
	call.done <- Outcome{TaskID: taskID, Err: err, Duration: time.Since(call.submittedAt)}
}

// nextDeadline returns the earliest outstanding deadline, if any.
func (c *correlator) nextDeadline() (time.Time, bool) {
	var earliest time.Time
	for _, call := range c.pending {
		if earliest.IsZero() || call.deadline.Before(earliest) {
			earliest = call.deadline
		}
	}
	return earliest, !earliest.IsZero()
}

// expire rejects every pending call whose deadline has passed and
// returns their task IDs.
func (c *correlator) expire(now time.Time) []string {
	var expired []string
	for id, call := range c.pending {
		if !call.deadline.After(now) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		c.reject(id, ErrTaskTimeout)
	}
	return expired
}

// has reports whether a pending call exists for taskID.
func (c *correlator) has(taskID string) bool {
	_, ok := c.pending[taskID]
	return ok
}

func (c *correlator) outstanding() int { return len(c.pending) }
