package engine

// taskQueue is a bounded FIFO buffer of tasks awaiting an idle worker.
// It is owned by the pool coordinator and needs no locking.
type taskQueue struct {
	items    []Task
	capacity int
}

func newTaskQueue(capacity int) *taskQueue {
	return &taskQueue{capacity: capacity}
}

// push appends a task. Returns false when the queue is at capacity.
func (q *taskQueue) push(t Task) bool {
	if len(q.items) >= q.capacity {
		return false
	}
	q.items = append(q.items, t)
	return true
}

// pop removes and returns the oldest task.
func (q *taskQueue) pop() (Task, bool) {
	if len(q.items) == 0 {
		return Task{}, false
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t, true
}

// drain removes and returns all queued tasks in submission order.
func (q *taskQueue) drain() []Task {
	items := q.items
	q.items = nil
	return items
}

func (q *taskQueue) len() int { return len(q.items) }
