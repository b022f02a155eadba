package engine

import (
	"fmt"
	"log/slog"
	"time"
)

// Engine defaults. QueueCapacity bounds backpressure: a full queue
// rejects submissions with ErrQueueFull rather than blocking.
const (
	DefaultMaxWorkers     = 4
	DefaultQueueCapacity  = 256
	DefaultPerTaskTimeout = 30 * time.Second
	DefaultStartupTimeout = 5 * time.Second
	DefaultShutdownGrace  = 5 * time.Second
	DefaultRespawnBudget  = 2
)

// Config tunes the worker pool.
type Config struct {
	// MaxWorkers is the fixed pool size.
	MaxWorkers int
	// QueueCapacity bounds the number of tasks waiting for an idle
	// worker. A submission beyond capacity fails with ErrQueueFull.
	QueueCapacity int
	// PerTaskTimeout is the deadline for each submitted task.
	PerTaskTimeout time.Duration
	// StartupTimeout bounds how long workers may take to become ready.
	StartupTimeout time.Duration
	// ShutdownGrace bounds how long Shutdown waits for busy workers
	// before force-terminating them.
	ShutdownGrace time.Duration
	// RespawnBudget is how many crashed workers the pool will replace
	// over its lifetime.
	RespawnBudget int
}

func (c Config) withDefaults() Config {
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = DefaultMaxWorkers
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.PerTaskTimeout <= 0 {
		c.PerTaskTimeout = DefaultPerTaskTimeout
	}
	if c.StartupTimeout <= 0 {
		c.StartupTimeout = DefaultStartupTimeout
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = DefaultShutdownGrace
	}
	if c.RespawnBudget < 0 {
		c.RespawnBudget = 0
	}
	return c
}

// Option configures a Pool at start time.
type Option func(*Pool)

// WithLogger sets the pool's logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Pool) { p.log = log }
}

// WithExec replaces the task execution function. Tests use this to
// inject slow, failing, or crashing tasks.
func WithExec(exec ExecFunc) Option {
	return func(p *Pool) { p.exec = exec }
}

// WithBus attaches an event bus for engine lifecycle events.
func WithBus(bus *Bus) Option {
	return func(p *Pool) { p.bus = bus }
}

// WithWorkerSetup installs a one-time setup hook run by each worker
// before it signals readiness.
func WithWorkerSetup(setup func(workerID int) error) Option {
	return func(p *Pool) { p.setup = setup }
}

// PoolStats is a point-in-time snapshot of pool state.
type PoolStats struct {
	Workers      int
	Idle         int
	Busy         int
	Queued       int
	Pending      int
	ShuttingDown bool
}

type submitReq struct {
	task  Task
	reply chan submitReply
}

type submitReply struct {
	fut *Future
	err error
}

// Pool owns a fixed set of workers and the bounded task queue. All of
// its mutable state lives on the coordinator goroutine; external
// callers talk to it through channels only.
type Pool struct {
	cfg   Config
	exec  ExecFunc
	setup func(int) error
	log   *slog.Logger
	bus   *Bus

	submitCh   chan submitReq
	statsCh    chan chan PoolStats
	msgCh      chan workerMsg
	shutdownCh chan chan struct{}
	done       chan struct{}

	// Coordinator-owned state. Never touched off the coordinator
	// goroutine once run() starts.
	workers      map[int]*workerHandle
	queue        *taskQueue
	calls        *correlator
	nextWorkerID int
	respawnsLeft int
	shuttingDown bool
}

// Start spawns cfg.MaxWorkers workers and returns once every worker
// has signaled readiness. It fails with ErrPoolInit if any worker does
// not become ready within the startup deadline.
func Start(cfg Config, opts ...Option) (*Pool, error) {
	cfg = cfg.withDefaults()
	p := &Pool{
		cfg:          cfg,
		exec:         defaultExec,
		log:          slog.Default(),
		submitCh:     make(chan submitReq),
		statsCh:      make(chan chan PoolStats),
		msgCh:        make(chan workerMsg, cfg.MaxWorkers*4),
		shutdownCh:   make(chan chan struct{}),
		done:         make(chan struct{}),
		workers:      make(map[int]*workerHandle),
		queue:        newTaskQueue(cfg.QueueCapacity),
		respawnsLeft: cfg.RespawnBudget,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.calls = newCorrelator(p.log)

	for range cfg.MaxWorkers {
		p.spawnWorker()
	}

	startup := time.NewTimer(cfg.StartupTimeout)
	defer startup.Stop()
	ready := 0
	for ready < cfg.MaxWorkers {
		select {
		case m := <-p.msgCh:
			switch m.kind {
			case msgReady:
				if h, ok := p.workers[m.workerID]; ok {
					h.state = workerIdle
					ready++
					p.bus.publish(Event{Type: EventWorkerReady, WorkerID: m.workerID})
				}
			case msgExited:
				p.abort()
				return nil, fmt.Errorf("%w: worker %d exited during startup (err=%v, panic=%v)",
					ErrPoolInit, m.workerID, m.err, m.panicVal)
			}
		case <-startup.C:
			p.abort()
			return nil, fmt.Errorf("%w: %d of %d workers ready within %s",
				ErrPoolInit, ready, cfg.MaxWorkers, cfg.StartupTimeout)
		}
	}

	go p.run()
	return p, nil
}

// Submit hands a task to the pool: dispatched immediately if a worker
// is idle, queued otherwise. It returns ErrQueueFull when the queue is
// at capacity and ErrPoolClosed once shutdown has begun. Submit never
// blocks indefinitely.
func (p *Pool) Submit(task Task) (*Future, error) {
	if task.ID == "" {
		task.ID = NewTaskID()
	}
	req := submitReq{task: task, reply: make(chan submitReply, 1)}
	select {
	case p.submitCh <- req:
	case <-p.done:
		return nil, ErrPoolClosed
	}
	select {
	case r := <-req.reply:
		return r.fut, r.err
	case <-p.done:
		return nil, ErrPoolClosed
	}
}

// Stats returns a snapshot of pool state. After shutdown it returns
// the zero value.
func (p *Pool) Stats() PoolStats {
	reply := make(chan PoolStats, 1)
	select {
	case p.statsCh <- reply:
		return <-reply
	case <-p.done:
		return PoolStats{}
	}
}

// Shutdown stops accepting submissions, drains busy workers until they
// complete or their task deadline passes, then signals shutdown and
// force-terminates stragglers after the grace period. It returns once
// every worker has exited or been abandoned. Safe to call twice.
func (p *Pool) Shutdown() {
	ack := make(chan struct{})
	select {
	case p.shutdownCh <- ack:
		<-ack
	case <-p.done:
	}
}

// run is the coordinator loop. It is the only goroutine that touches
// pool state, so no locks guard the handles, queue, or correlator.
func (p *Pool) run() {
	for {
		timer := p.deadlineTimer()
		select {
		case req := <-p.submitCh:
			p.handleSubmit(req)
		case m := <-p.msgCh:
			p.handleMessage(m)
		case reply := <-p.statsCh:
			reply <- p.snapshot()
		case <-timer.C:
			p.expireDeadlines()
		case ack := <-p.shutdownCh:
			timer.Stop()
			p.drainAndStop(ack)
			return
		}
		timer.Stop()
	}
}

func (p *Pool) handleSubmit(req submitReq) {
	task := req.task
	deadline := time.Now().Add(p.cfg.PerTaskTimeout)

	if h := p.idleWorker(); h != nil {
		fut := p.calls.track(task.ID, deadline)
		p.dispatch(h, task)
		req.reply <- submitReply{fut: fut}
		return
	}
	if p.queue.push(task) {
		fut := p.calls.track(task.ID, deadline)
		p.bus.publish(Event{Type: EventTaskQueued, TaskID: task.ID})
		req.reply <- submitReply{fut: fut}
		return
	}
	p.bus.publish(Event{Type: EventQueueFull, TaskID: task.ID})
	req.reply <- submitReply{err: ErrQueueFull}
}

func (p *Pool) handleMessage(m workerMsg) {
	h, ok := p.workers[m.workerID]
	if !ok {
		return // message from an abandoned or replaced worker
	}
	switch m.kind {
	case msgReady:
		h.state = workerIdle
		p.bus.publish(Event{Type: EventWorkerReady, WorkerID: m.workerID})
		p.dispatchNext(h)
	case msgResult:
		p.calls.resolve(m.taskID, m.issues, m.duration)
		p.bus.publish(Event{Type: EventTaskCompleted, WorkerID: m.workerID, TaskID: m.taskID})
		p.workerFreed(h, m.taskID)
	case msgError:
		p.calls.reject(m.taskID, m.err)
		p.bus.publish(Event{Type: EventTaskFailed, WorkerID: m.workerID, TaskID: m.taskID, Err: m.err})
		p.workerFreed(h, m.taskID)
	case msgShutdownComplete:
		h.state = workerTerminated
	case msgExited:
		p.handleExit(h, m)
	}
}

// workerFreed transitions a worker out of Busy after it has emitted a
// result or error for its current task.
func (p *Pool) workerFreed(h *workerHandle, taskID string) {
	if h.state != workerBusy || h.currentTask != taskID {
		return
	}
	h.currentTask = ""
	p.dispatchNext(h)
}

func (p *Pool) handleExit(h *workerHandle, m workerMsg) {
	if h.state == workerShuttingDown || h.state == workerTerminated {
		h.state = workerTerminated
		return
	}

	// Unexpected termination. The crashed worker's task fails alone;
	// nothing else in flight is touched.
	p.log.Warn("worker exited unexpectedly",
		"worker", h.id, "state", h.state.String(), "panic", m.panicVal, "err", m.err)
	if h.state == workerBusy && h.currentTask != "" {
		p.calls.reject(h.currentTask, fmt.Errorf("%w: %v", ErrWorkerCrashed, m.panicVal))
	}
	p.bus.publish(Event{Type: EventWorkerCrashed, WorkerID: h.id, TaskID: h.currentTask})
	delete(p.workers, h.id)

	if p.shuttingDown || p.respawnsLeft <= 0 {
		return
	}
	p.respawnsLeft--
	nh := p.spawnWorker()
	p.bus.publish(Event{Type: EventWorkerRespawned, WorkerID: nh.id})
}

// dispatch hands a task to an idle worker.
func (p *Pool) dispatch(h *workerHandle, task Task) {
	h.state = workerBusy
	h.currentTask = task.ID
	h.inbox <- workerCmd{kind: cmdTask, task: task}
	p.bus.publish(Event{Type: EventTaskDispatched, WorkerID: h.id, TaskID: task.ID})
}

// dispatchNext gives a freed worker the oldest queued task, or marks
// it idle. During shutdown the worker is told to exit instead.
func (p *Pool) dispatchNext(h *workerHandle) {
	if p.shuttingDown {
		p.signalShutdown(h)
		return
	}
	if task, ok := p.queue.pop(); ok {
		p.dispatch(h, task)
		return
	}
	h.state = workerIdle
}

func (p *Pool) signalShutdown(h *workerHandle) {
	h.state = workerShuttingDown
	h.currentTask = ""
	h.inbox <- workerCmd{kind: cmdShutdown}
}

func (p *Pool) expireDeadlines() {
	expired := p.calls.expire(time.Now())
	for _, taskID := range expired {
		p.log.Warn("task deadline exceeded", "task", taskID)
		p.bus.publish(Event{Type: EventTaskTimedOut, TaskID: taskID})
	}
}

// drainAndStop implements shutdown: queued tasks are rejected, idle
// workers are signaled immediately, busy workers run until completion
// or their task deadline, and anything still alive after the grace
// period is abandoned.
func (p *Pool) drainAndStop(ack chan struct{}) {
	p.shuttingDown = true
	p.bus.publish(Event{Type: EventShutdownBegan})

	for _, task := range p.queue.drain() {
		p.calls.reject(task.ID, ErrPoolClosed)
	}
	for _, h := range p.workers {
		if h.state == workerIdle || h.state == workerStarting {
			p.signalShutdown(h)
		}
	}

	grace := time.NewTimer(p.cfg.ShutdownGrace)
	defer grace.Stop()
	for !p.allTerminated() {
		timer := p.deadlineTimer()
		select {
		case req := <-p.submitCh:
			req.reply <- submitReply{err: ErrPoolClosed}
		case reply := <-p.statsCh:
			reply <- p.snapshot()
		case m := <-p.msgCh:
			p.handleMessage(m)
		case <-timer.C:
			p.expireDeadlines()
			// A timed-out task does not block shutdown: tell its
			// worker to exit as soon as it finishes.
			for _, h := range p.workers {
				if h.state == workerBusy && !p.calls.has(h.currentTask) {
					p.signalShutdown(h)
				}
			}
		case <-grace.C:
			p.forceTerminate()
		}
		timer.Stop()
	}

	p.bus.publish(Event{Type: EventShutdownDone})
	close(p.done)
	ack <- struct{}{}
}

// forceTerminate abandons every worker that has not exited. Their
// goroutines unwind on their own once the pool's done channel closes;
// any message they were still trying to send is dropped.
func (p *Pool) forceTerminate() {
	for _, h := range p.workers {
		if h.state == workerTerminated {
			continue
		}
		if h.state == workerBusy && h.currentTask != "" {
			p.calls.reject(h.currentTask, fmt.Errorf("%w: force-terminated during shutdown", ErrWorkerCrashed))
		}
		close(h.inbox)
		h.state = workerTerminated
	}
}

func (p *Pool) allTerminated() bool {
	for _, h := range p.workers {
		if h.state != workerTerminated {
			return false
		}
	}
	return true
}

func (p *Pool) spawnWorker() *workerHandle {
	p.nextWorkerID++
	h := &workerHandle{
		id:    p.nextWorkerID,
		state: workerStarting,
		inbox: make(chan workerCmd, 2),
	}
	p.workers[h.id] = h
	w := &worker{
		id:    h.id,
		inbox: h.inbox,
		out:   p.msgCh,
		quit:  p.done,
		exec:  p.exec,
		setup: p.setup,
		log:   p.log,
	}
	go w.run()
	return h
}

func (p *Pool) idleWorker() *workerHandle {
	for _, h := range p.workers {
		if h.state == workerIdle {
			return h
		}
	}
	return nil
}

// deadlineTimer returns a timer for the earliest outstanding task
// deadline, or a far-future timer when nothing is pending.
func (p *Pool) deadlineTimer() *time.Timer {
	d := time.Hour
	if dl, ok := p.calls.nextDeadline(); ok {
		d = max(time.Until(dl), 0)
	}
	return time.NewTimer(d)
}

func (p *Pool) snapshot() PoolStats {
	s := PoolStats{
		Queued:       p.queue.len(),
		Pending:      p.calls.outstanding(),
		ShuttingDown: p.shuttingDown,
	}
	for _, h := range p.workers {
		if h.state == workerTerminated {
			continue
		}
		s.Workers++
		switch h.state {
		case workerIdle:
			s.Idle++
		case workerBusy:
			s.Busy++
		}
	}
	return s
}

// abort tears down a pool whose startup failed.
func (p *Pool) abort() {
	close(p.done)
	for _, h := range p.workers {
		close(h.inbox)
	}
}
