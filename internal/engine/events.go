package engine

import (
	"sync"
	"time"
)

// EventType labels an engine lifecycle event.
type EventType string

const (
	EventWorkerReady     EventType = "worker.ready"
	EventWorkerCrashed   EventType = "worker.crashed"
	EventWorkerRespawned EventType = "worker.respawned"
	EventTaskDispatched  EventType = "task.dispatched"
	EventTaskQueued      EventType = "task.queued"
	EventTaskCompleted   EventType = "task.completed"
	EventTaskFailed      EventType = "task.failed"
	EventTaskTimedOut    EventType = "task.timed_out"
	EventQueueFull       EventType = "queue.full"
	EventShutdownBegan   EventType = "shutdown.began"
	EventShutdownDone    EventType = "shutdown.done"
)

// Event describes one engine state change.
type Event struct {
	Type     EventType
	Time     time.Time
	WorkerID int
	TaskID   string
	Err      error
}

// Handler receives published events. Handlers run on the coordinator
// goroutine and must not block.
type Handler func(Event)

// Bus is a per-engine event bus. Each Pool owns its own Bus, so tests
// can run multiple independent engines without cross-contamination
// through shared global state.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]Handler
	nextID int
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registers a handler for every event and returns an ID
// usable with Unsubscribe.
func (b *Bus) Subscribe(h Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subs[b.nextID] = h
	return b.nextID
}

// Unsubscribe removes a handler. Unknown IDs are a no-op.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// publish delivers an event to all handlers. A panicking handler is
// recovered so it cannot take down the coordinator.
func (b *Bus) publish(e Event) {
	if b == nil {
		return
	}
	e.Time = time.Now()
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()
	for _, h := range handlers {
		func() {
			defer func() { _ = recover() }()
			h(e)
		}()
	}
}
