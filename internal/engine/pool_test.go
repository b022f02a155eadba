package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dshills/patrol/internal/rules"
)

func startTestPool(t *testing.T, cfg Config, opts ...Option) *Pool {
	t.Helper()
	opts = append([]Option{WithLogger(discardLogger())}, opts...)
	p, err := Start(cfg, opts...)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(p.Shutdown)
	return p
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s: %s", timeout, msg)
}

func TestPool_ScenarioA_InstantTasks(t *testing.T) {
	p := startTestPool(t, Config{MaxWorkers: 3}, WithExec(func(task Task) ([]rules.Issue, error) {
		return []rules.Issue{{Title: "ok", File: task.Payload.FilePath}}, nil
	}))

	futs := make([]*Future, 10)
	for i := range futs {
		fut, err := p.Submit(Task{Analyzer: "todos", Payload: Payload{FilePath: fmt.Sprintf("f%d.go", i)}})
		if err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		futs[i] = fut
	}

	seen := make(map[string]bool)
	for i, fut := range futs {
		out := fut.Wait(context.Background())
		if out.Err != nil {
			t.Errorf("task %d failed: %v", i, out.Err)
		}
		if seen[out.TaskID] {
			t.Errorf("task ID %s delivered twice", out.TaskID)
		}
		seen[out.TaskID] = true
	}
	if len(seen) != 10 {
		t.Errorf("resolved %d distinct task IDs, want 10", len(seen))
	}
}

func TestPool_BusyNeverExceedsPoolSize(t *testing.T) {
	release := make(chan struct{})
	p := startTestPool(t, Config{MaxWorkers: 3, QueueCapacity: 16},
		WithExec(func(Task) ([]rules.Issue, error) {
			<-release
			return nil, nil
		}))

	futs := make([]*Future, 10)
	for i := range futs {
		fut, err := p.Submit(Task{Analyzer: "todos"})
		if err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		futs[i] = fut
	}

	waitFor(t, time.Second, func() bool { return p.Stats().Busy == 3 }, "3 workers busy")
	for range 10 {
		if s := p.Stats(); s.Busy > 3 {
			t.Fatalf("Busy = %d, exceeds pool size 3", s.Busy)
		}
		time.Sleep(2 * time.Millisecond)
	}

	close(release)
	for i, fut := range futs {
		if out := fut.Wait(context.Background()); out.Err != nil {
			t.Errorf("task %d: %v", i, out.Err)
		}
	}
}

func TestPool_ScenarioC_QueueFullBackpressure(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	p := startTestPool(t, Config{MaxWorkers: 2, QueueCapacity: 3},
		WithExec(func(Task) ([]rules.Issue, error) {
			<-release
			return nil, nil
		}))

	// maxWorkers + queueCapacity submissions are accepted.
	for i := range 5 {
		if _, err := p.Submit(Task{Analyzer: "todos"}); err != nil {
			t.Fatalf("Submit %d rejected: %v", i, err)
		}
	}
	// The next one is explicit backpressure.
	if _, err := p.Submit(Task{Analyzer: "todos"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
}

func TestPool_SubmitAfterShutdownRejected(t *testing.T) {
	p := startTestPool(t, Config{MaxWorkers: 2})
	p.Shutdown()
	if _, err := p.Submit(Task{Analyzer: "todos"}); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("err = %v, want ErrPoolClosed", err)
	}
}

func TestPool_TimeoutRejectsPromptlyAndDiscardsLateResult(t *testing.T) {
	release := make(chan struct{})
	p := startTestPool(t, Config{MaxWorkers: 1, PerTaskTimeout: 60 * time.Millisecond},
		WithExec(func(task Task) ([]rules.Issue, error) {
			if task.Analyzer == "slow" {
				<-release
				return []rules.Issue{{Title: "late"}}, nil
			}
			return []rules.Issue{{Title: "fast"}}, nil
		}))

	start := time.Now()
	fut, err := p.Submit(Task{Analyzer: "slow"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	out := fut.Wait(context.Background())
	elapsed := time.Since(start)
	if !errors.Is(out.Err, ErrTaskTimeout) {
		t.Fatalf("err = %v, want ErrTaskTimeout", out.Err)
	}
	if elapsed > time.Second {
		t.Errorf("timeout took %s, want about the 60ms deadline", elapsed)
	}

	// Let the worker finish; its late result must be discarded, the
	// worker must return to service, and nothing may be redelivered.
	close(release)
	fut2, err := p.Submit(Task{Analyzer: "quick"})
	if err != nil {
		t.Fatalf("Submit after timeout: %v", err)
	}
	out2 := fut2.Wait(context.Background())
	if out2.Err != nil {
		t.Fatalf("follow-up task failed: %v", out2.Err)
	}
	if len(out2.Issues) != 1 || out2.Issues[0].Title != "fast" {
		t.Errorf("follow-up got %+v, late result leaked", out2.Issues)
	}
}

func TestPool_CrashIsolationAndRespawn(t *testing.T) {
	release := make(chan struct{})
	p := startTestPool(t, Config{MaxWorkers: 3, RespawnBudget: 2},
		WithExec(func(task Task) ([]rules.Issue, error) {
			if task.Analyzer == "crash" {
				panic(Fatal{Value: "killed"})
			}
			<-release
			return []rules.Issue{{Title: "survived"}}, nil
		}))

	futA, err := p.Submit(Task{Analyzer: "steady"})
	if err != nil {
		t.Fatal(err)
	}
	futB, err := p.Submit(Task{Analyzer: "steady"})
	if err != nil {
		t.Fatal(err)
	}
	futCrash, err := p.Submit(Task{Analyzer: "crash"})
	if err != nil {
		t.Fatal(err)
	}

	out := futCrash.Wait(context.Background())
	if !errors.Is(out.Err, ErrWorkerCrashed) {
		t.Fatalf("crash task err = %v, want ErrWorkerCrashed", out.Err)
	}

	// The other in-flight tasks are untouched by the crash.
	close(release)
	for _, fut := range []*Future{futA, futB} {
		out := fut.Wait(context.Background())
		if out.Err != nil {
			t.Errorf("unaffected task failed: %v", out.Err)
		}
	}

	// A replacement worker restores capacity.
	waitFor(t, time.Second, func() bool { return p.Stats().Workers == 3 }, "pool respawned to 3 workers")
}

func TestPool_RespawnBudgetExhausted(t *testing.T) {
	p := startTestPool(t, Config{MaxWorkers: 1, RespawnBudget: 0},
		WithExec(func(Task) ([]rules.Issue, error) {
			panic(Fatal{Value: "no budget"})
		}))

	fut, err := p.Submit(Task{Analyzer: "boom"})
	if err != nil {
		t.Fatal(err)
	}
	if out := fut.Wait(context.Background()); !errors.Is(out.Err, ErrWorkerCrashed) {
		t.Fatalf("err = %v, want ErrWorkerCrashed", out.Err)
	}
	waitFor(t, time.Second, func() bool { return p.Stats().Workers == 0 }, "no replacement spawned")
}

func TestPool_StartupTimeoutFailsInit(t *testing.T) {
	hang := make(chan struct{})
	defer close(hang)
	_, err := Start(Config{MaxWorkers: 2, StartupTimeout: 50 * time.Millisecond},
		WithLogger(discardLogger()),
		WithWorkerSetup(func(int) error { <-hang; return nil }))
	if !errors.Is(err, ErrPoolInit) {
		t.Fatalf("err = %v, want ErrPoolInit", err)
	}
}

func TestPool_SetupErrorFailsInit(t *testing.T) {
	_, err := Start(Config{MaxWorkers: 2},
		WithLogger(discardLogger()),
		WithWorkerSetup(func(id int) error { return fmt.Errorf("worker %d has no rules", id) }))
	if !errors.Is(err, ErrPoolInit) {
		t.Fatalf("err = %v, want ErrPoolInit", err)
	}
}

func TestPool_ShutdownWaitsForInflight(t *testing.T) {
	release := make(chan struct{})
	p := startTestPool(t, Config{MaxWorkers: 1},
		WithExec(func(Task) ([]rules.Issue, error) {
			<-release
			return []rules.Issue{{Title: "done"}}, nil
		}))

	fut, err := p.Submit(Task{Analyzer: "steady"})
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, time.Second, func() bool { return p.Stats().Busy == 1 }, "task dispatched")

	shutdownDone := make(chan struct{})
	go func() {
		p.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		t.Fatal("Shutdown returned while a task was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-shutdownDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return after in-flight task completed")
	}

	if out := fut.Wait(context.Background()); out.Err != nil {
		t.Errorf("in-flight task dropped during shutdown: %v", out.Err)
	}
}

func TestPool_ShutdownRejectsQueuedTasks(t *testing.T) {
	release := make(chan struct{})
	p := startTestPool(t, Config{MaxWorkers: 1, QueueCapacity: 4},
		WithExec(func(Task) ([]rules.Issue, error) {
			<-release
			return nil, nil
		}))

	busy, err := p.Submit(Task{Analyzer: "steady"})
	if err != nil {
		t.Fatal(err)
	}
	queued, err := p.Submit(Task{Analyzer: "steady"})
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, time.Second, func() bool { return p.Stats().Busy == 1 }, "first task dispatched")

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()
	p.Shutdown()

	if out := queued.Wait(context.Background()); !errors.Is(out.Err, ErrPoolClosed) {
		t.Errorf("queued task err = %v, want ErrPoolClosed", out.Err)
	}
	if out := busy.Wait(context.Background()); out.Err != nil {
		t.Errorf("in-flight task err = %v, want success", out.Err)
	}
}

func TestPool_ShutdownGraceForceTerminates(t *testing.T) {
	hang := make(chan struct{})
	defer close(hang)
	p := startTestPool(t, Config{MaxWorkers: 1, ShutdownGrace: 50 * time.Millisecond},
		WithExec(func(Task) ([]rules.Issue, error) {
			<-hang
			return nil, nil
		}))

	fut, err := p.Submit(Task{Analyzer: "stuck"})
	if err != nil {
		t.Fatal(err)
	}
	waitFor(t, time.Second, func() bool { return p.Stats().Busy == 1 }, "task dispatched")

	start := time.Now()
	p.Shutdown()
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Shutdown took %s, grace period not enforced", elapsed)
	}
	if out := fut.Wait(context.Background()); !errors.Is(out.Err, ErrWorkerCrashed) {
		t.Errorf("abandoned task err = %v, want ErrWorkerCrashed", out.Err)
	}
}

func TestPool_EventsPublished(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	var types []EventType
	bus.Subscribe(func(e Event) {
		mu.Lock()
		types = append(types, e.Type)
		mu.Unlock()
	})

	p := startTestPool(t, Config{MaxWorkers: 1}, WithBus(bus),
		WithExec(func(Task) ([]rules.Issue, error) { return nil, nil }))

	fut, err := p.Submit(Task{Analyzer: "todos"})
	if err != nil {
		t.Fatal(err)
	}
	fut.Wait(context.Background())
	p.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	want := map[EventType]bool{
		EventTaskDispatched: false,
		EventTaskCompleted:  false,
		EventShutdownBegan:  false,
		EventShutdownDone:   false,
	}
	for _, typ := range types {
		if _, ok := want[typ]; ok {
			want[typ] = true
		}
	}
	for typ, seen := range want {
		if !seen {
			t.Errorf("event %s never published", typ)
		}
	}
}
