package watch

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWatcher(t *testing.T, dir string) *Watcher {
	t.Helper()
	w, err := New([]string{dir},
		WithDebounce(50*time.Millisecond),
		WithWatchLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	t.Cleanup(w.Stop)
	return w
}

func waitBatch(t *testing.T, w *Watcher) []string {
	t.Helper()
	select {
	case batch := <-w.Batches():
		return batch
	case <-time.After(3 * time.Second):
		t.Fatal("no batch within 3s")
		return nil
	}
}

func TestWatcher_EmitsDebouncedBatch(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	// Several rapid writes should coalesce into one batch.
	for _, name := range []string{"a.go", "b.go", "a.go"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	batch := waitBatch(t, w)
	if len(batch) != 2 {
		t.Errorf("batch = %v, want 2 deduplicated paths", batch)
	}
	if len(batch) == 2 && filepath.Base(batch[0]) != "a.go" {
		t.Errorf("batch not sorted: %v", batch)
	}
}

func TestWatcher_PicksUpNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to register the new directory.
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(sub, "new.go"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	batch := waitBatch(t, w)
	found := false
	for _, p := range batch {
		if filepath.Base(p) == "new.go" {
			found = true
		}
	}
	if !found {
		t.Errorf("batch %v does not contain new.go", batch)
	}
}

func TestWatcher_StopClosesBatchChannel(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, WithWatchLogger(discardLogger()))
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	w.Stop()

	select {
	case _, ok := <-w.Batches():
		if ok {
			t.Error("expected closed channel after Stop")
		}
	case <-time.After(time.Second):
		t.Error("Batches channel not closed after Stop")
	}
}
