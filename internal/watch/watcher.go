package watch

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last event
// before emitting a batch. Editors fire several events per save.
const DefaultDebounce = 250 * time.Millisecond

// skipDirs are directory names never added to the watch set.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	".venv":        true,
	"dist":         true,
	"build":        true,
}

// Watcher emits debounced batches of changed file paths.
type Watcher struct {
	fsw      *fsnotify.Watcher
	batches  chan []string
	debounce time.Duration
	log      *slog.Logger
	stopCh   chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatchLogger sets the logger.
func WithWatchLogger(log *slog.Logger) Option {
	return func(w *Watcher) { w.log = log }
}

// New creates a watcher over the given roots. Subdirectories are added
// recursively since fsnotify watches are not recursive.
func New(roots []string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		batches:  make(chan []string, 1),
		debounce: DefaultDebounce,
		log:      slog.Default(),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, root := range roots {
		if err := w.addRecursive(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if skipDirs[d.Name()] && path != root {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.Warn("cannot watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// Batches returns the channel of debounced change batches. Each batch
// is a sorted, deduplicated list of file paths. The channel closes
// when the watcher stops.
func (w *Watcher) Batches() <-chan []string {
	return w.batches
}

// Start begins processing events. Call Stop to shut down.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop shuts the watcher down and closes the batch channel.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.fsw.Close()
}

func (w *Watcher) loop() {
	defer close(w.batches)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}

	pending := make(map[string]bool)

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			// New directories need watches of their own.
			if event.Op&fsnotify.Create != 0 && isDir(event.Name) {
				if !skipDirs[filepath.Base(event.Name)] {
					_ = w.addRecursive(event.Name)
				}
				continue
			}
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for path := range pending {
				batch = append(batch, path)
			}
			sort.Strings(batch)
			pending = make(map[string]bool)

			select {
			case w.batches <- batch:
			case <-w.stopCh:
				return
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}
