// Package watcher polls configuration files and reports changes.
//
// Changes are detected by modification time. Bursts of writes to the same
// file are coalesced into one event once the file has been stable for the
// debounce period.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event represents a file change event.
type Event struct {
	// Path is the absolute path to the changed file.
	Path string

	// Op is the operation that triggered the event.
	Op Operation

	// Time is when the change was last observed.
	Time time.Time
}

// Operation represents the type of file operation.
type Operation int

const (
	// OpWrite indicates the file was modified.
	OpWrite Operation = iota

	// OpCreate indicates a new file was created.
	OpCreate

	// OpRemove indicates the file was deleted.
	OpRemove
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Handler is called when a file change is detected.
type Handler func(event Event)

// Watcher monitors files for changes.
type Watcher struct {
	mu       sync.RWMutex
	files    map[string]time.Time
	handlers []Handler
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	interval time.Duration
	debounce time.Duration

	pendingMu sync.Mutex
	pending   map[string]Event
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithDebounce sets how long a file must be stable before its event is
// delivered. Zero delivers events immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// New creates a new file watcher.
func New(opts ...Option) *Watcher {
	w := &Watcher{
		files:    make(map[string]time.Time),
		interval: 500 * time.Millisecond,
		debounce: 100 * time.Millisecond,
		pending:  make(map[string]Event),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch adds a file to the watch list. The file need not exist yet.
func (w *Watcher) Watch(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	var mod time.Time
	info, err := os.Stat(absPath)
	switch {
	case err == nil:
		mod = info.ModTime()
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	w.mu.Lock()
	w.files[absPath] = mod
	w.mu.Unlock()
	return nil
}

// OnChange registers a handler for file change events.
func (w *Watcher) OnChange(handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Start begins polling. It is a no-op if already running.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.loop(ctx)
}

// Stop stops polling and waits for the poll goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.cancel()
	w.running = false
	w.mu.Unlock()

	w.wg.Wait()
}

// IsRunning returns whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.poll(now)
			w.flush(now)
		}
	}
}

// poll stats every watched file and records changes.
func (w *Watcher) poll(now time.Time) {
	w.mu.RLock()
	files := make(map[string]time.Time, len(w.files))
	for path, mod := range w.files {
		files[path] = mod
	}
	w.mu.RUnlock()

	for path, lastMod := range files {
		ev, ok := w.check(path, lastMod, now)
		if !ok {
			continue
		}
		if w.debounce == 0 {
			w.emit(ev)
			continue
		}
		w.queue(ev)
	}
}

func (w *Watcher) check(path string, lastMod, now time.Time) (Event, bool) {
	info, err := os.Stat(path)
	var mod time.Time
	switch {
	case err == nil:
		mod = info.ModTime()
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Event{}, false
	}
	if mod.Equal(lastMod) {
		return Event{}, false
	}

	w.mu.Lock()
	w.files[path] = mod
	w.mu.Unlock()

	op := OpWrite
	switch {
	case mod.IsZero():
		op = OpRemove
	case lastMod.IsZero():
		op = OpCreate
	}
	return Event{Path: path, Op: op, Time: now}, true
}

// queue coalesces events for a path: remove wins, then create, then write.
func (w *Watcher) queue(ev Event) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if prev, ok := w.pending[ev.Path]; ok && ev.Op == OpWrite && prev.Op != OpWrite {
		ev.Op = prev.Op
	}
	w.pending[ev.Path] = ev
}

// flush emits pending events that have been stable for the debounce period.
func (w *Watcher) flush(now time.Time) {
	w.pendingMu.Lock()
	var ready []Event
	for path, ev := range w.pending {
		if now.Sub(ev.Time) >= w.debounce {
			ready = append(ready, ev)
			delete(w.pending, path)
		}
	}
	w.pendingMu.Unlock()

	for _, ev := range ready {
		w.emit(ev)
	}
}

// emit calls every handler, recovering handler panics.
func (w *Watcher) emit(ev Event) {
	w.mu.RLock()
	handlers := append([]Handler(nil), w.handlers...)
	w.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() { _ = recover() }()
			h(ev)
		}()
	}
}
