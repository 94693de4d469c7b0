package history

import (
	"fmt"
	"log/slog"
	"sync"
)

// loadState is the manager's load state machine.
type loadState int

const (
	stateIdle loadState = iota
	stateLoading
)

// String returns the state name.
func (s loadState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// SaveResult is delivered to the save callback after every Save.
type SaveResult struct {
	JSON   string
	Width  float64
	Height float64

	// ThumbnailURL is empty when no thumbnail could be produced.
	ThumbnailURL string

	// Recorded reports whether the snapshot became a new history entry.
	Recorded bool
}

// Status describes the log position for UI state.
type Status struct {
	Index   int
	Len     int
	CanUndo bool
	CanRedo bool
	Loading bool
}

// Manager records snapshots of a Surface and moves the surface through them.
//
// All methods are safe to call re-entrantly from surface callbacks: the
// manager never holds its lock while calling into the surface.
type Manager struct {
	mu sync.Mutex

	surface Surface
	log     *Log
	state   loadState
	batch   *batch

	keys          []string
	workspaceName string
	thumbnailer   *Thumbnailer
	thumbnails    bool

	onSave      func(SaveResult)
	onLoadError func(error)
	onChange    func(Status)

	logger *slog.Logger
}

// New creates a manager for the given surface.
func New(surface Surface, opts ...Option) *Manager {
	logger := slog.New(slog.DiscardHandler)
	m := &Manager{
		surface:       surface,
		log:           NewLog(0),
		workspaceName: DefaultWorkspaceName,
		thumbnailer:   NewThumbnailer(DefaultThumbnailOptions(), logger),
		thumbnails:    true,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Log returns the underlying snapshot log.
func (m *Manager) Log() *Log {
	return m.log
}

// CanUndo returns true if an earlier snapshot exists.
func (m *Manager) CanUndo() bool {
	return m.log.CanUndo()
}

// CanRedo returns true if a later snapshot exists.
func (m *Manager) CanRedo() bool {
	return m.log.CanRedo()
}

// IsLoading reports whether an undo, redo or reload is in flight.
func (m *Manager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == stateLoading
}

// Status returns the current log position.
func (m *Manager) Status() Status {
	m.mu.Lock()
	loading := m.state == stateLoading
	m.mu.Unlock()

	return Status{
		Index:   m.log.Index(),
		Len:     m.log.Len(),
		CanUndo: m.log.CanUndo(),
		CanRedo: m.log.CanRedo(),
		Loading: loading,
	}
}

// Save serializes the surface, records it unless skipHistory is set or a
// load is in flight, renders a thumbnail and calls the save callback.
//
// The only error is a serialization failure. Thumbnail problems are logged
// and leave SaveResult.ThumbnailURL empty.
func (m *Manager) Save(skipHistory bool) error {
	if m.surface == nil {
		return ErrNoSurface
	}

	snap, err := m.surface.Serialize(m.keys)
	if err != nil {
		return fmt.Errorf("serialize surface: %w", err)
	}

	m.mu.Lock()
	suppressed := m.state == stateLoading
	recorded := false
	if !skipHistory && !suppressed {
		if m.batch != nil {
			m.batch.pending = snap
			m.batch.dirty = true
		} else {
			m.log.Push(snap)
			recorded = true
		}
	}
	m.mu.Unlock()

	ws, ok := m.surface.FindByName(m.workspaceName)
	if !ok {
		ws = Bounds{}
	}

	var thumb string
	if m.thumbnails {
		var terr error
		thumb, terr = m.thumbnailer.Generate(m.surface, ws)
		if terr != nil {
			m.logger.Warn("failed to generate thumbnail", "error", terr)
		}
	}

	m.logger.Debug("canvas saved",
		"bytes", snap.Size(),
		"recorded", recorded,
		"suppressed", suppressed,
		"index", m.log.Index(),
		"len", m.log.Len())

	if recorded {
		m.notifyChange()
	}

	if m.onSave != nil {
		m.onSave(SaveResult{
			JSON:         string(snap),
			Width:        ws.Width,
			Height:       ws.Height,
			ThumbnailURL: thumb,
			Recorded:     recorded,
		})
	}
	return nil
}

// Undo loads the previous snapshot. It is a no-op when nothing can be undone.
func (m *Manager) Undo() error {
	return m.step(-1)
}

// Redo loads the next snapshot. It is a no-op when nothing can be redone.
func (m *Manager) Redo() error {
	return m.step(1)
}

// Reload loads the snapshot under the cursor again. Use it to recover the
// surface after a failed undo or redo.
func (m *Manager) Reload() error {
	m.mu.Lock()
	if m.state == stateLoading {
		m.mu.Unlock()
		return ErrLoadInProgress
	}
	snap, err := m.log.Current()
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.log.pin(m.log.Index())
	m.state = stateLoading
	m.mu.Unlock()

	return m.load(snap)
}

func (m *Manager) step(delta int) error {
	if m.surface == nil {
		return ErrNoSurface
	}

	m.mu.Lock()
	if m.state == stateLoading {
		m.mu.Unlock()
		return ErrLoadInProgress
	}
	if m.batch != nil {
		m.mu.Unlock()
		return ErrBatchInProgress
	}

	if (delta < 0 && !m.log.CanUndo()) || (delta > 0 && !m.log.CanRedo()) {
		m.mu.Unlock()
		return nil
	}

	target := m.log.Index() + delta
	snap, err := m.log.At(target)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	// Enter the loading state before the surface is touched so that saves
	// triggered by clear or load events are not recorded.
	m.log.pin(target)
	m.state = stateLoading
	m.mu.Unlock()

	return m.load(snap)
}

// loadOp tracks one in-flight load.
type loadOp struct {
	mu   sync.Mutex
	once sync.Once
	done bool
	err  error
}

func (op *loadOp) result() (bool, error) {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.done, op.err
}

// load clears the surface and loads snap. The caller must have entered the
// loading state. The state returns to idle in the completion callback.
func (m *Manager) load(snap Snapshot) (err error) {
	op := &loadOp{}

	defer func() {
		if r := recover(); r != nil {
			m.finishLoad(op, fmt.Errorf("%w: %v", ErrLoadPanic, r))
			_, err = op.result()
		}
	}()

	m.surface.Clear()
	m.surface.Render()
	m.surface.Deserialize(snap, func(lerr error) {
		m.finishLoad(op, lerr)
	})

	if done, lerr := op.result(); done {
		return lerr
	}
	// Completion is pending; errors will reach the load error callback.
	return nil
}

// finishLoad settles the cursor on the loaded entry. The entry was pinned
// when the load started, so a capacity change in between cannot move the
// cursor off the materialized snapshot.
func (m *Manager) finishLoad(op *loadOp, lerr error) {
	op.once.Do(func() {
		if lerr == nil {
			m.surface.Render()
		}

		m.mu.Lock()
		index, serr := m.log.settle(lerr == nil)
		if lerr == nil && serr != nil {
			lerr = serr
		}
		m.state = stateIdle
		m.mu.Unlock()

		op.mu.Lock()
		op.done = true
		op.err = lerr
		op.mu.Unlock()

		if lerr != nil {
			m.logger.Error("failed to load snapshot", "index", index, "error", lerr)
			if m.onLoadError != nil {
				m.onLoadError(lerr)
			}
			return
		}

		m.logger.Debug("snapshot loaded", "index", index, "len", m.log.Len())
		m.notifyChange()
	})
}

func (m *Manager) notifyChange() {
	if m.onChange != nil {
		m.onChange(m.Status())
	}
}

// Clear forgets every snapshot. The surface is left as is.
func (m *Manager) Clear() error {
	m.mu.Lock()
	if m.state == stateLoading {
		m.mu.Unlock()
		return ErrLoadInProgress
	}
	m.log.Clear()
	m.batch = nil
	m.mu.Unlock()

	m.notifyChange()
	return nil
}
