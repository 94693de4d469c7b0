// Package app provides the editor session: it opens a stored project onto a
// canvas, records a history snapshot for every edit and persists each save
// back to the project store.
package app

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dshills/texona/internal/canvas"
	"github.com/dshills/texona/internal/config"
	"github.com/dshills/texona/internal/engine/history"
	"github.com/dshills/texona/internal/event"
	"github.com/dshills/texona/internal/event/topic"
	"github.com/dshills/texona/internal/project"
)

// Options configures an Editor.
type Options struct {
	// Config supplies canvas, history and thumbnail settings. Defaults are
	// used when nil.
	Config *config.Config

	// Store persists projects. Required. The editor does not close it.
	Store project.Store

	// Bus carries canvas and editor events. A private bus is created when nil.
	Bus *event.Bus

	// Logger defaults to a discard logger.
	Logger *slog.Logger
}

// Editor is an editing session over one project at a time.
type Editor struct {
	mu sync.RWMutex

	cfg    *config.Config
	store  project.Store
	bus    *event.Bus
	logger *slog.Logger

	projectID string
	canvas    *canvas.Canvas
	history   *history.Manager
	sink      *project.Sink
	subs      *subscriptionManager
	loadErr   error

	closed atomic.Bool
}

// New creates an editor with no project open.
func New(opts Options) (*Editor, error) {
	if opts.Store == nil {
		return nil, ErrMissingStore
	}
	if opts.Config == nil {
		opts.Config = config.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Bus == nil {
		opts.Bus = event.NewBus(event.WithLogger(opts.Logger))
	}

	return &Editor{
		cfg:    opts.Config,
		store:  opts.Store,
		bus:    opts.Bus,
		logger: opts.Logger,
		subs:   newSubscriptionManager(opts.Bus),
	}, nil
}

// Open loads a project onto a fresh canvas and history, replacing any open
// project. A project with no stored document gets a blank workspace. The
// loaded state is recorded as the first history entry.
func (e *Editor) Open(ctx context.Context, id string) error {
	if e.closed.Load() {
		return ErrClosed
	}

	p, err := e.store.Get(ctx, id)
	if err != nil {
		return NewOperationError("open", id, err)
	}

	e.subs.unsubscribeAll()

	cc := e.cfg.Canvas()
	hc := e.cfg.History()
	tc := e.cfg.Thumbnail()
	keys := allowList(hc)
	logger := e.logger.With("project", id)

	c := canvas.New(cc.Width, cc.Height,
		canvas.WithBus(e.bus),
		canvas.WithKeys(keys),
		canvas.WithBackground(cc.Background),
		canvas.WithLogger(logger.With("component", "canvas")),
	)

	if p.JSON != "" {
		var lerr error
		c.Deserialize(history.Snapshot(p.JSON), func(err error) { lerr = err })
		if lerr != nil {
			return NewOperationError("open", id, lerr)
		}
	} else {
		w, h := p.Width, p.Height
		if w <= 0 || h <= 0 {
			w, h = float64(cc.WorkspaceWidth), float64(cc.WorkspaceHeight)
		}
		if _, err := c.Add(canvas.NewWorkspace(hc.WorkspaceName, w, h)); err != nil {
			return NewOperationError("open", id, err)
		}
	}
	c.Render()

	// Saves outlive the call that opened the project.
	sink := project.NewSink(context.WithoutCancel(ctx), e.store, id, logger.With("component", "project"))

	m := history.New(c,
		history.WithKeys(keys),
		history.WithWorkspaceName(hc.WorkspaceName),
		history.WithMaxEntries(hc.MaxEntries),
		history.WithThumbnails(tc.Enabled),
		history.WithThumbnailOptions(history.ThumbnailOptions{
			Format:  tc.Format,
			Quality: tc.Quality,
			Scale:   tc.Scale,
		}),
		history.WithOnSave(func(r history.SaveResult) {
			sink.Save(r)
			e.publish(TopicHistorySaved, SavedEvent{
				ProjectID:    id,
				Bytes:        len(r.JSON),
				Recorded:     r.Recorded,
				HasThumbnail: r.ThumbnailURL != "",
			})
		}),
		history.WithOnLoadError(func(err error) {
			e.mu.Lock()
			e.loadErr = err
			e.mu.Unlock()
			e.publish(TopicHistoryLoadFailed, LoadFailedEvent{ProjectID: id, Err: err})
		}),
		history.WithOnChange(func(s history.Status) {
			e.publish(TopicHistoryChanged, s)
		}),
		history.WithLogger(logger.With("component", "history")),
	)

	e.mu.Lock()
	if e.canvas != nil {
		e.canvas.Detach()
	}
	e.projectID = id
	e.canvas = c
	e.history = m
	e.sink = sink
	e.loadErr = nil
	e.mu.Unlock()

	if err := e.subs.subscribe(TopicCanvasObjectChanged, saveOnEdit(m)); err != nil {
		return NewOperationError("open", id, err)
	}
	if err := m.Save(false); err != nil {
		return NewOperationError("open", id, err)
	}

	logger.Info("project opened", "name", p.Name, "objects", c.Len())
	e.publish(TopicProjectOpened, id)
	return nil
}

// allowList is the canvas default allow-list plus any configured extras.
func allowList(hc config.HistoryConfig) []string {
	keys := canvas.DefaultKeys()
	for _, k := range hc.Keys {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// ProjectID returns the open project's ID, or "".
func (e *Editor) ProjectID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.projectID
}

// Canvas returns the open project's canvas, or nil.
func (e *Editor) Canvas() *canvas.Canvas {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.canvas
}

// History returns the open project's history manager, or nil.
func (e *Editor) History() *history.Manager {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history
}

// Bus returns the editor's event bus.
func (e *Editor) Bus() *event.Bus {
	return e.bus
}

// LoadError returns the last snapshot load failure of the open project.
// It is cleared by a successful undo, redo or reload.
func (e *Editor) LoadError() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loadErr
}

// PersistError returns the last failure writing a save to the store.
func (e *Editor) PersistError() error {
	e.mu.RLock()
	sink := e.sink
	e.mu.RUnlock()
	if sink == nil {
		return nil
	}
	return sink.Err()
}

func (e *Editor) session() (*history.Manager, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.history == nil {
		return nil, ErrNoProject
	}
	return e.history, nil
}

func (e *Editor) publish(t topic.Topic, payload any) {
	if err := e.bus.Publish(context.Background(), event.NewEnvelope(t, payload, eventSource)); err != nil {
		e.logger.Warn("editor event handler failed", "topic", t, "err", err)
	}
}
