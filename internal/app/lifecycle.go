package app

import (
	"context"

	"github.com/dshills/texona/internal/config/watcher"
	"github.com/dshills/texona/internal/engine/history"
)

// Save records the canvas unless skipHistory is set and persists it.
func (e *Editor) Save(skipHistory bool) error {
	m, err := e.session()
	if err != nil {
		return err
	}
	if err := m.Save(skipHistory); err != nil {
		return NewOperationError("save", e.ProjectID(), err)
	}
	return nil
}

// Undo restores the previous snapshot and persists the restored document.
func (e *Editor) Undo() error {
	return e.step("undo", (*history.Manager).Undo)
}

// Redo restores the next snapshot and persists the restored document.
func (e *Editor) Redo() error {
	return e.step("redo", (*history.Manager).Redo)
}

// Reload loads the current snapshot again, recovering from a failed undo
// or redo.
func (e *Editor) Reload() error {
	return e.step("reload", (*history.Manager).Reload)
}

func (e *Editor) step(op string, fn func(*history.Manager) error) error {
	m, err := e.session()
	if err != nil {
		return err
	}

	before := m.Log().Index()
	if err := fn(m); err != nil {
		return NewOperationError(op, e.ProjectID(), err)
	}
	if m.IsLoading() {
		// Completion is pending; failures reach LoadError.
		return nil
	}
	if m.Log().Index() == before && op != "reload" {
		return nil
	}

	e.mu.Lock()
	e.loadErr = nil
	e.mu.Unlock()

	// A snapshot without objects publishes no edits, so nothing has
	// persisted the restored state yet.
	if err := m.Save(true); err != nil {
		return NewOperationError(op, e.ProjectID(), err)
	}
	return nil
}

// CanUndo reports whether an earlier snapshot exists.
func (e *Editor) CanUndo() bool {
	m, err := e.session()
	return err == nil && m.CanUndo()
}

// CanRedo reports whether a later snapshot exists.
func (e *Editor) CanRedo() bool {
	m, err := e.session()
	return err == nil && m.CanRedo()
}

// Status returns the history position of the open project.
func (e *Editor) Status() history.Status {
	m, err := e.session()
	if err != nil {
		return history.Status{}
	}
	return m.Status()
}

// Batch runs fn so that every edit it makes becomes one undo step.
func (e *Editor) Batch(name string, fn func() error) error {
	m, err := e.session()
	if err != nil {
		return err
	}
	return m.Batch(name, fn)
}

// WatchConfig reloads the configuration file when it changes and applies
// the history capacity to the open project. The returned function stops
// watching.
func (e *Editor) WatchConfig(ctx context.Context, opts ...watcher.Option) (func(), error) {
	return e.cfg.Watch(ctx, func(err error) {
		if err != nil {
			e.logger.Warn("config reload failed", "file", e.cfg.File(), "err", err)
			return
		}
		e.ApplyConfig()
	}, opts...)
}

// ApplyConfig applies settings that can change while a project is open.
// Canvas size, allow-list and thumbnail settings take effect on the next
// Open.
func (e *Editor) ApplyConfig() {
	hc := e.cfg.History()

	e.mu.RLock()
	m := e.history
	e.mu.RUnlock()

	if m != nil {
		m.Log().SetMaxEntries(hc.MaxEntries)
	}
	e.logger.Info("config applied", "maxEntries", hc.MaxEntries)
	e.publish(TopicConfigReloaded, e.cfg.File())
}

// Close ends the session. The project store is left open.
func (e *Editor) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.subs.unsubscribeAll()

	e.mu.Lock()
	id := e.projectID
	if e.canvas != nil {
		e.canvas.Detach()
	}
	e.canvas = nil
	e.history = nil
	e.sink = nil
	e.projectID = ""
	e.mu.Unlock()

	e.logger.Debug("editor closed", "project", id)
	return nil
}
