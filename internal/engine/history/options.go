package history

import "log/slog"

// DefaultWorkspaceName is the reserved name of the artboard object.
const DefaultWorkspaceName = "clip"

// Option configures a Manager during creation.
type Option func(*Manager)

// WithKeys sets the property allow-list passed to Surface.Serialize.
// A nil list lets the surface use its own default allow-list.
func WithKeys(keys []string) Option {
	return func(m *Manager) {
		m.keys = append([]string(nil), keys...)
	}
}

// WithWorkspaceName sets the reserved name used to locate the artboard.
func WithWorkspaceName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.workspaceName = name
		}
	}
}

// WithMaxEntries caps the number of snapshots kept. 0 means unlimited.
func WithMaxEntries(max int) Option {
	return func(m *Manager) {
		m.log.SetMaxEntries(max)
	}
}

// WithThumbnailOptions sets the thumbnail encoding.
func WithThumbnailOptions(opts ThumbnailOptions) Option {
	return func(m *Manager) {
		m.thumbnailer.opts = opts.normalized()
	}
}

// WithThumbnails turns thumbnail generation on or off. It is on by default.
func WithThumbnails(enabled bool) Option {
	return func(m *Manager) {
		m.thumbnails = enabled
	}
}

// WithOnSave sets the callback receiving every save result.
func WithOnSave(fn func(SaveResult)) Option {
	return func(m *Manager) {
		m.onSave = fn
	}
}

// WithOnLoadError sets the callback receiving snapshot load failures.
// It is called for both synchronous and asynchronous completions.
func WithOnLoadError(fn func(error)) Option {
	return func(m *Manager) {
		m.onLoadError = fn
	}
}

// WithOnChange sets the callback invoked whenever the log or cursor changes.
func WithOnChange(fn func(Status)) Option {
	return func(m *Manager) {
		m.onChange = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
			m.thumbnailer.logger = l
		}
	}
}
