package history

import "errors"

// Errors returned by history operations.
var (
	// ErrEmptyHistory indicates the log has no snapshots yet.
	ErrEmptyHistory = errors.New("history is empty")

	// ErrIndexOutOfRange indicates a log position outside [0, len-1].
	ErrIndexOutOfRange = errors.New("history index out of range")

	// ErrLoadInProgress indicates an undo, redo or reload is still loading.
	ErrLoadInProgress = errors.New("snapshot load in progress")

	// ErrBatchInProgress indicates undo or redo was requested inside an open batch.
	ErrBatchInProgress = errors.New("batch in progress")

	// ErrNoSurface indicates the manager has no surface attached.
	ErrNoSurface = errors.New("no surface attached")

	// ErrLoadPanic wraps a panic raised by Surface.Deserialize.
	ErrLoadPanic = errors.New("surface panicked while loading snapshot")

	// ErrThumbnailPanic wraps a panic raised while exporting a thumbnail.
	ErrThumbnailPanic = errors.New("surface panicked while exporting thumbnail")
)
