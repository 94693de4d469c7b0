package app

import (
	"errors"
	"fmt"
)

// Editor errors.
var (
	// ErrClosed indicates the editor has been closed.
	ErrClosed = errors.New("editor closed")

	// ErrNoProject indicates no project is open.
	ErrNoProject = errors.New("no project open")

	// ErrMissingStore indicates the editor was created without a project store.
	ErrMissingStore = errors.New("project store is required")
)

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op     string // Operation name (e.g., "open", "undo", "save")
	Target string // Project ID, if any
	Err    error  // Underlying error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{
		Op:     op,
		Target: target,
		Err:    err,
	}
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
