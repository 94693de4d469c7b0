package script

import "errors"

// Errors returned by script runs.
var (
	// ErrNoSession indicates the runner has no open session.
	ErrNoSession = errors.New("no session to script")

	// ErrTimeout indicates the run exceeded its timeout.
	ErrTimeout = errors.New("script timed out")

	// ErrSyntax indicates the chunk could not be compiled.
	ErrSyntax = errors.New("script syntax error")
)

// Error wraps a failure with the chunk it came from.
type Error struct {
	Chunk string
	Err   error
}

func (e *Error) Error() string {
	return "script " + e.Chunk + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
