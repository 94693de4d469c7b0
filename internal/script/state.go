// Package script runs Lua scripts against an editing session.
//
// Scripts see two global modules. canvas edits the object graph:
//
//	local id = canvas.add{type = "rect", left = 10, top = 10, width = 50, height = 50, fill = "#ff0000"}
//	canvas.set(id, "fill", "#00ff00")
//
// history drives undo and redo:
//
//	history.undo()
//	print(history.index(), history.len())
//
// Every run gets a fresh Lua state with only the base, table, string and
// math libraries. Runs are bounded by a timeout.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/texona/internal/canvas"
	"github.com/dshills/texona/internal/engine/history"
)

// DefaultTimeout bounds a single run.
const DefaultTimeout = 5 * time.Second

// Session is the editing session a script operates on.
type Session interface {
	Canvas() *canvas.Canvas
	Save(skipHistory bool) error
	Undo() error
	Redo() error
	CanUndo() bool
	CanRedo() bool
	Status() history.Status
	Batch(name string, fn func() error) error
}

// Runner executes scripts against a session.
type Runner struct {
	session Session
	timeout time.Duration
	out     io.Writer
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout sets the run timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithOutput sets where print writes. Output is discarded by default.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a runner for the session.
func New(s Session, opts ...Option) *Runner {
	r := &Runner{
		session: s,
		timeout: DefaultTimeout,
		out:     io.Discard,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunFile executes the Lua file at path.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return r.Run(ctx, filepath.Base(path), string(code))
}

// Run executes code. name identifies the chunk in error messages.
func (r *Runner) Run(ctx context.Context, name, code string) (err error) {
	if r.session == nil || r.session.Canvas() == nil {
		return ErrNoSession
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	L := newState()
	defer L.Close()
	L.SetContext(ctx)

	r.installPrint(L)
	r.openCanvas(L)
	r.openHistory(L)

	defer func() {
		if rec := recover(); rec != nil {
			err = &Error{Chunk: name, Err: fmt.Errorf("lua panic: %v", rec)}
		}
	}()

	fn, lerr := L.Load(strings.NewReader(code), name)
	if lerr != nil {
		return &Error{Chunk: name, Err: fmt.Errorf("%w: %v", ErrSyntax, lerr)}
	}

	start := time.Now()
	L.Push(fn)
	if perr := L.PCall(0, 0, nil); perr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &Error{Chunk: name, Err: ErrTimeout}
		}
		if ctx.Err() != nil {
			return &Error{Chunk: name, Err: ctx.Err()}
		}
		return &Error{Chunk: name, Err: perr}
	}

	r.logger.Debug("script finished", "chunk", name, "elapsed", time.Since(start))
	return nil
}

// newState creates a Lua state with only the safe standard libraries.
func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Base exposes loaders that reach the file system or compile strings.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

func (r *Runner) installPrint(L *lua.LState) {
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		for i := 1; i <= top; i++ {
			if i > 1 {
				fmt.Fprint(r.out, "\t")
			}
			fmt.Fprint(r.out, L.ToStringMeta(L.Get(i)).String())
		}
		fmt.Fprintln(r.out)
		return 0
	}))
}
