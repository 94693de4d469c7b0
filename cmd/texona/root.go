package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gogpu/gg"
	"github.com/spf13/cobra"

	"github.com/dshills/texona/internal/app"
	"github.com/dshills/texona/internal/config"
	"github.com/dshills/texona/internal/logging"
	"github.com/dshills/texona/internal/project"
)

// env is the state shared by every command: the loaded configuration,
// the logger and the project store.
type env struct {
	configPath string
	dbPath     string
	logLevel   string

	cfg     *config.Config
	logger  *slog.Logger
	store   *project.SQLiteStore
	closers []io.Closer
}

// execute runs the command line in args and releases everything the
// command opened, even when it fails.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	e := &env{}
	root := newRootCmd(e)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, e.teardown())
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "texona",
		Short: "Texona edits canvas projects with undo and redo",
		Long: `Texona stores canvas projects in a local SQLite database. Scripts written
in Lua edit a project's canvas; every edit is recorded in the undo history
and the latest state is saved back with a fresh thumbnail.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&e.dbPath, "db", "", "Path to the project database")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newNewCmd(e),
		newListCmd(e),
		newShowCmd(e),
		newRunCmd(e),
		newThumbnailCmd(e),
		newDeleteCmd(e),
		newDuplicateCmd(e),
		newTemplateCmd(e),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration, builds the logger and opens the store.
func (e *env) setup(cmd *cobra.Command) error {
	var opts []config.Option
	switch {
	case e.configPath != "":
		opts = append(opts, config.WithFile(e.configPath))
	default:
		if _, err := os.Stat(config.DefaultPath()); err == nil {
			opts = append(opts, config.WithFile(config.DefaultPath()))
		}
	}
	if e.dbPath != "" {
		opts = append(opts, config.WithOverride("storage.path", e.dbPath))
	}
	if e.logLevel != "" {
		opts = append(opts, config.WithOverride("logging.level", e.logLevel))
	}

	e.cfg = config.New(opts...)
	if err := e.cfg.Load(cmd.Context()); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lc := e.cfg.Logging()
	var out io.Writer = cmd.ErrOrStderr()
	if lc.File != "" {
		f, err := os.OpenFile(lc.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		e.closers = append(e.closers, f)
		out = f
	}
	logger, err := logging.New(logging.Options{Level: lc.Level, Format: lc.Format, Output: out})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	e.logger = logger
	gg.SetLogger(logger.With("component", "render"))

	// Commands that only print need no database.
	if cmd.Annotations["store"] != "true" {
		return nil
	}

	sc := e.cfg.Storage()
	if sc.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(sc.Path), 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}
	store, err := project.OpenSQLite(sc.Path,
		project.WithBusyTimeout(sc.BusyTimeout),
		project.WithLogger(logger.With("component", "store")),
	)
	if err != nil {
		return err
	}
	e.store = store
	e.closers = append(e.closers, store)
	return nil
}

func (e *env) teardown() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i].Close())
	}
	e.closers = nil
	return errors.Join(errs...)
}

// openEditor opens the project in a new editor. The caller closes it.
func (e *env) openEditor(cmd *cobra.Command, id string) (*app.Editor, error) {
	ed, err := app.New(app.Options{
		Config: e.cfg,
		Store:  e.store,
		Logger: e.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := ed.Open(cmd.Context(), id); err != nil {
		_ = ed.Close()
		return nil, err
	}
	return ed, nil
}

// needsStore marks a command as requiring the project database.
func needsStore(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations["store"] = "true"
	return cmd
}
