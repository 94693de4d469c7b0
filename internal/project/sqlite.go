package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	json          TEXT NOT NULL DEFAULT '',
	width         REAL NOT NULL DEFAULT 0,
	height        REAL NOT NULL DEFAULT 0,
	thumbnail_url TEXT NOT NULL DEFAULT '',
	is_template   INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS projects_updated_at ON projects(updated_at DESC);
`

const maxRetries = 3

// SQLiteStore is a Store backed by an SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

type openConfig struct {
	busyTimeout int
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures OpenSQLite.
type Option func(*openConfig)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 5000.
func WithBusyTimeout(ms int) Option { return func(c *openConfig) { c.busyTimeout = ms } }

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *openConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the time source for timestamps.
func WithClock(now func() time.Time) Option { return func(c *openConfig) { c.now = now } }

// OpenSQLite opens or creates the project database at path, creating parent
// directories as needed. ":memory:" opens a private in-memory database.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	cfg := openConfig{
		busyTimeout: 5000,
		logger:      slog.New(slog.DiscardHandler),
		now:         time.Now,
	}
	for _, o := range opts {
		o(&cfg)
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("project store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("project store: open: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.busyTimeout),
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("project store: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("project store: schema: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("project store: migrate: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("project store: ping: %w", err)
	}

	cfg.logger.Debug("project store opened", "path", path)
	return &SQLiteStore{db: db, now: cfg.now, logger: cfg.logger}, nil
}

// migrate adds columns introduced after a database was first created.
func migrate(db *sql.DB) error {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('projects') WHERE name = 'is_template'`).Scan(&n)
	if err != nil {
		return err
	}
	if n == 0 {
		_, err = db.Exec(`ALTER TABLE projects ADD COLUMN is_template INTEGER NOT NULL DEFAULT 0`)
	}
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create inserts a new empty project.
func (s *SQLiteStore) Create(ctx context.Context, name string, width, height float64) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	p := &Project{Name: name, Width: width, Height: height}
	if err := s.insert(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.logger.Info("project created", "id", p.ID, "name", p.Name)
	return p, nil
}

// insert stores p under a new ID with fresh timestamps.
func (s *SQLiteStore) insert(ctx context.Context, p *Project) error {
	now := s.now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.exec(ctx,
		`INSERT INTO projects (id, name, json, width, height, thumbnail_url, is_template, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.JSON, p.Width, p.Height, p.ThumbnailURL, p.IsTemplate, now.UnixMilli(), now.UnixMilli())
}

// Get returns the project with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, json, width, height, thumbnail_url, is_template, created_at, updated_at FROM projects WHERE id = ?`, id)

	var p Project
	var created, updated int64
	err := row.Scan(&p.ID, &p.Name, &p.JSON, &p.Width, &p.Height, &p.ThumbnailURL, &p.IsTemplate, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return &p, nil
}

// List returns every project that is not a template, most recently
// updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	out, err := s.list(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) list(ctx context.Context, templates bool) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, width, height, thumbnail_url != '', is_template, updated_at FROM projects
		 WHERE is_template = ? ORDER BY updated_at DESC, name`, templates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			updated int64
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Width, &sum.Height, &sum.HasThumbnail, &sum.IsTemplate, &updated); err != nil {
			return nil, err
		}
		sum.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Update applies a partial change and bumps UpdatedAt.
func (s *SQLiteStore) Update(ctx context.Context, id string, u Update) (*Project, error) {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return nil, ErrInvalidName
	}

	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if u.Name != nil {
		add("name", strings.TrimSpace(*u.Name))
	}
	if u.JSON != nil {
		add("json", *u.JSON)
	}
	if u.Width != nil {
		add("width", *u.Width)
	}
	if u.Height != nil {
		add("height", *u.Height)
	}
	if u.ThumbnailURL != nil {
		add("thumbnail_url", *u.ThumbnailURL)
	}
	add("updated_at", s.now().UTC().UnixMilli())
	args = append(args, id)

	query := "UPDATE projects SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	var affected int64
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update project %s: %w", id, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.Get(ctx, id)
}

// Delete removes a project.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	var affected int64
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.logger.Info("project deleted", "id", id)
	return nil
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...any) error {
	return s.runTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
}

// runTx executes fn inside a transaction, retrying on SQLITE_BUSY with
// 100/200/300 ms backoff.
func (s *SQLiteStore) runTx(ctx context.Context, fn func(*sql.Tx) error) error {
	for i := range maxRetries {
		err := s.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isBusy(err) || i == maxRetries-1 {
			return err
		}
		s.logger.Debug("database busy, retrying", "attempt", i+1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(100*(i+1)) * time.Millisecond):
		}
	}
	return errors.New("max retries exceeded")
}

func (s *SQLiteStore) runOnce(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// isBusy reports whether err indicates an SQLite BUSY condition.
func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
