package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Duplicate copies a project under a new ID as "Copy of <name>". The copy
// keeps the document, size and thumbnail and is never a template.
func (s *SQLiteStore) Duplicate(ctx context.Context, id string) (*Project, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p := &Project{
		Name:         "Copy of " + src.Name,
		JSON:         src.JSON,
		Width:        src.Width,
		Height:       src.Height,
		ThumbnailURL: src.ThumbnailURL,
	}
	if err := s.insert(ctx, p); err != nil {
		return nil, fmt.Errorf("duplicate project %s: %w", id, err)
	}
	s.logger.Info("project duplicated", "from", id, "id", p.ID)
	return p, nil
}

// SaveAsTemplate copies a project's document into a new template. An empty
// name keeps the project's name.
func (s *SQLiteStore) SaveAsTemplate(ctx context.Context, id, name string) (*Project, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = src.Name
	}

	p := &Project{
		Name:         name,
		JSON:         src.JSON,
		Width:        src.Width,
		Height:       src.Height,
		ThumbnailURL: src.ThumbnailURL,
		IsTemplate:   true,
	}
	if err := s.insert(ctx, p); err != nil {
		return nil, fmt.Errorf("save template from %s: %w", id, err)
	}
	s.logger.Info("template saved", "from", id, "id", p.ID, "name", p.Name)
	return p, nil
}

// Templates lists templates, most recently updated first.
func (s *SQLiteStore) Templates(ctx context.Context) ([]Summary, error) {
	out, err := s.list(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}

// UseTemplate creates a project from a template's document, named
// "<template name> project". The thumbnail is regenerated on first open.
func (s *SQLiteStore) UseTemplate(ctx context.Context, id string) (*Project, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsTemplate {
		return nil, fmt.Errorf("%w: %s", ErrNotTemplate, id)
	}

	p := &Project{
		Name:   t.Name + " project",
		JSON:   t.JSON,
		Width:  t.Width,
		Height: t.Height,
	}
	if err := s.insert(ctx, p); err != nil {
		return nil, fmt.Errorf("use template %s: %w", id, err)
	}
	s.logger.Info("project created from template", "template", id, "id", p.ID)
	return p, nil
}

// DeleteTemplate removes a template. A regular project with the same ID is
// left alone and reported as ErrNotTemplate.
func (s *SQLiteStore) DeleteTemplate(ctx context.Context, id string) error {
	var affected int64
	err := s.runTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ? AND is_template = 1`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete template %s: %w", id, err)
	}
	if affected > 0 {
		s.logger.Info("template deleted", "id", id)
		return nil
	}

	if _, err := s.Get(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete template %s: %w", id, err)
	}
	return fmt.Errorf("%w: %s", ErrNotTemplate, id)
}
