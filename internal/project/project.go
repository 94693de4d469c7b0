// Package project persists canvas projects.
//
// A project row carries the latest serialized canvas, the workspace size
// and a thumbnail. The history engine's save callback writes those four
// fields on every save; the undo log itself is never persisted.
package project

import (
	"context"
	"errors"
	"time"
)

// Errors returned by stores.
var (
	// ErrNotFound indicates no project has the requested ID.
	ErrNotFound = errors.New("project not found")

	// ErrNotTemplate indicates a template operation on a regular project.
	ErrNotTemplate = errors.New("project is not a template")

	// ErrInvalidName indicates an empty project name.
	ErrInvalidName = errors.New("project name is required")
)

// Project is a stored canvas document.
type Project struct {
	ID           string
	Name         string
	JSON         string
	Width        float64
	Height       float64
	ThumbnailURL string
	IsTemplate   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary is the listing form of a project, without the document body.
type Summary struct {
	ID           string
	Name         string
	Width        float64
	Height       float64
	HasThumbnail bool
	IsTemplate   bool
	UpdatedAt    time.Time
}

// Update is a partial project change. Nil fields are left unchanged.
type Update struct {
	Name         *string
	JSON         *string
	Width        *float64
	Height       *float64
	ThumbnailURL *string
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Name == nil && u.JSON == nil && u.Width == nil && u.Height == nil && u.ThumbnailURL == nil
}

// Store persists projects.
type Store interface {
	Create(ctx context.Context, name string, width, height float64) (*Project, error)
	Get(ctx context.Context, id string) (*Project, error)
	List(ctx context.Context) ([]Summary, error)
	Update(ctx context.Context, id string, u Update) (*Project, error)
	Delete(ctx context.Context, id string) error

	// Duplicate copies a project under a new ID as "Copy of <name>".
	// The copy is never a template.
	Duplicate(ctx context.Context, id string) (*Project, error)

	// SaveAsTemplate copies a project's document into a new template.
	// An empty name keeps the project's name.
	SaveAsTemplate(ctx context.Context, id, name string) (*Project, error)

	// Templates lists templates, most recently updated first.
	Templates(ctx context.Context) ([]Summary, error)

	// UseTemplate creates a project from a template's document, named
	// "<template name> project".
	UseTemplate(ctx context.Context, id string) (*Project, error)

	// DeleteTemplate removes a template. Projects are never removed.
	DeleteTemplate(ctx context.Context, id string) error

	Close() error
}
