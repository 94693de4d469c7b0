package project

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dshills/texona/internal/engine/history"
)

// Sink persists save results of one project. Its Save method is used as
// the history manager's save callback.
type Sink struct {
	ctx    context.Context
	store  Store
	id     string
	logger *slog.Logger

	mu      sync.Mutex
	lastErr error
	saves   int
}

// NewSink creates a sink writing to the project with the given ID.
// Writes use ctx; a nil logger discards failures.
func NewSink(ctx context.Context, store Store, id string, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sink{ctx: ctx, store: store, id: id, logger: logger}
}

// Save writes the document, workspace size and thumbnail of a save. An
// absent thumbnail leaves the stored one unchanged. Failures are logged
// and kept for Err.
func (s *Sink) Save(r history.SaveResult) {
	u := Update{
		JSON:   &r.JSON,
		Width:  &r.Width,
		Height: &r.Height,
	}
	if r.ThumbnailURL != "" {
		u.ThumbnailURL = &r.ThumbnailURL
	}

	_, err := s.store.Update(s.ctx, s.id, u)

	s.mu.Lock()
	s.saves++
	if err != nil {
		s.lastErr = err
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("persist project failed", "project", s.id, "err", err)
		return
	}
	s.logger.Debug("project persisted", "project", s.id, "bytes", len(r.JSON), "thumbnail", r.ThumbnailURL != "")
}

// Err returns the most recent persistence error, or nil.
func (s *Sink) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Saves returns the number of save results received.
func (s *Sink) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
