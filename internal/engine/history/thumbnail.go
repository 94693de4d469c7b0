package history

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gg"
)

// ThumbnailOptions configures thumbnail encoding.
type ThumbnailOptions struct {
	// Format is "png" or "jpeg".
	Format string

	// Quality is the encoder quality in (0, 1].
	Quality float64

	// Scale multiplies the workspace size.
	Scale float64
}

// DefaultThumbnailOptions returns a 30% png preview.
func DefaultThumbnailOptions() ThumbnailOptions {
	return ThumbnailOptions{
		Format:  "png",
		Quality: 0.8,
		Scale:   0.3,
	}
}

func (o ThumbnailOptions) normalized() ThumbnailOptions {
	def := DefaultThumbnailOptions()
	if o.Format != "png" && o.Format != "jpeg" {
		o.Format = def.Format
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = def.Quality
	}
	if o.Scale <= 0 {
		o.Scale = def.Scale
	}
	return o
}

// Thumbnailer renders workspace previews from a surface.
type Thumbnailer struct {
	opts   ThumbnailOptions
	logger *slog.Logger
}

// NewThumbnailer creates a thumbnailer.
func NewThumbnailer(opts ThumbnailOptions, logger *slog.Logger) *Thumbnailer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Thumbnailer{
		opts:   opts.normalized(),
		logger: logger,
	}
}

// Options returns the effective options.
func (t *Thumbnailer) Options() ThumbnailOptions {
	return t.opts
}

// Generate exports the workspace region as a data URL.
//
// It returns "" with no error when the workspace has no area. The surface's
// viewport transform is reset to identity for the export and restored on
// every path out, including panics inside the surface.
func (t *Thumbnailer) Generate(s Surface, ws Bounds) (url string, err error) {
	if !ws.HasArea() {
		t.logger.Debug("skipping thumbnail for empty workspace",
			"width", ws.Width, "height", ws.Height)
		return "", nil
	}

	original := s.Transform()
	s.SetTransform(gg.Identity())
	defer s.SetTransform(original)

	defer func() {
		if r := recover(); r != nil {
			url = ""
			err = fmt.Errorf("%w: %v", ErrThumbnailPanic, r)
		}
	}()

	url, err = s.ExportRegion(ExportOptions{
		Format:  t.opts.Format,
		Quality: t.opts.Quality,
		Scale:   t.opts.Scale,
		Left:    ws.Left,
		Top:     ws.Top,
		Width:   ws.Width,
		Height:  ws.Height,
	})
	if err != nil {
		return "", fmt.Errorf("export thumbnail: %w", err)
	}
	return url, nil
}
