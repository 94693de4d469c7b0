package history

import (
	"testing"

	"github.com/gogpu/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThumbnailOptionsNormalized(t *testing.T) {
	tests := []struct {
		name string
		in   ThumbnailOptions
		want ThumbnailOptions
	}{
		{"zero", ThumbnailOptions{}, DefaultThumbnailOptions()},
		{"jpeg", ThumbnailOptions{Format: "jpeg", Quality: 0.5, Scale: 1}, ThumbnailOptions{Format: "jpeg", Quality: 0.5, Scale: 1}},
		{"bad format", ThumbnailOptions{Format: "gif", Quality: 0.5, Scale: 1}, ThumbnailOptions{Format: "png", Quality: 0.5, Scale: 1}},
		{"quality too high", ThumbnailOptions{Format: "png", Quality: 3, Scale: 0.3}, DefaultThumbnailOptions()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewThumbnailer(tt.in, nil).Options())
		})
	}
}

func TestThumbnailerPassesRegion(t *testing.T) {
	s := newFakeSurface("clip")
	var got ExportOptions
	exporter := &recordingSurface{fakeSurface: s, got: &got}

	th := NewThumbnailer(ThumbnailOptions{Format: "jpeg", Quality: 0.9, Scale: 0.5}, nil)
	url, err := th.Generate(exporter, Bounds{Left: 5, Top: 6, Width: 70, Height: 80})
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	assert.Equal(t, ExportOptions{
		Format: "jpeg", Quality: 0.9, Scale: 0.5,
		Left: 5, Top: 6, Width: 70, Height: 80,
	}, got)
}

func TestThumbnailerRestoresTransformOnError(t *testing.T) {
	s := newFakeSurface("clip")
	s.exportErr = errBroken
	pan := gg.Translate(-120, 45)
	s.transform = pan

	url, err := NewThumbnailer(DefaultThumbnailOptions(), nil).Generate(s, *s.workspace)
	assert.ErrorIs(t, err, errBroken)
	assert.Empty(t, url)
	assert.Equal(t, pan, s.transform)
	assert.Equal(t, gg.Identity(), s.exportTransforms[0])
}

func TestThumbnailerRecoversPanic(t *testing.T) {
	s := newFakeSurface("clip")
	s.exportPanic = true
	zoom := gg.Scale(3, 3)
	s.transform = zoom

	url, err := NewThumbnailer(DefaultThumbnailOptions(), nil).Generate(s, *s.workspace)
	assert.ErrorIs(t, err, ErrThumbnailPanic)
	assert.Empty(t, url)
	assert.Equal(t, zoom, s.transform)
}

type recordingSurface struct {
	*fakeSurface
	got *ExportOptions
}

func (r *recordingSurface) ExportRegion(opts ExportOptions) (string, error) {
	*r.got = opts
	return r.fakeSurface.ExportRegion(opts)
}
