package canvas

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/texona/internal/engine/history"
)

func decodeDataURLImage(t *testing.T, url string) (image.Image, string) {
	t.Helper()
	data, err := DecodeDataURL(url)
	require.NoError(t, err)
	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img, format
}

func isRed(c color.Color) bool {
	r, g, b, a := c.RGBA()
	return a > 0xf000 && r > 0xe000 && g < 0x2000 && b < 0x2000
}

func TestRenderDrawsObjects(t *testing.T) {
	c := New(100, 100, WithBackground("#ffffff"))
	assert.Nil(t, c.Frame())

	_, err := c.Add(NewRect(10, 10, 40, 40, "#ff0000"))
	require.NoError(t, err)
	c.Render()

	frame := c.Frame()
	require.NotNil(t, frame)
	assert.Equal(t, image.Rect(0, 0, 100, 100), frame.Bounds())
	assert.True(t, isRed(frame.At(30, 30)))
	assert.False(t, isRed(frame.At(80, 80)))
}

func TestRenderAppliesViewport(t *testing.T) {
	c := New(100, 100, WithBackground("#ffffff"))
	_, err := c.Add(NewRect(0, 0, 10, 10, "#ff0000"))
	require.NoError(t, err)

	c.Pan(50, 50)
	c.Render()
	assert.False(t, isRed(c.Frame().At(5, 5)))
	assert.True(t, isRed(c.Frame().At(55, 55)))
}

func TestExportRegionScalesOutput(t *testing.T) {
	c := New(800, 600)
	_, err := c.Add(NewWorkspace("clip", 300, 200))
	require.NoError(t, err)

	url, err := c.ExportRegion(history.ExportOptions{
		Format: "png", Quality: 0.8, Scale: 0.3,
		Width: 300, Height: 200,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	img, format := decodeDataURLImage(t, url)
	assert.Equal(t, "png", format)
	assert.Equal(t, 90, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())
}

func TestExportRegionOffset(t *testing.T) {
	c := New(800, 600)
	_, err := c.Add(NewRect(100, 100, 50, 50, "#ff0000"))
	require.NoError(t, err)

	url, err := c.ExportRegion(history.ExportOptions{Scale: 1, Left: 100, Top: 100, Width: 50, Height: 50})
	require.NoError(t, err)

	img, _ := decodeDataURLImage(t, url)
	assert.True(t, isRed(img.At(25, 25)))
}

func TestExportRegionJPEG(t *testing.T) {
	c := New(100, 100, WithBackground("#ffffff"))
	url, err := c.ExportRegion(history.ExportOptions{Format: "jpeg", Quality: 0.5, Scale: 1, Width: 20, Height: 10})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))

	img, format := decodeDataURLImage(t, url)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 20, img.Bounds().Dx())
}

func TestExportRegionErrors(t *testing.T) {
	c := New(100, 100)

	_, err := c.ExportRegion(history.ExportOptions{Format: "gif", Scale: 1, Width: 10, Height: 10})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = c.ExportRegion(history.ExportOptions{Scale: 0.01, Width: 10, Height: 10})
	assert.ErrorIs(t, err, ErrEmptyRegion)

	_, err = c.ExportRegion(history.ExportOptions{Scale: 1})
	assert.ErrorIs(t, err, ErrEmptyRegion)
}

func TestRenderImageObject(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			src.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	url := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	c := New(40, 40, WithBackground("#ffffff"))
	_, err := c.Add(NewImage(0, 0, 20, 20, url))
	require.NoError(t, err)
	c.Render()
	assert.True(t, isRed(c.Frame().At(10, 10)))
	assert.False(t, isRed(c.Frame().At(30, 30)))
}

func TestRenderSkipsBrokenImage(t *testing.T) {
	c := New(40, 40, WithBackground("#ffffff"))
	_, err := c.Add(NewImage(0, 0, 20, 20, "https://example.com/a.png"))
	require.NoError(t, err)
	_, err = c.Add(NewRect(20, 20, 20, 20, "#ff0000"))
	require.NoError(t, err)

	c.Render()
	assert.True(t, isRed(c.Frame().At(30, 30)))
}

func TestRenderShapesAndText(t *testing.T) {
	c := New(200, 200, WithBackground("#ffffff"))
	objs := []*Object{
		NewCircle(0, 0, 10, "#00ff00"),
		NewObject(TypeEllipse, map[string]any{"left": 30, "top": 0, "width": 20, "height": 10, "fill": "#0000ff"}),
		NewObject(TypeTriangle, map[string]any{"left": 60, "top": 0, "width": 20, "height": 20, "fill": "#ff00ff", "stroke": "#000000", "strokeWidth": 2}),
		NewObject(TypeLine, map[string]any{"left": 0, "top": 50, "x1": 0, "y1": 0, "x2": 100, "y2": 0, "stroke": "#000000", "strokeWidth": 3}),
		NewObject(TypeRect, map[string]any{"left": 100, "top": 100, "width": 40, "height": 40, "rx": 8, "fill": "#ff0000", "angle": 15}),
		NewTextbox(0, 150, "hi\nthere", 26, "#000000"),
		NewObject(TypeRect, map[string]any{"left": 0, "top": 0, "width": 200, "height": 200, "fill": "#000000", "visible": false}),
	}
	for _, o := range objs {
		_, err := c.Add(o)
		require.NoError(t, err)
	}

	c.Render()
	frame := c.Frame()
	require.NotNil(t, frame)
	assert.True(t, isRed(frame.At(120, 120)))

	r, g, b, _ := frame.At(10, 10).RGBA()
	assert.Less(t, r, uint32(0x2000))
	assert.Greater(t, g, uint32(0xe000))
	assert.Less(t, b, uint32(0x2000))
}

func TestDecodeDataURL(t *testing.T) {
	data, err := DecodeDataURL("data:text/plain,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	_, err = DecodeDataURL("file:///tmp/a.png")
	assert.ErrorIs(t, err, ErrUnsupportedImageSource)

	_, err = DecodeDataURL("data:image/png;base64")
	assert.ErrorIs(t, err, ErrUnsupportedImageSource)
}
