package canvas

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/dshills/texona/internal/engine/history"
)

const (
	defaultFill     = "#000000"
	defaultFontSize = 16.0
	glyphHeight     = 13.0
)

// Render redraws the viewport into the canvas frame buffer.
func (c *Canvas) Render() {
	c.mu.Lock()
	w, h := c.width, c.height
	bg := c.background
	m := c.transform
	objs := make([]*Object, len(c.objects))
	for i, o := range c.objects {
		objs[i] = o.Clone()
	}
	c.mu.Unlock()

	dc := gg.NewContext(w, h)
	if err := c.paint(dc, m, bg, objs); err != nil {
		c.logger.Warn("render incomplete", "err", err)
	}

	c.mu.Lock()
	old := c.frame
	c.frame = dc
	c.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

// Frame returns the most recently rendered viewport, or nil before the
// first Render.
func (c *Canvas) Frame() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frame == nil {
		return nil
	}
	return c.frame.Image()
}

// ExportRegion rasterizes a region of the viewport and returns it as a
// base64 data URL. The region is drawn at full size and then resampled
// to the requested scale.
func (c *Canvas) ExportRegion(opts history.ExportOptions) (string, error) {
	format := strings.ToLower(opts.Format)
	switch format {
	case "", "png":
		format = "png"
	case "jpg", "jpeg":
		format = "jpeg"
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, opts.Format)
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	srcW := int(math.Ceil(opts.Width))
	srcH := int(math.Ceil(opts.Height))
	outW := int(math.Round(opts.Width * scale))
	outH := int(math.Round(opts.Height * scale))
	if srcW < 1 || srcH < 1 || outW < 1 || outH < 1 {
		return "", fmt.Errorf("%w: %gx%g at scale %g", ErrEmptyRegion, opts.Width, opts.Height, scale)
	}

	c.mu.Lock()
	bg := c.background
	base := gg.Translate(-opts.Left, -opts.Top).Multiply(c.transform)
	objs := make([]*Object, len(c.objects))
	for i, o := range c.objects {
		objs[i] = o.Clone()
	}
	c.mu.Unlock()

	dc := gg.NewContext(srcW, srcH)
	defer dc.Close()
	if err := c.paint(dc, base, bg, objs); err != nil {
		c.logger.Warn("export incomplete", "err", err)
	}

	var buf bytes.Buffer
	quality := jpegQuality(opts.Quality)
	if outW == srcW && outH == srcH {
		var err error
		if format == "png" {
			err = dc.EncodePNG(&buf)
		} else {
			err = dc.EncodeJPEG(&buf, quality)
		}
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", format, err)
		}
		return dataURL(format, buf.Bytes()), nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	src := dc.Image()
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	var err error
	if format == "png" {
		err = png.Encode(&buf, dst)
	} else {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", format, err)
	}
	return dataURL(format, buf.Bytes()), nil
}

func (c *Canvas) paint(dc *gg.Context, base gg.Matrix, bg string, objs []*Object) error {
	if bg != "" {
		dc.ClearWithColor(gg.Hex(bg))
	}
	var first error
	for _, o := range objs {
		if err := c.drawObject(dc, base, o); err != nil && first == nil {
			first = fmt.Errorf("draw %s %s: %w", o.Type, o.ID, err)
		}
	}
	return first
}

func (c *Canvas) drawObject(dc *gg.Context, base gg.Matrix, o *Object) error {
	if !o.Bool("visible", true) {
		return nil
	}
	opacity := clamp01(o.FloatOr("opacity", 1))
	if opacity == 0 {
		return nil
	}

	dc.Push()
	defer dc.Pop()
	dc.SetTransform(base)
	dc.Translate(o.Float("left"), o.Float("top"))
	if a := o.Float("angle"); a != 0 {
		dc.Rotate(a * math.Pi / 180)
	}
	dc.Scale(o.FloatOr("scaleX", 1), o.FloatOr("scaleY", 1))

	w, h := o.Float("width"), o.Float("height")
	switch o.Type {
	case TypeRect:
		if rx := o.Float("rx"); rx > 0 {
			roundedRect(dc, w, h, rx, o.FloatOr("ry", rx))
		} else {
			dc.DrawRectangle(0, 0, w, h)
		}
	case TypeCircle:
		r := o.Float("radius")
		dc.DrawCircle(r, r, r)
	case TypeEllipse:
		rx, ry := o.FloatOr("rx", w/2), o.FloatOr("ry", h/2)
		dc.DrawEllipse(rx, ry, rx, ry)
	case TypeTriangle:
		dc.MoveTo(w/2, 0)
		dc.LineTo(w, h)
		dc.LineTo(0, h)
		dc.ClosePath()
	case TypeLine:
		dc.MoveTo(o.Float("x1"), o.Float("y1"))
		dc.LineTo(o.Float("x2"), o.Float("y2"))
		return c.strokePath(dc, o, opacity, true)
	case TypeTextbox:
		return c.drawText(dc, o, opacity)
	case TypeImage:
		return c.drawImage(dc, o, opacity)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, o.Type)
	}

	if fill := o.String("fill"); fill != "" {
		dc.SetColor(withOpacity(fill, opacity))
		if err := dc.FillPreserve(); err != nil {
			dc.ClearPath()
			return err
		}
	}
	return c.strokePath(dc, o, opacity, false)
}

func (c *Canvas) strokePath(dc *gg.Context, o *Object, opacity float64, isLine bool) error {
	stroke := o.String("stroke")
	if stroke == "" && isLine {
		stroke = o.String("fill")
	}
	width := o.FloatOr("strokeWidth", 1)
	if stroke == "" || width <= 0 {
		dc.ClearPath()
		return nil
	}
	dc.SetColor(withOpacity(stroke, opacity))
	dc.SetLineWidth(width)
	err := dc.Stroke()
	dc.ClearPath()
	return err
}

// roundedRect builds a rectangle path with elliptical corners through the
// context transform.
func roundedRect(dc *gg.Context, w, h, rx, ry float64) {
	rx = math.Min(rx, w/2)
	ry = math.Min(ry, h/2)
	dc.MoveTo(rx, 0)
	dc.LineTo(w-rx, 0)
	dc.QuadraticTo(w, 0, w, ry)
	dc.LineTo(w, h-ry)
	dc.QuadraticTo(w, h, w-rx, h)
	dc.LineTo(rx, h)
	dc.QuadraticTo(0, h, 0, h-ry)
	dc.LineTo(0, ry)
	dc.QuadraticTo(0, 0, rx, 0)
	dc.ClosePath()
}

// drawText rasterizes text with the built-in bitmap face and places it
// scaled to the requested font size.
func (c *Canvas) drawText(dc *gg.Context, o *Object, opacity float64) error {
	text := o.String("text")
	if text == "" {
		return nil
	}
	fill := o.String("fill")
	if fill == "" {
		fill = defaultFill
	}
	size := o.FloatOr("fontSize", defaultFontSize)

	face := basicfont.Face7x13
	lines := strings.Split(text, "\n")
	lineW := 0
	for _, l := range lines {
		lineW = max(lineW, font.MeasureString(face, l).Ceil())
	}
	lineH := face.Metrics().Height.Ceil()
	if lineW == 0 {
		return nil
	}

	img := image.NewRGBA(image.Rect(0, 0, lineW, lineH*len(lines)))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(withOpacity(fill, opacity)),
		Face: face,
	}
	for i, l := range lines {
		d.Dot = fixed.P(0, i*lineH+face.Metrics().Ascent.Ceil())
		d.DrawString(l)
	}

	k := size / glyphHeight
	dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		DstWidth:  float64(img.Bounds().Dx()) * k,
		DstHeight: float64(img.Bounds().Dy()) * k,
	})
	return nil
}

func (c *Canvas) drawImage(dc *gg.Context, o *Object, opacity float64) error {
	img, err := c.images.load(o.String("src"))
	if err != nil {
		return err
	}
	dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		DstWidth:  o.Float("width"),
		DstHeight: o.Float("height"),
		Opacity:   opacity,
	})
	return nil
}

func withOpacity(hex string, opacity float64) color.Color {
	c := gg.Hex(hex)
	c.A *= opacity
	return c.Color()
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func jpegQuality(q float64) int {
	if q <= 0 || q > 1 {
		return jpeg.DefaultQuality
	}
	return max(1, int(math.Round(q*100)))
}

func dataURL(format string, data []byte) string {
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(data)
}
