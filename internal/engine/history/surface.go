package history

import "github.com/gogpu/gg"

// Snapshot is the serialized form of the full object graph on a surface.
type Snapshot string

// Size returns the snapshot length in bytes.
func (s Snapshot) Size() int {
	return len(s)
}

// Bounds is an axis-aligned region in workspace coordinates.
type Bounds struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// HasArea reports whether both dimensions are positive.
func (b Bounds) HasArea() bool {
	return b.Width > 0 && b.Height > 0
}

// ExportOptions describes a raster export of a surface region.
type ExportOptions struct {
	// Format is "png" or "jpeg".
	Format string

	// Quality is the encoder quality in (0, 1]. Ignored for png.
	Quality float64

	// Scale multiplies the region size to obtain the output size.
	Scale float64

	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Surface is the drawing surface a Manager versions.
//
// Deserialize may complete asynchronously; it must call done exactly once,
// with the load error or nil.
type Surface interface {
	// Serialize writes the object graph, keeping only the given property keys.
	Serialize(keys []string) (Snapshot, error)

	// Deserialize replaces the object graph with the snapshot contents.
	Deserialize(snap Snapshot, done func(error))

	// Clear removes every object.
	Clear()

	// Render redraws the surface.
	Render()

	// FindByName returns the bounds of the first object with the given name.
	FindByName(name string) (Bounds, bool)

	// ExportRegion rasterizes a region and returns it as a data URL.
	ExportRegion(opts ExportOptions) (string, error)

	// Transform returns the current viewport (pan/zoom) transform.
	Transform() gg.Matrix

	// SetTransform replaces the viewport transform.
	SetTransform(m gg.Matrix)
}
