package history

import (
	"encoding/json"
	"errors"

	"github.com/gogpu/gg"
)

// fakeSurface is an in-memory Surface. Its object graph is a list of names.
type fakeSurface struct {
	objects   []string
	transform gg.Matrix
	workspace *Bounds

	serializeErr error
	loadErr      error
	loadPanic    bool
	exportErr    error
	exportPanic  bool

	// deferLoad holds load completion until flush is called.
	deferLoad bool
	pending   func()

	// onAdded runs for every object added during a load, like a change event.
	onAdded func()

	exports          int
	exportTransforms []gg.Matrix
	clears           int
	renders          int
}

func newFakeSurface(objects ...string) *fakeSurface {
	return &fakeSurface{
		objects:   objects,
		transform: gg.Identity(),
		workspace: &Bounds{Left: 10, Top: 20, Width: 300, Height: 200},
	}
}

func (f *fakeSurface) Serialize(keys []string) (Snapshot, error) {
	if f.serializeErr != nil {
		return "", f.serializeErr
	}
	data, err := json.Marshal(f.objects)
	if err != nil {
		return "", err
	}
	return Snapshot(data), nil
}

func (f *fakeSurface) Deserialize(snap Snapshot, done func(error)) {
	if f.loadPanic {
		panic("corrupt")
	}
	if f.loadErr != nil {
		f.finish(func() { done(f.loadErr) })
		return
	}

	var objs []string
	if err := json.Unmarshal([]byte(snap), &objs); err != nil {
		f.finish(func() { done(err) })
		return
	}
	for _, o := range objs {
		f.objects = append(f.objects, o)
		if f.onAdded != nil {
			f.onAdded()
		}
	}
	f.finish(func() { done(nil) })
}

func (f *fakeSurface) finish(fn func()) {
	if f.deferLoad {
		f.pending = fn
		return
	}
	fn()
}

func (f *fakeSurface) flush() {
	if f.pending != nil {
		fn := f.pending
		f.pending = nil
		fn()
	}
}

func (f *fakeSurface) Clear() {
	f.clears++
	f.objects = nil
}

func (f *fakeSurface) Render() {
	f.renders++
}

func (f *fakeSurface) FindByName(name string) (Bounds, bool) {
	if f.workspace == nil || name != DefaultWorkspaceName {
		return Bounds{}, false
	}
	return *f.workspace, true
}

func (f *fakeSurface) ExportRegion(opts ExportOptions) (string, error) {
	f.exports++
	f.exportTransforms = append(f.exportTransforms, f.transform)
	if f.exportPanic {
		panic("exotic object")
	}
	if f.exportErr != nil {
		return "", f.exportErr
	}
	return "data:image/png;base64,AAAA", nil
}

func (f *fakeSurface) Transform() gg.Matrix {
	return f.transform
}

func (f *fakeSurface) SetTransform(m gg.Matrix) {
	f.transform = m
}

var errBroken = errors.New("broken")
