package canvas

import (
	"maps"
	"math"

	"golang.org/x/text/unicode/norm"

	"github.com/dshills/texona/internal/engine/history"
)

// ObjectType names a drawable object kind.
type ObjectType string

// Supported object types.
const (
	TypeRect     ObjectType = "rect"
	TypeCircle   ObjectType = "circle"
	TypeEllipse  ObjectType = "ellipse"
	TypeTriangle ObjectType = "triangle"
	TypeLine     ObjectType = "line"
	TypeTextbox  ObjectType = "textbox"
	TypeImage    ObjectType = "image"
)

// Known reports whether the canvas can draw this type.
func (t ObjectType) Known() bool {
	switch t {
	case TypeRect, TypeCircle, TypeEllipse, TypeTriangle, TypeLine, TypeTextbox, TypeImage:
		return true
	default:
		return false
	}
}

// Object is one element of the canvas object graph.
//
// ID is assigned by the canvas and is only stable within a session; it is
// not part of snapshots. All visual state lives in Props.
type Object struct {
	ID    string
	Type  ObjectType
	Props map[string]any
}

// NewObject creates an object with a copy of props.
func NewObject(t ObjectType, props map[string]any) *Object {
	p := make(map[string]any, len(props))
	for k, v := range props {
		p[k] = normalizeValue(v)
	}
	return &Object{Type: t, Props: p}
}

// NewRect creates a rectangle.
func NewRect(left, top, width, height float64, fill string) *Object {
	return NewObject(TypeRect, map[string]any{
		"left": left, "top": top, "width": width, "height": height, "fill": fill,
	})
}

// NewCircle creates a circle whose bounding box starts at left/top.
func NewCircle(left, top, radius float64, fill string) *Object {
	return NewObject(TypeCircle, map[string]any{
		"left": left, "top": top, "radius": radius,
		"width": radius * 2, "height": radius * 2, "fill": fill,
	})
}

// NewTextbox creates a text box.
func NewTextbox(left, top float64, text string, fontSize float64, fill string) *Object {
	return NewObject(TypeTextbox, map[string]any{
		"left": left, "top": top, "text": text, "fontSize": fontSize, "fill": fill,
		"width": float64(len(text)) * fontSize * 0.6, "height": fontSize * 1.2,
	})
}

// NewImage creates an image object from a data URL.
func NewImage(left, top, width, height float64, src string) *Object {
	return NewObject(TypeImage, map[string]any{
		"left": left, "top": top, "width": width, "height": height, "src": src,
	})
}

// NewWorkspace creates the artboard object with the reserved name.
func NewWorkspace(name string, width, height float64) *Object {
	return NewObject(TypeRect, map[string]any{
		"name":        name,
		"left":        0.0,
		"top":         0.0,
		"width":       width,
		"height":      height,
		"fill":        "#ffffff",
		"selectable":  false,
		"hasControls": false,
	})
}

// Float returns a numeric property or 0.
func (o *Object) Float(key string) float64 {
	return o.FloatOr(key, 0)
}

// FloatOr returns a numeric property or def when unset or not a number.
func (o *Object) FloatOr(key string, def float64) float64 {
	if v, ok := o.Props[key].(float64); ok {
		return v
	}
	return def
}

// String returns a string property or "".
func (o *Object) String(key string) string {
	s, _ := o.Props[key].(string)
	return s
}

// Bool returns a boolean property or def.
func (o *Object) Bool(key string, def bool) bool {
	if v, ok := o.Props[key].(bool); ok {
		return v
	}
	return def
}

// Name returns the object's name property.
func (o *Object) Name() string {
	return o.String("name")
}

// Bounds returns the unscaled box of the object.
func (o *Object) Bounds() history.Bounds {
	return history.Bounds{
		Left:   o.Float("left"),
		Top:    o.Float("top"),
		Width:  o.Float("width"),
		Height: o.Float("height"),
	}
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	props := make(map[string]any, len(o.Props))
	for k, v := range o.Props {
		props[k] = cloneValue(v)
	}
	return &Object{ID: o.ID, Type: o.Type, Props: props}
}

// Equal reports whether two objects have the same type and properties.
// IDs are ignored.
func (o *Object) Equal(other *Object) bool {
	if o.Type != other.Type || len(o.Props) != len(other.Props) {
		return false
	}
	return maps.EqualFunc(o.Props, other.Props, valuesEqual)
}

// normalizeValue converts Go numeric types to float64 so that values read
// back from JSON compare equal to values that were set. Strings are put in
// NFC form.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case string:
		return norm.NFC.String(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = normalizeValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, e := range n {
			out[k] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}

// finiteValue reports whether every number in v is finite.
func finiteValue(v any) bool {
	switch n := v.(type) {
	case float64:
		return !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return finiteValue(float64(n))
	case []any:
		for _, e := range n {
			if !finiteValue(e) {
				return false
			}
		}
	case map[string]any:
		for _, e := range n {
			if !finiteValue(e) {
				return false
			}
		}
	}
	return true
}

func cloneValue(v any) any {
	switch n := v.(type) {
	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, e := range n {
			out[k] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		return maps.EqualFunc(av, bv, valuesEqual)
	default:
		return a == b
	}
}
