package canvas

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/texona/internal/engine/history"
)

// documentVersion is written to every snapshot.
const documentVersion = "1"

var defaultKeys = []string{
	"name",
	"gradientAngle",
	"selectable",
	"hasControls",
	"linkData",
	"editable",
	"extensionType",
	"extension",
}

// geometryKeys are always serialized in addition to the allow-list.
var geometryKeys = []string{
	"left", "top", "width", "height", "scaleX", "scaleY", "angle", "opacity",
	"fill", "stroke", "strokeWidth", "rx", "ry", "radius",
	"x1", "y1", "x2", "y2",
	"text", "fontSize", "fontFamily", "fontWeight", "textAlign",
	"src", "shadow", "visible",
}

// DefaultKeys returns the default allow-list of extra properties kept in
// snapshots.
func DefaultKeys() []string {
	return slices.Clone(defaultKeys)
}

// Serialize writes the object graph as a JSON document. Only geometry
// properties and the given extra keys are written; nil keys selects the
// canvas allow-list.
func (c *Canvas) Serialize(keys []string) (history.Snapshot, error) {
	c.mu.Lock()
	if keys == nil {
		keys = c.keys
	}
	bg := c.background
	objs := make([]*Object, len(c.objects))
	for i, o := range c.objects {
		objs[i] = o.Clone()
	}
	c.mu.Unlock()

	for _, k := range keys {
		if !validKey(k) {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, k)
		}
	}

	doc := `{"version":"` + documentVersion + `","objects":[]}`
	var err error
	if bg != "" {
		if doc, err = sjson.Set(doc, "background", bg); err != nil {
			return "", err
		}
	}
	for i, o := range objs {
		raw, err := marshalObject(o, keys)
		if err != nil {
			return "", fmt.Errorf("object %d: %w", i, err)
		}
		if doc, err = sjson.SetRaw(doc, "objects.-1", raw); err != nil {
			return "", fmt.Errorf("object %d: %w", i, err)
		}
	}
	// Props edited in place bypass Set; never hand out a document that
	// cannot be loaded back.
	if !gjson.Valid(doc) {
		return "", fmt.Errorf("%w: document is not valid JSON", ErrInvalidValue)
	}
	return history.Snapshot(doc), nil
}

// Deserialize replaces the object graph with the snapshot contents. An
// added event is published per object. With deferred loading, done is
// queued until Flush.
func (c *Canvas) Deserialize(snap history.Snapshot, done func(error)) {
	c.mu.Lock()
	keys := c.keys
	c.mu.Unlock()

	objs, bg, err := parseDocument(string(snap), keys)
	if err == nil {
		c.mu.Lock()
		c.objects = make([]*Object, 0, len(objs))
		c.background = bg
		c.mu.Unlock()

		for _, o := range objs {
			o.ID = uuid.NewString()
			c.mu.Lock()
			c.objects = append(c.objects, o)
			c.mu.Unlock()
			c.publish(TopicObjectAdded, objectEvent(o, ""))
		}
	}

	complete := func() {
		if done != nil {
			done(err)
		}
	}

	c.mu.Lock()
	if c.deferLoad {
		c.pendingLoads = append(c.pendingLoads, complete)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	complete()
}

func marshalObject(o *Object, keys []string) (string, error) {
	raw, err := sjson.Set("{}", "type", string(o.Type))
	if err != nil {
		return "", err
	}
	write := func(k string) error {
		v, ok := o.Props[k]
		if !ok || k == "type" || gjson.Get(raw, k).Exists() {
			return nil
		}
		raw, err = sjson.Set(raw, k, v)
		return err
	}
	for _, k := range geometryKeys {
		if err := write(k); err != nil {
			return "", fmt.Errorf("property %s: %w", k, err)
		}
	}
	for _, k := range keys {
		if err := write(k); err != nil {
			return "", fmt.Errorf("property %s: %w", k, err)
		}
	}
	return raw, nil
}

func parseDocument(doc string, keys []string) ([]*Object, string, error) {
	if !gjson.Valid(doc) {
		return nil, "", fmt.Errorf("%w: invalid JSON", ErrMalformedSnapshot)
	}
	root := gjson.Parse(doc)
	if !root.IsObject() {
		return nil, "", fmt.Errorf("%w: not an object", ErrMalformedSnapshot)
	}
	list := root.Get("objects")
	if list.Exists() && !list.IsArray() {
		return nil, "", fmt.Errorf("%w: objects is not an array", ErrMalformedSnapshot)
	}

	allowed := make(map[string]bool, len(geometryKeys)+len(keys))
	for _, k := range geometryKeys {
		allowed[k] = true
	}
	for _, k := range keys {
		allowed[k] = true
	}

	var objs []*Object
	var perr error
	list.ForEach(func(_, item gjson.Result) bool {
		t := ObjectType(item.Get("type").String())
		if !t.Known() {
			perr = fmt.Errorf("%w: object %d: %w %q", ErrMalformedSnapshot, len(objs), ErrUnknownType, t)
			return false
		}
		o := &Object{Type: t, Props: make(map[string]any)}
		item.ForEach(func(k, v gjson.Result) bool {
			if allowed[k.String()] {
				o.Props[k.String()] = v.Value()
			}
			return true
		})
		objs = append(objs, o)
		return true
	})
	if perr != nil {
		return nil, "", perr
	}
	return objs, root.Get("background").String(), nil
}
