package canvas

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/google/uuid"

	"github.com/dshills/texona/internal/engine/history"
	"github.com/dshills/texona/internal/event"
	"github.com/dshills/texona/internal/event/topic"
)

// Topics published by a Canvas.
const (
	TopicObjectAdded    topic.Topic = "canvas.object.added"
	TopicObjectModified topic.Topic = "canvas.object.modified"
	TopicObjectRemoved  topic.Topic = "canvas.object.removed"
	TopicCleared        topic.Topic = "canvas.cleared"
)

const eventSource = "canvas"

// ObjectEvent is the payload of the canvas.object.* topics.
type ObjectEvent struct {
	ID   string
	Type ObjectType
	Name string

	// Key is the changed property for modified events.
	Key string
}

// Canvas is an in-memory object graph with a viewport transform.
// It satisfies history.Surface.
//
// Mutations publish events on the configured bus after the canvas lock is
// released, so handlers may call back into the canvas.
type Canvas struct {
	mu         sync.Mutex
	width      int
	height     int
	background string
	objects    []*Object
	transform  gg.Matrix
	keys       []string

	deferLoad    bool
	pendingLoads []func()

	frame  *gg.Context
	images *imageCache

	bus    *event.Bus
	logger *slog.Logger
}

var _ history.Surface = (*Canvas)(nil)

// Option configures a Canvas.
type Option func(*Canvas)

// WithBus sets the bus mutation events are published on.
func WithBus(b *event.Bus) Option {
	return func(c *Canvas) {
		c.bus = b
	}
}

// WithBackground sets the page background color.
func WithBackground(hex string) Option {
	return func(c *Canvas) {
		c.background = hex
	}
}

// WithKeys sets the property allow-list applied when loading snapshots.
func WithKeys(keys []string) Option {
	return func(c *Canvas) {
		c.keys = slices.Clone(keys)
	}
}

// WithDeferredLoad makes Deserialize queue its completion until Flush.
func WithDeferredLoad() Option {
	return func(c *Canvas) {
		c.deferLoad = true
	}
}

// WithLogger sets the canvas logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Canvas) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an empty canvas with the given viewport size in pixels.
func New(width, height int, opts ...Option) *Canvas {
	c := &Canvas{
		width:     max(width, 1),
		height:    max(height, 1),
		transform: gg.Identity(),
		keys:      DefaultKeys(),
		images:    newImageCache(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Size returns the viewport size in pixels.
func (c *Canvas) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Background returns the page background color.
func (c *Canvas) Background() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.background
}

// SetBackground changes the page background color.
func (c *Canvas) SetBackground(hex string) {
	c.mu.Lock()
	c.background = hex
	c.mu.Unlock()
	c.publish(TopicObjectModified, ObjectEvent{Key: "background"})
}

// Add appends an object to the top of the stack and returns its ID.
func (c *Canvas) Add(o *Object) (string, error) {
	if !o.Type.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, o.Type)
	}
	for k, v := range o.Props {
		if !finiteValue(v) {
			return "", fmt.Errorf("%w: %s", ErrInvalidValue, k)
		}
	}
	obj := o.Clone()
	obj.ID = uuid.NewString()

	c.mu.Lock()
	c.objects = append(c.objects, obj)
	c.mu.Unlock()

	c.publish(TopicObjectAdded, objectEvent(obj, ""))
	return obj.ID, nil
}

// Remove deletes the object with the given ID.
func (c *Canvas) Remove(id string) error {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	obj := c.objects[i]
	c.objects = slices.Delete(c.objects, i, i+1)
	c.mu.Unlock()

	c.publish(TopicObjectRemoved, objectEvent(obj, ""))
	return nil
}

// Set changes one property of an object.
func (c *Canvas) Set(id, key string, value any) error {
	if key == "type" {
		return ErrReadOnlyKey
	}
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	value = normalizeValue(value)
	if !finiteValue(value) {
		return fmt.Errorf("%w: %s", ErrInvalidValue, key)
	}

	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	obj := c.objects[i]
	if value == nil {
		delete(obj.Props, key)
	} else {
		obj.Props[key] = value
	}
	ev := objectEvent(obj, key)
	c.mu.Unlock()

	c.publish(TopicObjectModified, ev)
	return nil
}

// BringToFront moves an object to the top of the stack.
func (c *Canvas) BringToFront(id string) error {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	obj := c.objects[i]
	c.objects = append(slices.Delete(c.objects, i, i+1), obj)
	c.mu.Unlock()

	c.publish(TopicObjectModified, objectEvent(obj, "zIndex"))
	return nil
}

// Get returns a copy of the object with the given ID.
func (c *Canvas) Get(id string) (*Object, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return nil, false
	}
	return c.objects[i].Clone(), true
}

// Objects returns copies of all objects, bottom first.
func (c *Canvas) Objects() []*Object {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Object, len(c.objects))
	for i, o := range c.objects {
		out[i] = o.Clone()
	}
	return out
}

// Len returns the number of objects.
func (c *Canvas) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.objects)
}

// Find returns copies of the objects matching the predicate.
func (c *Canvas) Find(match func(*Object) bool) []*Object {
	var out []*Object
	for _, o := range c.Objects() {
		if match(o) {
			out = append(out, o)
		}
	}
	return out
}

// FindByName returns the bounds of the first object with the given name.
func (c *Canvas) FindByName(name string) (history.Bounds, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range c.objects {
		if o.Name() == name {
			return o.Bounds(), true
		}
	}
	return history.Bounds{}, false
}

// Clear removes every object. The background is kept.
func (c *Canvas) Clear() {
	c.mu.Lock()
	c.objects = nil
	c.mu.Unlock()
	c.publish(TopicCleared, nil)
}

// Transform returns the viewport transform.
func (c *Canvas) Transform() gg.Matrix {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform
}

// SetTransform replaces the viewport transform.
func (c *Canvas) SetTransform(m gg.Matrix) {
	c.mu.Lock()
	c.transform = m
	c.mu.Unlock()
}

// Zoom scales the viewport around a point in viewport pixels.
func (c *Canvas) Zoom(factor, cx, cy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	around := gg.Translate(cx, cy).Multiply(gg.Scale(factor, factor)).Multiply(gg.Translate(-cx, -cy))
	c.transform = around.Multiply(c.transform)
}

// Pan moves the viewport by dx, dy pixels.
func (c *Canvas) Pan(dx, dy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transform = gg.Translate(dx, dy).Multiply(c.transform)
}

// Detach stops the canvas from publishing events. Later mutations still
// apply but nobody is notified.
func (c *Canvas) Detach() {
	c.mu.Lock()
	c.bus = nil
	c.mu.Unlock()
}

// Flush runs load completions queued by a deferred Deserialize.
// It returns the number of completions run.
func (c *Canvas) Flush() int {
	c.mu.Lock()
	pending := c.pendingLoads
	c.pendingLoads = nil
	c.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

func (c *Canvas) indexLocked(id string) int {
	return slices.IndexFunc(c.objects, func(o *Object) bool { return o.ID == id })
}

func (c *Canvas) publish(t topic.Topic, payload any) {
	c.mu.Lock()
	bus := c.bus
	c.mu.Unlock()
	if bus == nil {
		return
	}
	if err := bus.Publish(context.Background(), event.NewEnvelope(t, payload, eventSource)); err != nil {
		c.logger.Warn("canvas event handler failed", "topic", t, "err", err)
	}
}

func objectEvent(o *Object, key string) ObjectEvent {
	return ObjectEvent{ID: o.ID, Type: o.Type, Name: o.Name(), Key: key}
}

func validKey(k string) bool {
	return k != "" && !strings.ContainsAny(k, ".*?|#@\\\"")
}
