package app

import (
	"context"
	"sync"

	"github.com/dshills/texona/internal/engine/history"
	"github.com/dshills/texona/internal/event"
	"github.com/dshills/texona/internal/event/topic"
)

// Event topics used by the editor.
const (
	// TopicCanvasObjectChanged matches every canvas mutation that counts as an edit.
	TopicCanvasObjectChanged topic.Topic = "canvas.object.*"

	// History events
	TopicHistoryChanged    topic.Topic = "history.changed"
	TopicHistorySaved      topic.Topic = "history.saved"
	TopicHistoryLoadFailed topic.Topic = "history.load.failed"

	// Session events
	TopicProjectOpened  topic.Topic = "project.opened"
	TopicConfigReloaded topic.Topic = "config.reloaded"
)

const eventSource = "editor"

// SavedEvent is the payload of history.saved.
type SavedEvent struct {
	ProjectID    string
	Bytes        int
	Recorded     bool
	HasThumbnail bool
}

// LoadFailedEvent is the payload of history.load.failed.
type LoadFailedEvent struct {
	ProjectID string
	Err       error
}

// subscriptionManager tracks the bus subscriptions of one open project.
type subscriptionManager struct {
	mu   sync.Mutex
	bus  *event.Bus
	subs []*event.Subscription
}

func newSubscriptionManager(bus *event.Bus) *subscriptionManager {
	return &subscriptionManager{bus: bus}
}

func (sm *subscriptionManager) subscribe(pattern topic.Topic, handler event.Handler, opts ...event.SubscriptionOption) error {
	sub, err := sm.bus.Subscribe(pattern, handler, opts...)
	if err != nil {
		return err
	}
	sm.mu.Lock()
	sm.subs = append(sm.subs, sub)
	sm.mu.Unlock()
	return nil
}

// unsubscribeAll removes every tracked subscription.
func (sm *subscriptionManager) unsubscribeAll() {
	sm.mu.Lock()
	subs := sm.subs
	sm.subs = nil
	sm.mu.Unlock()

	for _, sub := range subs {
		_ = sm.bus.Unsubscribe(sub)
	}
}

// saveOnEdit records a snapshot for every canvas mutation. Mutations made
// while a snapshot is loading reach Save too; the manager does not record
// them.
func saveOnEdit(m *history.Manager) event.Handler {
	return func(context.Context, event.Envelope) error {
		return m.Save(false)
	}
}
