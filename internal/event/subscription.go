package event

import (
	"context"
	"sync/atomic"

	"github.com/dshills/texona/internal/event/topic"
)

// Handler processes a delivered event.
type Handler func(ctx context.Context, env Envelope) error

// Priority determines handler execution order.
// Lower values execute first.
type Priority int

const (
	// PriorityCritical is for handlers that keep core state consistent.
	PriorityCritical Priority = 0

	// PriorityNormal is the default priority.
	PriorityNormal Priority = 200

	// PriorityLow is for logging and diagnostics handlers that run last.
	PriorityLow Priority = 300
)

// Subscription is a registered handler for a topic pattern.
type Subscription struct {
	id       string
	pattern  topic.Topic
	handler  Handler
	priority Priority
	seq      uint64

	paused    atomic.Bool
	cancelled atomic.Bool
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*Subscription)

// WithPriority sets the handler priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(s *Subscription) {
		s.priority = p
	}
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Topic returns the subscribed topic pattern.
func (s *Subscription) Topic() topic.Topic {
	return s.pattern
}

// Pause temporarily stops event delivery to this subscription.
func (s *Subscription) Pause() {
	s.paused.Store(true)
}

// Resume restarts event delivery after a pause.
func (s *Subscription) Resume() {
	s.paused.Store(false)
}

// IsActive returns true if the subscription can receive events.
func (s *Subscription) IsActive() bool {
	return !s.paused.Load() && !s.cancelled.Load()
}

// Cancel permanently stops delivery. The bus drops cancelled subscriptions lazily.
func (s *Subscription) Cancel() {
	s.cancelled.Store(true)
}
