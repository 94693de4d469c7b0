package event

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/texona/internal/event/topic"
)

// Stats reports delivery counters.
type Stats struct {
	EventsPublished  uint64
	EventsDelivered  uint64
	HandlerErrors    uint64
	HandlerPanics    uint64
	SubscriptionsNow int
}

// Bus delivers events synchronously on the publishing goroutine.
//
// Handlers may publish or subscribe re-entrantly: the subscription list is
// copied before dispatch and no lock is held while a handler runs.
type Bus struct {
	mu   sync.RWMutex
	subs []*Subscription
	seq  uint64

	logger *slog.Logger

	eventsPublished atomic.Uint64
	eventsDelivered atomic.Uint64
	handlerErrors   atomic.Uint64
	handlerPanics   atomic.Uint64
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used for handler failures.
func WithLogger(l *slog.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBus creates a new event bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler for every topic matching pattern.
func (b *Bus) Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (*Subscription, error) {
	if !pattern.IsValid() {
		return nil, ErrInvalidTopic
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	sub := &Subscription{
		id:       uuid.NewString(),
		pattern:  pattern,
		handler:  handler,
		priority: PriorityNormal,
	}
	for _, opt := range opts {
		opt(sub)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	sub.seq = b.seq
	b.subs = append(b.subs, sub)
	sort.SliceStable(b.subs, func(i, j int) bool {
		if b.subs[i].priority != b.subs[j].priority {
			return b.subs[i].priority < b.subs[j].priority
		}
		return b.subs[i].seq < b.subs[j].seq
	})
	return sub, nil
}

// Unsubscribe removes a subscription.
func (b *Bus) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s == sub {
			sub.Cancel()
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Publish delivers env to all active matching subscriptions in priority order.
// Handler errors and panics do not stop delivery; they are joined and returned.
func (b *Bus) Publish(ctx context.Context, env Envelope) error {
	if !env.Topic.IsValid() || env.Topic.IsWildcard() {
		return ErrInvalidTopic
	}
	b.eventsPublished.Add(1)

	var errs []error
	for _, sub := range b.match(env.Topic) {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if !sub.IsActive() {
			continue
		}
		if err := b.deliver(ctx, sub, env); err != nil {
			errs = append(errs, err)
			continue
		}
		b.eventsDelivered.Add(1)
	}
	return errors.Join(errs...)
}

func (b *Bus) match(t topic.Topic) []*Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []*Subscription
	for _, sub := range b.subs {
		if t.Matches(sub.pattern) {
			out = append(out, sub)
		}
	}
	return out
}

func (b *Bus) deliver(ctx context.Context, sub *Subscription, env Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			b.logger.Error("event handler panicked",
				"topic", env.Topic.String(), "subscription", sub.id, "panic", r)
			err = &PanicError{SubscriptionID: sub.id, Topic: env.Topic.String(), Value: r}
		}
	}()

	if herr := sub.handler(ctx, env); herr != nil {
		b.handlerErrors.Add(1)
		b.logger.Warn("event handler failed",
			"topic", env.Topic.String(), "subscription", sub.id, "error", herr)
		return &HandlerError{SubscriptionID: sub.id, Topic: env.Topic.String(), Err: herr}
	}
	return nil
}

// Stats returns a snapshot of the delivery counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		EventsPublished:  b.eventsPublished.Load(),
		EventsDelivered:  b.eventsDelivered.Load(),
		HandlerErrors:    b.handlerErrors.Load(),
		HandlerPanics:    b.handlerPanics.Load(),
		SubscriptionsNow: n,
	}
}
