package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/texona/internal/event/topic"
)

func TestBusSubscribeValidation(t *testing.T) {
	bus := NewBus()

	_, err := bus.Subscribe("", func(context.Context, Envelope) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidTopic)

	_, err = bus.Subscribe("canvas.**", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestBusPublishMatchesWildcards(t *testing.T) {
	bus := NewBus()
	var got []topic.Topic

	_, err := bus.Subscribe("canvas.**", func(_ context.Context, env Envelope) error {
		got = append(got, env.Topic)
		return nil
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, NewEnvelope("canvas.object.added", 1, "test")))
	require.NoError(t, bus.Publish(ctx, NewEnvelope("history.saved", 2, "test")))
	require.NoError(t, bus.Publish(ctx, NewEnvelope("canvas.cleared", 3, "test")))

	assert.Equal(t, []topic.Topic{"canvas.object.added", "canvas.cleared"}, got)
	assert.Equal(t, uint64(3), bus.Stats().EventsPublished)
	assert.Equal(t, uint64(2), bus.Stats().EventsDelivered)
}

func TestBusPublishRejectsWildcardTopic(t *testing.T) {
	bus := NewBus()
	err := bus.Publish(context.Background(), NewEnvelope("canvas.*", nil, "test"))
	assert.ErrorIs(t, err, ErrInvalidTopic)
}

func TestBusPriorityOrder(t *testing.T) {
	bus := NewBus()
	var order []string

	record := func(name string) Handler {
		return func(context.Context, Envelope) error {
			order = append(order, name)
			return nil
		}
	}

	_, _ = bus.Subscribe("a", record("low"), WithPriority(PriorityLow))
	_, _ = bus.Subscribe("a", record("normal-1"))
	_, _ = bus.Subscribe("a", record("critical"), WithPriority(PriorityCritical))
	_, _ = bus.Subscribe("a", record("normal-2"))

	require.NoError(t, bus.Publish(context.Background(), NewEnvelope("a", nil, "test")))
	assert.Equal(t, []string{"critical", "normal-1", "normal-2", "low"}, order)
}

func TestBusHandlerErrorsAndPanics(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	delivered := false

	_, _ = bus.Subscribe("a", func(context.Context, Envelope) error { return boom })
	_, _ = bus.Subscribe("a", func(context.Context, Envelope) error { panic("kaboom") })
	_, _ = bus.Subscribe("a", func(context.Context, Envelope) error {
		delivered = true
		return nil
	})

	err := bus.Publish(context.Background(), NewEnvelope("a", nil, "test"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrHandlerPanic)
	assert.True(t, delivered)

	stats := bus.Stats()
	assert.Equal(t, uint64(1), stats.HandlerErrors)
	assert.Equal(t, uint64(1), stats.HandlerPanics)
}

func TestBusReentrantPublish(t *testing.T) {
	bus := NewBus()
	var seen []topic.Topic

	_, _ = bus.Subscribe("outer", func(ctx context.Context, env Envelope) error {
		seen = append(seen, env.Topic)
		return bus.Publish(ctx, NewEnvelope("inner", nil, "test"))
	})
	_, _ = bus.Subscribe("inner", func(_ context.Context, env Envelope) error {
		seen = append(seen, env.Topic)
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), NewEnvelope("outer", nil, "test")))
	assert.Equal(t, []topic.Topic{"outer", "inner"}, seen)
}

func TestBusPauseResumeUnsubscribe(t *testing.T) {
	bus := NewBus()
	count := 0

	sub, err := bus.Subscribe("a", func(context.Context, Envelope) error {
		count++
		return nil
	})
	require.NoError(t, err)

	ctx := context.Background()
	sub.Pause()
	require.NoError(t, bus.Publish(ctx, NewEnvelope("a", nil, "test")))
	assert.Equal(t, 0, count)

	sub.Resume()
	require.NoError(t, bus.Publish(ctx, NewEnvelope("a", nil, "test")))
	assert.Equal(t, 1, count)

	require.NoError(t, bus.Unsubscribe(sub))
	require.NoError(t, bus.Publish(ctx, NewEnvelope("a", nil, "test")))
	assert.Equal(t, 1, count)
	assert.ErrorIs(t, bus.Unsubscribe(sub), ErrSubscriptionNotFound)
	assert.Equal(t, 0, bus.Stats().SubscriptionsNow)
}

func TestPayloadAs(t *testing.T) {
	env := NewEnvelope("a", 42, "test")
	v, ok := PayloadAs[int](env)
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = PayloadAs[string](env)
	assert.False(t, ok)
	assert.NotEmpty(t, env.Metadata.ID)
	assert.Equal(t, "test", env.Metadata.Source)
}
