package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/texona/internal/event/topic"
)

// Metadata contains standard information attached to every event.
type Metadata struct {
	// ID is a unique identifier for this event instance.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source identifies the component that published the event.
	Source string
}

// Envelope wraps an event payload for type-erased delivery.
type Envelope struct {
	// Topic is the event topic.
	Topic topic.Topic

	// Payload is the event-specific data.
	Payload any

	// Metadata is the event metadata.
	Metadata Metadata
}

// NewEnvelope creates an envelope with a fresh ID and timestamp.
func NewEnvelope(t topic.Topic, payload any, source string) Envelope {
	return Envelope{
		Topic:   t,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// PayloadAs extracts the typed payload from an envelope.
func PayloadAs[T any](env Envelope) (T, bool) {
	v, ok := env.Payload.(T)
	return v, ok
}
