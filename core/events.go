package core

import (
	"context"
	"time"
)

// Event is a domain event published to the message broker after a state change.
type Event struct {
	Type       string      `json:"type"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func NewEvent(typ string, payload interface{}) Event {
	return Event{Type: typ, Payload: payload, OccurredAt: time.Now().UTC()}
}

type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}
