package core

import "context"

type (
	// Broker fans payloads out to the live subscribers of a topic.
	// Delivery is at-most-once: payloads published while nobody listens are lost.
	Broker interface {
		Publish(ctx context.Context, topic string, payload []byte) error
		Subscribe(ctx context.Context, topic string) (Subscription, error)
	}

	Subscription interface {
		// Messages is closed once the subscription is closed or its context is done.
		Messages() <-chan []byte
		Close() error
	}
)
