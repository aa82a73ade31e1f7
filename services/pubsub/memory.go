package pubsub

import (
	"context"
	"sync"

	"github.com/etarip26/EduConnect/core"
)

// MemoryBroker is a single-process broker, used when no Redis address is configured and in tests.
type MemoryBroker struct {
	mu     sync.RWMutex
	topics map[string]map[*memorySubscription]struct{}
}

var _ core.Broker = (*MemoryBroker)(nil)

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{topics: make(map[string]map[*memorySubscription]struct{})}
}

func (b *MemoryBroker) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.topics[topic] {
		msg := make([]byte, len(payload))
		copy(msg, payload)
		select {
		case sub.out <- msg:
		default: // slow consumer
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, topic string) (core.Subscription, error) {
	sub := &memorySubscription{broker: b, topic: topic, out: make(chan []byte, subscriptionBuffer)}
	b.mu.Lock()
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*memorySubscription]struct{})
		b.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	b.mu.Unlock()
	context.AfterFunc(ctx, func() { _ = sub.Close() })
	return sub, nil
}

// Subscribers returns the number of live subscriptions of the topic.
func (b *MemoryBroker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

func (b *MemoryBroker) unsubscribe(sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.topics[sub.topic]; ok {
		if _, ok = subs[sub]; ok {
			delete(subs, sub)
			close(sub.out)
		}
		if len(subs) == 0 {
			delete(b.topics, sub.topic)
		}
	}
}

type memorySubscription struct {
	broker *MemoryBroker
	topic  string
	out    chan []byte
}

func (s *memorySubscription) Messages() <-chan []byte { return s.out }

func (s *memorySubscription) Close() error {
	s.broker.unsubscribe(s)
	return nil
}
