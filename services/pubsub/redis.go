// Package pubsub fans chat events out to the websocket connections subscribed to a room.
package pubsub

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/etarip26/EduConnect/core"
)

const subscriptionBuffer = 64

// RedisBroker relays messages through Redis Pub/Sub so every API instance sees every room event.
type RedisBroker struct {
	client *redis.Client
}

var _ core.Broker = (*RedisBroker)(nil)

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	return errors.Wrap(b.client.Publish(ctx, topic, payload).Err(), "publishing to redis")
}

func (b *RedisBroker) Subscribe(ctx context.Context, topic string) (core.Subscription, error) {
	ps := b.client.Subscribe(ctx, topic)
	// wait for the subscription confirmation so no message published after Subscribe returns is lost
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, errors.Wrap(err, "subscribing to redis")
	}

	sub := &redisSubscription{ps: ps, out: make(chan []byte, subscriptionBuffer), done: make(chan struct{})}
	go sub.pump()
	context.AfterFunc(ctx, func() { _ = sub.Close() })
	return sub, nil
}

type redisSubscription struct {
	ps   *redis.PubSub
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func (s *redisSubscription) pump() {
	defer close(s.out)
	for msg := range s.ps.Channel() {
		select {
		case s.out <- []byte(msg.Payload):
		case <-s.done:
			return
		default: // slow consumer; drop rather than block the connection
		}
	}
}

func (s *redisSubscription) Messages() <-chan []byte { return s.out }

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
