package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestMemoryBroker_fanOut(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBroker()

	s1, err := b.Subscribe(ctx, "chat:room:1")
	require.NoError(t, err)
	s2, err := b.Subscribe(ctx, "chat:room:1")
	require.NoError(t, err)
	other, err := b.Subscribe(ctx, "chat:room:2")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "chat:room:1", []byte("hello")))

	assert.Equal(t, "hello", string(receive(t, s1.Messages())))
	assert.Equal(t, "hello", string(receive(t, s2.Messages())))
	select {
	case msg := <-other.Messages():
		t.Fatalf("unexpected message on another room: %s", msg)
	default:
	}
}

func TestMemoryBroker_close(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBroker()

	sub, err := b.Subscribe(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Subscribers("t"))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close()) // idempotent
	assert.Equal(t, 0, b.Subscribers("t"))

	_, open := <-sub.Messages()
	assert.False(t, open)

	// publishing to a topic without subscribers is a no-op
	assert.NoError(t, b.Publish(ctx, "t", []byte("x")))
}

func TestMemoryBroker_closesWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewMemoryBroker()

	sub, err := b.Subscribe(ctx, "t")
	require.NoError(t, err)
	cancel()

	select {
	case _, open := <-sub.Messages():
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after context cancel")
	}
	assert.Equal(t, 0, b.Subscribers("t"))
}
