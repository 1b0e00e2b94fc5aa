package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestForwardBroadcastsSubscriptionMessages(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := hub.Register()
	bridge := NewBridge(nil, "notifications", hub, zap.NewNop())

	msgs := make(chan *redis.Message, 2)
	msgs <- &redis.Message{Channel: "notifications", Payload: `{"issue_id":"i1","kind":"CREATED"}`}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		bridge.forward(ctx, msgs)
	}()

	select {
	case payload := <-client.Send():
		assert.JSONEq(t, `{"issue_id":"i1","kind":"CREATED"}`, string(payload))
	case <-time.After(time.Second):
		t.Fatal("message was not forwarded to the hub")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forward did not stop on context cancel")
	}
}

func TestForwardStopsWhenSubscriptionCloses(t *testing.T) {
	hub := NewHub(zap.NewNop())
	bridge := NewBridge(nil, "notifications", hub, zap.NewNop())

	msgs := make(chan *redis.Message)
	close(msgs)

	done := make(chan struct{})
	go func() {
		defer close(done)
		bridge.forward(context.Background(), msgs)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forward did not stop on closed channel")
	}
	require.Equal(t, 0, hub.ClientCount())
}
