package realtime

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bridge subscribes to the shared Redis notification channel and forwards
// every message verbatim to the hub. Publish order within the broker is the
// only ordering guarantee.
type Bridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *zap.Logger
}

// NewBridge wires a Redis subscription to a hub.
func NewBridge(client *redis.Client, channel string, hub *Hub, logger *zap.Logger) *Bridge {
	return &Bridge{client: client, channel: channel, hub: hub, logger: logger}
}

// Run blocks consuming the subscription until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	b.logger.Info("realtime bridge subscribed", zap.String("channel", b.channel))

	b.forward(ctx, sub.Channel())
}

func (b *Bridge) forward(ctx context.Context, ch <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.hub.Broadcast([]byte(msg.Payload))
		}
	}
}
