package bus

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBridge fans events out across instances over a pub/sub channel.
// Locally published events go to the local hub and to Redis; events arriving
// from other instances are relayed into the local hub. Origin tagging stops
// an instance from re-delivering its own events.
type RedisBridge struct {
	Client  *redis.Client
	Channel string
	Local   *Hub
	Logger  *zap.Logger

	instanceID string
}

func NewRedisBridge(client *redis.Client, channel string, local *Hub, logger *zap.Logger) *RedisBridge {
	return &RedisBridge{
		Client:     client,
		Channel:    channel,
		Local:      local,
		Logger:     logger,
		instanceID: uuid.NewString(),
	}
}

func (b *RedisBridge) Publish(ctx context.Context, evt Event) {
	if b == nil {
		return
	}
	if b.Local != nil {
		b.Local.Publish(ctx, evt)
	}
	if b.Client == nil {
		return
	}
	evt.Origin = b.instanceID
	raw, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := b.Client.Publish(ctx, b.Channel, raw).Err(); err != nil && b.Logger != nil {
		b.Logger.Debug("redis publish failed", zap.Error(err))
	}
}

// Run relays remote events into the local hub until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	if b == nil || b.Client == nil || b.Local == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	sub := b.Client.Subscribe(ctx, b.Channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var evt Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				if b.Logger != nil {
					b.Logger.Debug("drop malformed bus event", zap.Error(err))
				}
				continue
			}
			if evt.Origin == b.instanceID {
				continue
			}
			b.Local.Publish(ctx, evt)
		}
	}
}
