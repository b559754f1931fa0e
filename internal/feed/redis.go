package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisFeed fans changes out to every API instance through a Redis Pub/Sub channel.
type RedisFeed struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisFeed(client redis.UniversalClient, channel string) *RedisFeed {
	return &RedisFeed{
		client:  client,
		channel: channel,
	}
}

func (f *RedisFeed) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode change: %w", err)
	}

	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

func (f *RedisFeed) Listen(ctx context.Context, ready func(), handle func(Change)) error {
	pubsub := f.client.Subscribe(ctx, f.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", f.channel, err)
	}

	if ready != nil {
		ready()
	}

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, redis.ErrClosed) {
				return fmt.Errorf("change feed closed: %w", err)
			}
			return fmt.Errorf("failed to receive change: %w", err)
		}

		var change Change
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			slog.Warn("Dropping malformed change event", "channel", msg.Channel, "error", err)
			continue
		}

		handle(change)
	}
}
