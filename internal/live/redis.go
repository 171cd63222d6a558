package live

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zfogg/menuboard/internal/logger"
)

// DefaultChannel is the Redis pub/sub channel carrying menu events.
const DefaultChannel = "menuboard:events"

// RedisBus relays events between server instances. Publish sends to Redis;
// Run delivers everything received from Redis to the local hub, including
// this instance's own events, so every page sees exactly one copy.
type RedisBus struct {
	client  *redis.Client
	channel string
	hub     *Hub
	origin  string
}

// NewRedisBus connects to redisURL (redis://[:password@]host:port/db) and
// verifies the connection.
func NewRedisBus(ctx context.Context, redisURL string, hub *Hub) (*RedisBus, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid live.redis_url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Log.Info("Live events fan out through Redis", zap.String("address", opts.Addr))
	return &RedisBus{client: client, channel: DefaultChannel, hub: hub, origin: uuid.NewString()}, nil
}

// Publish sends msg to every instance subscribed to the channel.
func (b *RedisBus) Publish(ctx context.Context, msg *Message) error {
	msg.Origin = b.origin
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Run subscribes and forwards events to the hub until ctx ends.
func (b *RedisBus) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				logger.Log.Warn("Dropping malformed live event", zap.Error(err))
				continue
			}
			if err := b.hub.Publish(ctx, &msg); err != nil {
				return nil
			}
		}
	}
}

// Close releases the Redis connection.
func (b *RedisBus) Close() error {
	return b.client.Close()
}
