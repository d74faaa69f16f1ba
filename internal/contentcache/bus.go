// internal/contentcache/bus.go
//
// Cross-instance invalidation over Redis pub/sub.
//
// Context
// -------
// With more than one web instance behind the load balancer, a publish
// webhook reaches only one of them.  That instance drops its local entries
// and publishes the tags on a Redis channel; every other instance runs
// Listen and drops the same tags locally.  Messages carry the sender's
// origin id so an instance ignores its own echo.
//
// Delivery is at most once per subscriber.  An instance that is
// disconnected while a message is published keeps serving its copy until
// the TTL expires.  No acknowledgement is collected.
package contentcache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bus publishes invalidated tags to peer instances.
type Bus interface {
	Publish(ctx context.Context, tags []string) error
}

type message struct {
	Origin string   `json:"origin"`
	Tags   []string `json:"tags"`
}

// RedisBus implements Bus on a Redis channel.
type RedisBus struct {
	client  *redis.Client
	channel string
	origin  string
}

// NewRedisBus returns a bus bound to channel.  Each process gets a random
// origin id.
func NewRedisBus(client *redis.Client, channel string) *RedisBus {
	return &RedisBus{client: client, channel: channel, origin: uuid.NewString()}
}

// Publish sends tags to every subscriber of the channel.
func (b *RedisBus) Publish(ctx context.Context, tags []string) error {
	payload, err := json.Marshal(message{Origin: b.origin, Tags: tags})
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", b.channel, err)
	}
	return nil
}

// Listen subscribes to the channel and drops tags from peer messages in c
// until ctx is cancelled.  It returns once the subscription is confirmed
// and processes messages in a background goroutine.
func (b *RedisBus) Listen(ctx context.Context, c *Cache) error {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var m message
				if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
					zap.L().Warn("cache bus: bad payload", zap.Error(err))
					continue
				}
				if m.Origin == b.origin || len(m.Tags) == 0 {
					continue
				}
				c.drop(m.Tags)
			}
		}
	}()
	return nil
}
