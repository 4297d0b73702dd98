package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// defaultKeyPrefix namespaces the per-kind event lists.
const defaultKeyPrefix = "mpesa:events:"

// RedisDispatcher pushes events onto a per-kind Redis list for downstream
// workers to drain.
type RedisDispatcher struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDispatcher creates a Redis-backed dispatcher. An empty keyPrefix
// falls back to the default.
func NewRedisDispatcher(client *redis.Client, keyPrefix string) *RedisDispatcher {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisDispatcher{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Dispatch serializes the event and pushes it onto the list for its kind.
func (d *RedisDispatcher) Dispatch(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
	}

	if err := d.client.LPush(ctx, d.keyPrefix+event.Kind, data).Err(); err != nil {
		return fmt.Errorf("failed to push event %s: %w", event.ID, err)
	}

	return nil
}
