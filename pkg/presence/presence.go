// Package presence keeps the set of users currently in each room in Redis.
package presence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Registry struct {
	redis *redis.Client
}

func NewRegistry(addr string) *Registry {
	return &Registry{redis: redis.NewClient(&redis.Options{Addr: addr})}
}

// NewRegistryWithClient wraps an existing client.
func NewRegistryWithClient(c *redis.Client) *Registry {
	return &Registry{redis: c}
}

func Key(room string) string {
	return "channel:" + room + ":users"
}

func (r *Registry) Join(ctx context.Context, room, userID string) error {
	if err := r.redis.SAdd(ctx, Key(room), userID).Err(); err != nil {
		return fmt.Errorf("presence join %s/%s: %w", room, userID, err)
	}
	return nil
}

func (r *Registry) Leave(ctx context.Context, room, userID string) error {
	if err := r.redis.SRem(ctx, Key(room), userID).Err(); err != nil {
		return fmt.Errorf("presence leave %s/%s: %w", room, userID, err)
	}
	return nil
}

func (r *Registry) Members(ctx context.Context, room string) ([]string, error) {
	users, err := r.redis.SMembers(ctx, Key(room)).Result()
	if err != nil {
		return nil, fmt.Errorf("presence members %s: %w", room, err)
	}
	return users, nil
}

func (r *Registry) Close() error {
	return r.redis.Close()
}
