package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceCache tracks which users currently hold a live socket, so the
// partner_connected event survives multi-instance deployments.
type PresenceCache interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
	IsOnline(ctx context.Context, userID string) (bool, error)
	Refresh(ctx context.Context, userID string) error
}

type presenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresenceCache(client *redis.Client) PresenceCache {
	return &presenceCache{
		client: client,
		ttl:    90 * time.Second,
	}
}

func (c *presenceCache) key(userID string) string {
	return fmt.Sprintf("presence:%s", userID)
}

func (c *presenceCache) SetOnline(ctx context.Context, userID string) error {
	return c.client.Set(ctx, c.key(userID), "1", c.ttl).Err()
}

func (c *presenceCache) SetOffline(ctx context.Context, userID string) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

func (c *presenceCache) IsOnline(ctx context.Context, userID string) (bool, error) {
	_, err := c.client.Get(ctx, c.key(userID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *presenceCache) Refresh(ctx context.Context, userID string) error {
	return c.client.Expire(ctx, c.key(userID), c.ttl).Err()
}
