package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/entwine-app/entwine/internal/model"
)

// DashboardCache keeps a short-lived copy of the couple dashboard for the
// quickStatus polling endpoint, so polls don't hit Mongo.
type DashboardCache interface {
	Set(ctx context.Context, pairKey string, d *model.Dashboard) error
	Get(ctx context.Context, pairKey string) (*model.Dashboard, error)
	Invalidate(ctx context.Context, pairKey string) error
}

type dashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDashboardCache(client *redis.Client) DashboardCache {
	return &dashboardCache{
		client: client,
		ttl:    5 * time.Minute,
	}
}

func (c *dashboardCache) key(pairKey string) string {
	return fmt.Sprintf("couple:%s:dashboard", pairKey)
}

func (c *dashboardCache) Set(ctx context.Context, pairKey string, d *model.Dashboard) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(pairKey), data, c.ttl).Err()
}

func (c *dashboardCache) Get(ctx context.Context, pairKey string) (*model.Dashboard, error) {
	data, err := c.client.Get(ctx, c.key(pairKey)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d model.Dashboard
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *dashboardCache) Invalidate(ctx context.Context, pairKey string) error {
	return c.client.Del(ctx, c.key(pairKey)).Err()
}
