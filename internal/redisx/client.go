package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Cache wraps the client behind plain methods so consumers can declare
// the narrow interface they actually use.
type Cache struct {
	C *redis.Client
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.C.Exists(ctx, key).Result()
	return n > 0, err
}

func (c *Cache) Set(ctx context.Context, key, val string, ttl time.Duration) error {
	return c.C.Set(ctx, key, val, ttl).Err()
}

func (c *Cache) Del(ctx context.Context, key string) error {
	return c.C.Del(ctx, key).Err()
}
