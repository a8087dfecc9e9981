package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache stores JSON payloads in Redis. Concurrent misses for the same key
// share a single fill. A nil client turns every lookup into a miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" || c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// fillTimeout bounds a shared fill once it is detached from its first caller.
const fillTimeout = 20 * time.Second

// Fetch returns the cached value for key, calling fill on a miss and caching
// its result. Cache read/write errors degrade to calling fill directly.
// The shared fill is detached from the caller that started it.
func Fetch[T any](ctx context.Context, c *Cache, key string, fill func(context.Context) (T, error)) (T, error) {
	var zero, cached T
	if ok, err := c.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	if c == nil {
		return fill(ctx)
	}
	ch := c.group.DoChan(key, func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
		defer cancel()
		value, err := fill(fillCtx)
		if err != nil {
			return value, err
		}
		_ = c.SetJSON(fillCtx, key, value)
		return value, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
