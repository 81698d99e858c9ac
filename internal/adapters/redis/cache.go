// Package redisad is the Redis-backed cache for resolved images, proxied
// image bytes and the recent-builds listing. Values are stored as JSON.
package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hotel_recs/internal/adapters/observability"
)

const cacheName = "redis"

type Cache struct{ c *redis.Client }

func New(addr, pass string, db int) *Cache {
	return NewFromClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}))
}

func NewFromClient(c *redis.Client) *Cache { return &Cache{c: c} }

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache(cacheName, "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(v, dst); err != nil {
		// a value we cannot read is a miss; drop it so the next Set repairs it
		_ = r.c.Del(ctx, key).Err()
		observability.ObserveCache(cacheName, "miss")
		return false, fmt.Errorf("cache %s: %w", key, err)
	}
	observability.ObserveCache(cacheName, "hit")
	return true, nil
}

// Set stores v for ttlSec seconds; ttlSec <= 0 keeps the key without expiry.
func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache %s: %w", key, err)
	}
	observability.ObserveCache(cacheName, "set")
	return r.c.Set(ctx, key, b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache(cacheName, "del")
	return r.c.Del(ctx, key).Err()
}

func (r *Cache) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Cache) Close() error { return r.c.Close() }
