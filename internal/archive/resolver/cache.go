package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter"
	goredis "github.com/redis/go-redis/v9"
)

// ProbeCache remembers whether a legacy URL exists. Implementations must be
// safe for concurrent use; lookups that fail behave as misses.
type ProbeCache interface {
	Get(ctx context.Context, url string) (found, ok bool)
	Set(ctx context.Context, url string, found bool)
}

// MemoryProbeCache is a bounded in-process cache with a fixed TTL.
type MemoryProbeCache struct {
	cache otter.Cache[string, bool]
}

// NewMemoryProbeCache creates a cache holding up to capacity URLs for ttl.
func NewMemoryProbeCache(capacity int, ttl time.Duration) (*MemoryProbeCache, error) {
	cache, err := otter.MustBuilder[string, bool](capacity).
		Cost(func(_ string, _ bool) uint32 { return 1 }).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build probe cache: %w", err)
	}
	return &MemoryProbeCache{cache: cache}, nil
}

func (c *MemoryProbeCache) Get(_ context.Context, url string) (bool, bool) {
	return c.cache.Get(url)
}

func (c *MemoryProbeCache) Set(_ context.Context, url string, found bool) {
	c.cache.Set(url, found)
}

const redisKeyPrefix = "confsite:probe:"

// RedisProbeCache shares probe results between instances.
type RedisProbeCache struct {
	client goredis.Cmdable
	ttl    time.Duration
	onErr  func(ctx context.Context, op string, err error)
}

// NewRedisProbeCache creates a redis-backed cache. onErr, if set, is called
// for every redis failure.
func NewRedisProbeCache(client goredis.Cmdable, ttl time.Duration, onErr func(ctx context.Context, op string, err error)) *RedisProbeCache {
	return &RedisProbeCache{client: client, ttl: ttl, onErr: onErr}
}

func (c *RedisProbeCache) Get(ctx context.Context, url string) (bool, bool) {
	val, err := c.client.Get(ctx, redisKeyPrefix+url).Result()
	if err != nil {
		if err != goredis.Nil {
			c.report(ctx, "get", err)
		}
		return false, false
	}
	return val == "1", true
}

func (c *RedisProbeCache) Set(ctx context.Context, url string, found bool) {
	val := "0"
	if found {
		val = "1"
	}
	if err := c.client.Set(ctx, redisKeyPrefix+url, val, c.ttl).Err(); err != nil {
		c.report(ctx, "set", err)
	}
}

func (c *RedisProbeCache) report(ctx context.Context, op string, err error) {
	if c.onErr != nil {
		c.onErr(ctx, op, err)
	}
}
