package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache keeps entries in Redis with a server-side TTL. Memory bounding
// is delegated to the server's maxmemory LRU policy.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisCache) Lookup(ctx context.Context, shortCode string) (string, error) {
	const op = "cache.RedisCache.Lookup"

	originalURL, err := c.client.Get(ctx, key(shortCode)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%s: %w", op, ErrCacheMiss)
		}

		return "", fmt.Errorf("%s: failed to lookup cache entry: %w", op, err)
	}

	return originalURL, nil
}

func (c *RedisCache) Populate(ctx context.Context, shortCode, originalURL string) error {
	const op = "cache.RedisCache.Populate"

	if err := c.client.Set(ctx, key(shortCode), originalURL, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: failed to populate cache entry: %w", op, err)
	}

	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, shortCode string) error {
	const op = "cache.RedisCache.Invalidate"

	if err := c.client.Del(ctx, key(shortCode)).Err(); err != nil {
		return fmt.Errorf("%s: failed to invalidate cache entry: %w", op, err)
	}

	return nil
}
