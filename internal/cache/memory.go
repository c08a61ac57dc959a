package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache keeps entries in-process behind a bounded LRU with a per-entry
// TTL. Eviction by recency and expiry by TTL act independently, so a cold
// entry can fall out before its TTL and a hot one still expires on time.
type MemoryCache struct {
	lru *expirable.LRU[string, string]
}

func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		lru: expirable.NewLRU[string, string](maxEntries, nil, ttl),
	}
}

func (c *MemoryCache) Lookup(_ context.Context, shortCode string) (string, error) {
	const op = "cache.MemoryCache.Lookup"

	originalURL, ok := c.lru.Get(key(shortCode))
	if !ok {
		return "", fmt.Errorf("%s: %w", op, ErrCacheMiss)
	}

	return originalURL, nil
}

func (c *MemoryCache) Populate(_ context.Context, shortCode, originalURL string) error {
	c.lru.Add(key(shortCode), originalURL)
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, shortCode string) error {
	c.lru.Remove(key(shortCode))
	return nil
}

// Len reports the number of live entries, for tests and debugging.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}
