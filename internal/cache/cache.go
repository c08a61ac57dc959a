// Package cache defines the read-through cache used on the redirect hot path.
//
// The cache mirrors hot store entries and is never authoritative: a miss or
// any cache failure falls through to the store, and click statistics are never
// cached. Keys are derived solely from the short code.
package cache

import (
	"context"
	"errors"
)

// KeyPrefix namespaces cache keys. The redirect path keys exclusively on
// KeyPrefix + shortCode.
const KeyPrefix = "url:short:"

// ErrCacheMiss is returned by Lookup when the short code has no live entry.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the narrow contract consumed by the service layer. The entry TTL
// and memory bound are fixed at construction; a cached value is immutable, so
// concurrent population of the same key is last-write-wins.
type Cache interface {
	// Lookup returns the original URL cached for shortCode, or ErrCacheMiss.
	Lookup(ctx context.Context, shortCode string) (string, error)

	// Populate stores the mapping with the configured TTL. Best-effort:
	// callers must not block store reads or writes on its outcome.
	Populate(ctx context.Context, shortCode, originalURL string) error

	// Invalidate drops the entry for shortCode. Records are immutable so this
	// is rarely needed, but it keeps a corrected record from serving stale.
	Invalidate(ctx context.Context, shortCode string) error
}

func key(shortCode string) string {
	return KeyPrefix + shortCode
}
