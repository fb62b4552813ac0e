// Package cache bounds each gap-resolution adapter's result cache by both
// size and age, using hashicorp/golang-lru/v2's expirable LRU. This is a
// distinct concern from internal/cache's unbounded, durability-oriented
// file caches: adapter results need LRU eviction by max size plus a TTL per
// entry, not on-disk persistence across process restarts.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// entry is one cached adapter response, stamped with insertion time so a
// timed-out caller can still distinguish "fresh" from "stale but usable".
type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is a bounded, TTL-expiring cache keyed by (adapter_type,
// query|params). Entries remain readable via GetStale
// for up to staleGraceFactor times the nominal TTL past their freshness
// window, backing the timeout-with-stale-fallback wrapper: a slow upstream
// call can still be served the last known-good answer.
type Cache[V any] struct {
	inner    *lru.LRU[string, entry[V]]
	freshTTL time.Duration
}

const staleGraceFactor = 4

// New constructs a Cache with the given max size and freshness TTL.
func New[V any](maxSize int, ttl time.Duration) *Cache[V] {
	if maxSize <= 0 {
		maxSize = 128
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache[V]{
		inner:    lru.NewLRU[string, entry[V]](maxSize, nil, ttl*staleGraceFactor),
		freshTTL: ttl,
	}
}

// Key builds the cache key from an adapter type and a query or parameter
// string, hashed so arbitrarily long structured-API parameter blobs stay a
// fixed size.
func Key(adapterType, queryOrParams string) string {
	h := sha256.Sum256([]byte(adapterType + "\x00" + queryOrParams))
	return adapterType + ":" + hex.EncodeToString(h[:8])
}

// Get returns the entry for key only if it is within the configured
// freshness TTL.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	e, ok := c.inner.Get(key)
	if !ok || time.Since(e.storedAt) > c.freshTTL {
		return zero, false
	}
	return e.value, true
}

// GetStale returns the entry for key regardless of freshness, as long as it
// has not aged out of the LRU's extended grace window. Callers use this
// only after a live call has timed out.
func (c *Cache[V]) GetStale(key string) (V, bool) {
	var zero V
	e, ok := c.inner.Peek(key)
	if !ok {
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the current time as its freshness stamp.
func (c *Cache[V]) Set(key string, value V) {
	c.inner.Add(key, entry[V]{value: value, storedAt: time.Now()})
}
