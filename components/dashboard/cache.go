package dashboard

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// TTLCache is an in-memory cache whose entries expire after a fixed TTL. A
// zero TTL disables caching.
type TTLCache[T any] struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]cacheEntry[T]
	now     func() time.Time
}

type cacheEntry[T any] struct {
	value   T
	expires time.Time
}

// NewTTLCache builds a cache with the provided TTL.
func NewTTLCache[T any](ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{
		ttl:     ttl,
		entries: make(map[string]cacheEntry[T]),
		now:     time.Now,
	}
}

// NewChartCache builds a render cache for chart markup.
func NewChartCache(ttl time.Duration) *TTLCache[string] {
	return NewTTLCache[string](ttl)
}

// GetOrLoad returns a cached entry or loads and stores a new one. Load
// errors are not cached.
func (c *TTLCache[T]) GetOrLoad(key string, load func() (T, error)) (T, error) {
	if value, ok := c.get(key); ok {
		return value, nil
	}
	value, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	c.set(key, value)
	return value, nil
}

// Invalidate drops every entry.
func (c *TTLCache[T]) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry[T])
	c.mu.Unlock()
}

// Len returns the number of live and expired entries still held.
func (c *TTLCache[T]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *TTLCache[T]) get(key string) (T, bool) {
	var zero T
	if c == nil || c.ttl <= 0 {
		return zero, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		if ok {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		return zero, false
	}
	return entry.value, true
}

func (c *TTLCache[T]) set(key string, value T) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry[T]{
		value:   value,
		expires: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// configHash returns a deterministic hash for any JSON encodable value.
func configHash(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "invalid"
	}
	if string(b) == "null" || string(b) == "{}" {
		return "empty"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
