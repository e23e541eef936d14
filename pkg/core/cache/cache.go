package cache

import (
	"sync"
	"time"
)

// CacheItem represents a value stored in the TTL cache together with its expiry.
type CacheItem[T any] struct {
	Value      T
	Expiration time.Time
}

// Cache is a generic, thread-safe TTL cache keyed by strings.
// It is used for resolver results and database lookups; expired items are dropped lazily.
type Cache[T any] struct {
	data map[string]CacheItem[T]
	mu   sync.RWMutex
	ttl  time.Duration
	now  func() time.Time
}

// NewCache initializes and returns a new Cache with a default TTL.
func NewCache[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		data: make(map[string]CacheItem[T]),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get retrieves a value by key.
// It returns the zero value and false when the key is missing or expired.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	item, ok := c.data[key]
	c.mu.RUnlock()

	if !ok {
		var zero T
		return zero, false
	}
	if c.now().After(item.Expiration) {
		c.mu.Lock()
		if cur, ok := c.data[key]; ok && cur.Expiration.Equal(item.Expiration) {
			delete(c.data, key)
		}
		c.mu.Unlock()

		var zero T
		return zero, false
	}
	return item.Value, true
}

// Set adds or updates a value with the default TTL.
func (c *Cache[T]) Set(key string, value T) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL adds or updates a value with a custom TTL.
func (c *Cache[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = CacheItem[T]{
		Value:      value,
		Expiration: c.now().Add(ttl),
	}
}

// Delete removes an item by key.
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Len returns the number of stored items, expired ones included until they are touched.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear purges all items.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]CacheItem[T])
}
