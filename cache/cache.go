// Package cache provides a small TTL cache on top of ristretto.
package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// Cache is a bounded in-memory cache whose entries expire after a TTL.
//
// Values are typed by the caller: a Cache holds values of a single type V.
type Cache[V any] struct {
	c   *ristretto.Cache
	ttl time.Duration
}

// New creates a cache holding up to maxItems entries for ttl each.
func New[V any](maxItems int64, ttl time.Duration) (*Cache[V], error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        10 * maxItems,
		MaxCost:            maxItems, // one per entry
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &Cache[V]{c: c, ttl: ttl}, nil
}

// Get returns the value stored for key.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.c.Get(key)
	if !ok {
		var z V
		return z, false
	}
	val, ok := v.(V)
	return val, ok
}

// Set stores val for key. The value is visible to Get when Set returns.
func (c *Cache[V]) Set(key string, val V) bool {
	ok := c.c.SetWithTTL(key, val, 1, c.ttl)
	c.c.Wait()
	return ok
}

// Del removes key.
func (c *Cache[V]) Del(key string) { c.c.Del(key) }

// Close stops the cache background goroutines.
func (c *Cache[V]) Close() { c.c.Close() }
