package directory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Clock returns the current time. Tests replace it to control expiry.
type Clock func() time.Time

type cacheEntry[V any] struct {
	value     V
	fetchedAt time.Time
}

// Cache is a TTL cache where concurrent misses for one key share a single load.
// A value and its fetch time are always replaced together.
type Cache[K comparable, V any] struct {
	ttl     time.Duration
	now     Clock
	mu      sync.RWMutex
	entries map[K]cacheEntry[V]
	gen     map[K]uint64 // bumped on invalidation, guards against storing stale loads
	group   singleflight.Group
}

// NewCache creates a cache whose entries expire ttl after they were fetched.
func NewCache[K comparable, V any](ttl time.Duration, now Clock) *Cache[K, V] {
	if now == nil {
		now = time.Now
	}
	return &Cache[K, V]{
		ttl:     ttl,
		now:     now,
		entries: make(map[K]cacheEntry[V]),
		gen:     make(map[K]uint64),
	}
}

// Get returns the cached value for key, loading it when it is missing, expired or force is set.
// A load error is returned as is and the previous value is not served.
func (c *Cache[K, V]) Get(ctx context.Context, key K, force bool, load func(context.Context) (V, error)) (V, error) {
	if !force {
		c.mu.RLock()
		e, ok := c.entries[key]
		c.mu.RUnlock()
		if ok && c.now().Sub(e.fetchedAt) < c.ttl {
			return e.value, nil
		}
	}

	flightKey := fmt.Sprint(key)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		c.mu.RLock()
		gen := c.gen[key]
		c.mu.RUnlock()

		v, err := load(ctx)
		if err != nil {
			return v, err
		}

		c.mu.Lock()
		if c.gen[key] == gen {
			c.entries[key] = cacheEntry[V]{value: v, fetchedAt: c.now()}
		}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// Invalidate drops the entry for key. A load already in flight will not repopulate it.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.gen[key]++
	c.mu.Unlock()
	c.group.Forget(fmt.Sprint(key))
}
