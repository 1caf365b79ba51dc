package impact

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Key identifies a cached prediction.
type Key struct {
	SymbolID int64
	Kind     ChangeKind
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%s", k.SymbolID, k.Kind)
}

// CacheStats reports cache activity.
type CacheStats struct {
	Entries  int   `json:"entries"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Computes int64 `json:"computes"`
	Errors   int64 `json:"errors"`
}

// ComputeFunc produces a prediction for a cache miss.
type ComputeFunc func(ctx context.Context) (*Prediction, error)

// Cache memoizes predictions for one graph snapshot. Concurrent requests for
// the same key share a single computation. Entries never expire; the cache is
// discarded together with its snapshot.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]*Prediction
	flight  singleflight.Group

	hits     atomic.Int64
	misses   atomic.Int64
	computes atomic.Int64
	errors   atomic.Int64
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]*Prediction)}
}

// Get returns the cached prediction for key, if any.
func (c *Cache) Get(key Key) (*Prediction, bool) {
	c.mu.RLock()
	p, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return p, ok
}

// GetOrCompute returns the cached prediction for key or runs compute once,
// sharing its result with every concurrent caller of the same key. Errors
// are not cached.
//
// compute runs on a context detached from the caller's cancellation, so a
// caller giving up never leaves a partial prediction behind for the waiters
// or the cache. A cancelled caller returns ctx.Err() without waiting.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) (*Prediction, error) {
	if p, ok := c.Get(key); ok {
		return p, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detached := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key.String(), func() (any, error) {
		c.mu.RLock()
		p, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return p, nil
		}

		p, err := compute(detached)
		if err != nil {
			c.errors.Add(1)
			return nil, err
		}
		c.computes.Add(1)

		c.mu.Lock()
		c.entries[key] = p
		c.mu.Unlock()
		return p, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Prediction), nil
	}
}

// Len returns the number of cached predictions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Entries:  c.Len(),
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Computes: c.computes.Load(),
		Errors:   c.errors.Load(),
	}
}
