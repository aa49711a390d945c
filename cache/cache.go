package cache

import (
	"time"

	lru "github.com/hnlq715/golang-lru"
)

type SetFn func() (v interface{}, err error)

// Cache memoizes computed values for a limited time.
type Cache interface {
	// GetOrSet returns the cached value for k, or computes it with setFn and keeps it
	// for ttl. Errors are returned to the caller and never cached. A zero ttl bypasses
	// the cache.
	GetOrSet(k interface{}, ttl time.Duration, setFn SetFn) (v interface{}, err error)
	// RemoveIf drops every entry whose key matches and returns how many were dropped.
	RemoveIf(match func(k interface{}) bool) int
	Purge()
}

type GetSetCache struct {
	name         string
	lru          *lru.Cache
	computations *ChanOnlyOne
}

const DefaultSize = 1024

// NewCache returns a cache holding up to size entries. Name labels the cache metrics.
func NewCache(name string, size int) *GetSetCache {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New(size)
	if err != nil {
		panic(err)
	}
	return &GetSetCache{
		name:         name,
		lru:          c,
		computations: NewChanOnlyOne(),
	}
}

func (c *GetSetCache) GetOrSet(k interface{}, ttl time.Duration, setFn SetFn) (v interface{}, err error) {
	if ttl <= 0 {
		cacheMisses.WithLabelValues(c.name).Inc()
		return setFn()
	}
	if v, ok := c.lru.Get(k); ok {
		cacheHits.WithLabelValues(c.name).Inc()
		return v, nil
	}
	return c.computations.Compute(k, func() (interface{}, error) {
		// another caller may have stored the value while we waited
		if v, ok := c.lru.Get(k); ok {
			cacheHits.WithLabelValues(c.name).Inc()
			return v, nil
		}
		cacheMisses.WithLabelValues(c.name).Inc()
		v, err = setFn()
		if err != nil {
			return nil, err
		}
		c.lru.AddEx(k, v, ttl)
		return v, nil
	})
}

var _ Cache = (*GetSetCache)(nil)

func (c *GetSetCache) RemoveIf(match func(k interface{}) bool) int {
	removed := 0
	for _, k := range c.lru.Keys() {
		if match(k) {
			c.lru.Remove(k)
			removed++
		}
	}
	return removed
}

func (c *GetSetCache) Purge() {
	c.lru.Purge()
}

func (c *GetSetCache) Len() int {
	return c.lru.Len()
}
