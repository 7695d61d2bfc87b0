package search

import (
	"context"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedBackend memoizes successful queries of another Backend. Generated
// text repeats sentences often enough that identical queries are common
// within one run. Failures are never cached.
type CachedBackend struct {
	backend Backend
	cache   *cache.Cache
	hits    atomic.Int64
	misses  atomic.Int64
}

var _ Backend = (*CachedBackend)(nil)

// NewCachedBackend wraps backend with a cache whose entries expire after ttl.
func NewCachedBackend(backend Backend, ttl time.Duration) (*CachedBackend, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &CachedBackend{
		backend: backend,
		cache:   cache.New(ttl, 2*ttl),
	}, nil
}

// Name returns the wrapped backend's name.
func (c *CachedBackend) Name() string {
	return c.backend.Name()
}

// Search returns cached hits for (index, topK, query) or queries the wrapped backend.
func (c *CachedBackend) Search(ctx context.Context, query string, topK int, index string) ([]Hit, error) {
	key := index + "\x00" + strconv.Itoa(topK) + "\x00" + query
	if x, found := c.cache.Get(key); found {
		c.hits.Add(1)
		return slices.Clone(x.([]Hit)), nil
	}
	c.misses.Add(1)

	hits, err := c.backend.Search(ctx, query, topK, index)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, slices.Clone(hits), cache.DefaultExpiration)
	return hits, nil
}

// Stats returns the number of cache hits and misses so far.
func (c *CachedBackend) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
