package cache

import (
	"context"
	"time"

	"desirefinder-be/pkg/dropshipping"

	gocache "github.com/patrickmn/go-cache"
)

// MemorySearchCache keeps supplier search results in process memory.
type MemorySearchCache struct {
	cache *gocache.Cache
}

var _ dropshipping.SearchCache = (*MemorySearchCache)(nil)

func NewMemorySearchCache(ttl time.Duration) *MemorySearchCache {
	// expired entries are purged every 2 TTLs
	return &MemorySearchCache{cache: gocache.New(ttl, 2*ttl)}
}

func (c *MemorySearchCache) Get(_ context.Context, key string) ([]dropshipping.Product, bool) {
	if x, found := c.cache.Get(key); found {
		products := x.([]dropshipping.Product)
		out := make([]dropshipping.Product, len(products))
		copy(out, products)
		return out, true
	}
	return nil, false
}

func (c *MemorySearchCache) Set(_ context.Context, key string, products []dropshipping.Product) {
	stored := make([]dropshipping.Product, len(products))
	copy(stored, products)
	c.cache.Set(key, stored, gocache.DefaultExpiration)
}
