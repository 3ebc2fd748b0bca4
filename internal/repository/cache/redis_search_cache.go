package cache

import (
	"context"
	"encoding/json"
	"time"

	"desirefinder-be/internal/pkg/logger"
	"desirefinder-be/pkg/dropshipping"

	"github.com/redis/go-redis/v9"
)

// RedisSearchCache shares supplier search results between instances.
// Backend errors are logged and treated as misses.
type RedisSearchCache struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger logger.ILogger
}

var _ dropshipping.SearchCache = (*RedisSearchCache)(nil)

func NewRedisSearchCache(rdb redis.UniversalClient, ttl time.Duration, logger logger.ILogger) *RedisSearchCache {
	return &RedisSearchCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *RedisSearchCache) Get(ctx context.Context, key string) ([]dropshipping.Product, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("SEARCH_CACHE", "Redis get failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil, false
	}

	var products []dropshipping.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		c.logger.Warn("SEARCH_CACHE", "Dropping corrupt cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		c.rdb.Del(ctx, key)
		return nil, false
	}
	return products, true
}

func (c *RedisSearchCache) Set(ctx context.Context, key string, products []dropshipping.Product) {
	raw, err := json.Marshal(products)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("SEARCH_CACHE", "Redis set failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
