package aiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/cancer-ai-portal/internal/domain"
)

const cacheKeyPrefix = "portal:options:"

// OptionCache is a two-tier cache for option lists: an expiring in-memory
// LRU in front of an optional Redis tier shared between portal replicas.
type OptionCache struct {
	memory   *expirable.LRU[string, []byte]
	redis    *redis.Client
	redisTTL time.Duration
	logger   *logrus.Logger

	stats   CacheStats
	statsMu sync.RWMutex
}

// CacheStats counts lookups per tier
type CacheStats struct {
	MemoryHits int64 `json:"memory_hits"`
	RedisHits  int64 `json:"redis_hits"`
	Misses     int64 `json:"misses"`
	Writes     int64 `json:"writes"`
}

// NewOptionCache creates the cache. An unreachable Redis is logged and the
// cache continues memory-only; a malformed Redis URL is a configuration error.
func NewOptionCache(config domain.CacheConfig, logger *logrus.Logger) (*OptionCache, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if config.MemoryItems <= 0 {
		config.MemoryItems = 256
	}
	if config.MemoryTTL <= 0 {
		config.MemoryTTL = 5 * time.Minute
	}

	c := &OptionCache{
		memory:   expirable.NewLRU[string, []byte](config.MemoryItems, nil, config.MemoryTTL),
		redisTTL: config.RedisTTL,
		logger:   logger,
	}
	if c.redisTTL <= 0 {
		c.redisTTL = 30 * time.Minute
	}

	if config.RedisURL == "" {
		return c, nil
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if config.RedisPoolSize > 0 {
		opts.PoolSize = config.RedisPoolSize
	}
	opts.DialTimeout = 2 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis cache tier unavailable, continuing with memory cache only")
		_ = client.Close()
		return c, nil
	}

	c.redis = client
	return c, nil
}

// HasRedis reports whether the shared tier is active
func (c *OptionCache) HasRedis() bool {
	return c.redis != nil
}

// Get looks up key and decodes it into dst
func (c *OptionCache) Get(ctx context.Context, key string, dst interface{}) bool {
	key = cacheKeyPrefix + key

	if data, ok := c.memory.Get(key); ok {
		if err := json.Unmarshal(data, dst); err == nil {
			c.count(func(s *CacheStats) { s.MemoryHits++ })
			return true
		}
		c.memory.Remove(key)
	}

	if c.redis != nil {
		val, err := c.redis.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
		case err != nil:
			c.logger.WithError(err).WithField("key", key).Debug("Redis cache lookup failed")
		default:
			if err := json.Unmarshal(val, dst); err == nil {
				c.memory.Add(key, val)
				c.count(func(s *CacheStats) { s.RedisHits++ })
				return true
			}
			// Remove corrupted cache entry
			c.redis.Del(ctx, key)
		}
	}

	c.count(func(s *CacheStats) { s.Misses++ })
	return false
}

// Set stores value in both tiers
func (c *OptionCache) Set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal cache value")
		return
	}

	key = cacheKeyPrefix + key
	c.memory.Add(key, data)

	if c.redis != nil {
		if err := c.redis.Set(ctx, key, data, c.redisTTL).Err(); err != nil {
			c.logger.WithError(err).WithField("key", key).Debug("Redis cache write failed")
		}
	}
	c.count(func(s *CacheStats) { s.Writes++ })
}

// Purge drops the memory tier
func (c *OptionCache) Purge() {
	c.memory.Purge()
}

// Stats returns a snapshot of cache counters
func (c *OptionCache) Stats() CacheStats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.stats
}

// Close releases the Redis connection pool
func (c *OptionCache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

func (c *OptionCache) count(update func(s *CacheStats)) {
	c.statsMu.Lock()
	update(&c.stats)
	c.statsMu.Unlock()
}

// cacheKey builds a key from the endpoint, feature context and slug
func cacheKey(endpoint string, feature domain.FeatureContext, slug string) string {
	return strings.Join([]string{endpoint, feature.String(), slug}, ":")
}
