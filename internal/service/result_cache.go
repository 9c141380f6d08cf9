package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/screening-engine/internal/domain"
)

const resultCachePrefix = "screening:result:"

// ResultCache is a two-level cache of evaluation results: an in-memory
// expirable LRU and, when configured, Redis. Failures at either level
// degrade to a miss.
type ResultCache struct {
	memory *expirable.LRU[string, *domain.EvaluationResult]
	redis  *redis.Client
	ttl    time.Duration
	logger *logrus.Logger

	stats   CacheStats
	statsMu sync.RWMutex
}

// CacheStats represents cache performance statistics
type CacheStats struct {
	MemoryHits    int64     `json:"memory_hits"`
	MemoryMisses  int64     `json:"memory_misses"`
	RedisHits     int64     `json:"redis_hits"`
	RedisMisses   int64     `json:"redis_misses"`
	RedisErrors   int64     `json:"redis_errors"`
	TotalRequests int64     `json:"total_requests"`
	LastReset     time.Time `json:"last_reset"`
}

// cachedResult wraps a cached result with metadata
type cachedResult struct {
	Result    *domain.EvaluationResult `json:"result"`
	CachedAt  time.Time                `json:"cached_at"`
	ExpiresAt time.Time                `json:"expires_at"`
}

// NewResultCache creates the cache. An empty RedisURL keeps it memory-only.
func NewResultCache(config domain.CacheConfig, logger *logrus.Logger) (*ResultCache, error) {
	if config.Size <= 0 {
		config.Size = 1000
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 15 * time.Minute
	}

	c := &ResultCache{
		memory: expirable.NewLRU[string, *domain.EvaluationResult](config.Size, nil, config.DefaultTTL),
		ttl:    config.DefaultTTL,
		logger: logger,
		stats:  CacheStats{LastReset: time.Now()},
	}

	if config.RedisURL == "" {
		return c, nil
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	if config.PoolTimeout > 0 {
		opts.PoolTimeout = config.PoolTimeout
	}
	if config.MaxRetries > 0 {
		opts.MaxRetries = config.MaxRetries
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c.redis = client
	return c, nil
}

// CacheKey hashes the canonical profile together with the statuses and
// options that influence the output.
func CacheKey(profile domain.PatientProfile, opts EvaluateOptions) (string, error) {
	payload, err := json.Marshal(struct {
		Profile  domain.PatientProfile `json:"profile"`
		Statuses map[string]string     `json:"statuses,omitempty"`
		Collapse bool                  `json:"collapse"`
	}{profile, opts.Statuses, opts.CollapseByTitle})
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache key: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// Get looks the key up in memory, then in Redis. A Redis hit is promoted
// to memory.
func (c *ResultCache) Get(ctx context.Context, key string) (*domain.EvaluationResult, bool) {
	c.recordRequest()

	if result, ok := c.memory.Get(key); ok {
		c.recordMemory(true)
		return result, true
	}
	c.recordMemory(false)

	if c.redis == nil {
		return nil, false
	}

	redisKey := resultCachePrefix + key
	val, err := c.redis.Get(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		c.recordRedis(false, false)
		return nil, false
	}
	if err != nil {
		c.recordRedis(false, true)
		c.logger.WithError(err).Warn("Redis result cache lookup failed")
		return nil, false
	}

	var cached cachedResult
	if err := json.Unmarshal([]byte(val), &cached); err != nil || cached.Result == nil {
		// Remove corrupted cache entry
		c.redis.Del(ctx, redisKey)
		c.recordRedis(false, false)
		return nil, false
	}
	if time.Now().After(cached.ExpiresAt) {
		c.redis.Del(ctx, redisKey)
		c.recordRedis(false, false)
		return nil, false
	}

	c.recordRedis(true, false)
	c.memory.Add(key, cached.Result)
	return cached.Result, true
}

// Set stores result at both levels. Redis errors are logged, not returned.
func (c *ResultCache) Set(ctx context.Context, key string, result *domain.EvaluationResult) {
	c.memory.Add(key, result)

	if c.redis == nil {
		return
	}

	now := time.Now()
	data, err := json.Marshal(cachedResult{
		Result:    result,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	})
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal cached result")
		return
	}
	if err := c.redis.Set(ctx, resultCachePrefix+key, data, c.ttl).Err(); err != nil {
		c.recordRedis(false, true)
		c.logger.WithError(err).Warn("Failed to store result in Redis")
	}
}

// Invalidate drops every cached result. Statuses change the key, so this is
// only needed when rules or tables change underneath a running process.
func (c *ResultCache) Invalidate(ctx context.Context) {
	c.memory.Purge()
	if c.redis == nil {
		return
	}
	iter := c.redis.Scan(ctx, 0, resultCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		c.redis.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.WithError(err).Warn("Failed to invalidate Redis result cache")
	}
}

// Len returns the number of in-memory entries.
func (c *ResultCache) Len() int {
	return c.memory.Len()
}

// GetStats returns cache performance statistics
func (c *ResultCache) GetStats() CacheStats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.stats
}

// Close releases the Redis connection pool.
func (c *ResultCache) Close() error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Close()
}

func (c *ResultCache) recordRequest() {
	c.statsMu.Lock()
	c.stats.TotalRequests++
	c.statsMu.Unlock()
}

func (c *ResultCache) recordMemory(hit bool) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	if hit {
		c.stats.MemoryHits++
	} else {
		c.stats.MemoryMisses++
	}
}

func (c *ResultCache) recordRedis(hit, failed bool) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	switch {
	case failed:
		c.stats.RedisErrors++
	case hit:
		c.stats.RedisHits++
	default:
		c.stats.RedisMisses++
	}
}
