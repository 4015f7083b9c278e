package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheService provides short-TTL caching for derived analytics views.
// Cached entries are advisory only: every computation is reproducible from
// the ledger and reference stores, so invalidation failures degrade to
// recomputation rather than wrong answers.
type CacheService struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(redis *RedisCache, ttl time.Duration) *CacheService {
	return &CacheService{
		redis: redis,
		ttl:   ttl,
	}
}

// CacheKeyType represents different types of cache keys
type CacheKeyType string

const (
	// CacheKeySummary is for per-user portfolio summaries
	CacheKeySummary CacheKeyType = "summary"
	// CacheKeyComposition is for per-user composition breakdowns
	CacheKeyComposition CacheKeyType = "composition"
)

// GenerateCacheKey generates a cache key for a given type and parameters
// Format: <type>:<param1>:<param2>:...
func (c *CacheService) GenerateCacheKey(keyType CacheKeyType, params ...string) string {
	normalized := make([]string, len(params))
	for i, param := range params {
		normalized[i] = strings.ToLower(param)
	}

	parts := append([]string{string(keyType)}, normalized...)
	return strings.Join(parts, ":")
}

// SummaryKey generates the cache key for a user's portfolio summary
func (c *CacheService) SummaryKey(userID string) string {
	return c.GenerateCacheKey(CacheKeySummary, userID)
}

// CompositionKey generates the cache key for a user's composition breakdown
func (c *CacheService) CompositionKey(userID string) string {
	return c.GenerateCacheKey(CacheKeyComposition, userID)
}

// Set stores a value in cache with the configured TTL
func (c *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.redis.Set(ctx, key, data, c.ttl)
}

// Get retrieves a value from cache and deserializes it into dest. The
// boolean result reports a hit; a miss is not an error.
func (c *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.redis.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache key %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return true, nil
}

// InvalidateUser drops every cached analytics view for a user. Called on
// each investment write so readers never see a stale summary beyond the TTL.
func (c *CacheService) InvalidateUser(ctx context.Context, userID string) error {
	return c.redis.Del(ctx, c.SummaryKey(userID), c.CompositionKey(userID))
}
