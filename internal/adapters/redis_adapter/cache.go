// internal/adapters/redis_adapter/cache.go
package redis_a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockledger/internal/core/ports"
)

// CacheKeyPrefix defines prefixes for different cache types
type CacheKeyPrefix string

const (
	PrefixSuggestion CacheKeyPrefix = "suggest"
	PrefixReceipt    CacheKeyPrefix = "receipt"
	PrefixImport     CacheKeyPrefix = "import"
)

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = errors.New("cache miss")

// Cache provides caching functionality with Redis
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Statically assert that *Cache implements the CacheRepository interface.
var _ ports.CacheRepository = (*Cache)(nil)

// NewCache creates a new cache instance
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "cache")),
	}
}

// Set stores a value in cache with default TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value in cache with custom TTL
func (c *Cache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to set cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("redis set error: %w", err)
	}

	c.logger.DebugContext(ctx, "cache set",
		slog.String("key", key),
		slog.Duration("ttl", ttl))
	return nil
}

// Get decodes the value at key into dest, returning ErrCacheMiss when absent
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.logger.DebugContext(ctx, "cache miss", slog.String("key", key))
			return ErrCacheMiss
		}
		c.logger.ErrorContext(ctx, "failed to get cache",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return fmt.Errorf("redis get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal error: %w", err)
	}
	return nil
}

// Delete removes keys from cache
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to delete cache",
			slog.Any("keys", keys),
			slog.String("error", err.Error()))
		return fmt.Errorf("redis del error: %w", err)
	}
	return nil
}

// DeletePattern removes all keys matching a glob pattern
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan error: %w", err)
	}

	return c.Delete(ctx, keys...)
}

// Exists reports whether every key exists
func (c *Cache) Exists(ctx context.Context, keys ...string) (bool, error) {
	n, err := c.client.Exists(ctx, keys...).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists error: %w", err)
	}
	return n == int64(len(keys)), nil
}

// GetOrSet reads key into dest, or calls fetch and caches its result on a miss
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{},
	fetch func() (interface{}, error), ttl time.Duration) error {

	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return err
	}

	value, err := fetch()
	if err != nil {
		return fmt.Errorf("fetch error: %w", err)
	}

	if err := c.SetWithTTL(ctx, key, value, ttl); err != nil {
		c.logger.WarnContext(ctx, "failed to cache value after fetch",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// SetNX sets a key only if it doesn't exist
func (c *Cache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal error: %w", err)
	}

	ok, err := c.client.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx error: %w", err)
	}
	return ok, nil
}

// Ping checks if Redis is accessible
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping error: %w", err)
	}
	return nil
}

// BuildKey creates a cache key with prefix
func BuildKey(prefix CacheKeyPrefix, parts ...string) string {
	if len(parts) == 0 {
		return string(prefix)
	}
	return string(prefix) + ":" + strings.Join(parts, ":")
}

// SuggestionKey is the cache key for a suggestion request. Supplier codes are
// case-sensitive, as they are in the preference model.
func SuggestionKey(code string, quantity int, category string) string {
	return BuildKey(PrefixSuggestion, strings.TrimSpace(code), strconv.Itoa(quantity), category)
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// CacheStats holds cache statistics
type CacheStats struct {
	Hits      int64     `json:"hits"`
	Misses    int64     `json:"misses"`
	HitRate   float64   `json:"hit_rate"`
	LastReset time.Time `json:"last_reset"`
}

// CacheManager wraps the cache with the invalidation and de-duplication rules
// of the inventory engine
type CacheManager struct {
	cache     ports.CacheRepository
	hits      atomic.Int64
	misses    atomic.Int64
	lastReset atomic.Value
	logger    *slog.Logger
}

// NewCacheManager creates a new cache manager
func NewCacheManager(cache ports.CacheRepository, logger *slog.Logger) *CacheManager {
	m := &CacheManager{
		cache:  cache,
		logger: logger.With(slog.String("component", "cache_manager")),
	}
	m.lastReset.Store(time.Now())
	return m
}

// Suggestion serves a suggestion from cache or computes and caches it
func (m *CacheManager) Suggestion(ctx context.Context, key string, dest interface{}, ttl time.Duration,
	compute func() (interface{}, error)) error {

	computed := false
	err := m.cache.GetOrSet(ctx, key, dest, func() (interface{}, error) {
		computed = true
		return compute()
	}, ttl)
	if computed {
		m.misses.Add(1)
	} else if err == nil {
		m.hits.Add(1)
	}
	return err
}

// InvalidateSuggestions drops cached suggestions for a supplier code, or all of them when code is empty
func (m *CacheManager) InvalidateSuggestions(ctx context.Context, code string) error {
	pattern := BuildKey(PrefixSuggestion, "*")
	if c := strings.TrimSpace(code); c != "" {
		pattern = BuildKey(PrefixSuggestion, globEscaper.Replace(c), "*")
	}
	if err := m.cache.DeletePattern(ctx, pattern); err != nil {
		m.logger.WarnContext(ctx, "failed to invalidate suggestions",
			slog.String("pattern", pattern),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

// ClaimReceipt marks one line of an order as received. It returns false when
// the line was already claimed within ttl.
func (m *CacheManager) ClaimReceipt(ctx context.Context, orderID, line string, ttl time.Duration) (bool, error) {
	return m.cache.SetNX(ctx, BuildKey(PrefixReceipt, orderID, line), time.Now().UTC(), ttl)
}

// ReleaseReceipt removes a line claim so it can be received again
func (m *CacheManager) ReleaseReceipt(ctx context.Context, orderID, line string) error {
	return m.cache.Delete(ctx, BuildKey(PrefixReceipt, orderID, line))
}

// SaveImportStatus stores the status document of an import job
func (m *CacheManager) SaveImportStatus(ctx context.Context, jobID string, status interface{}, ttl time.Duration) error {
	return m.cache.SetWithTTL(ctx, BuildKey(PrefixImport, jobID), status, ttl)
}

// ImportStatus loads the status document of an import job
func (m *CacheManager) ImportStatus(ctx context.Context, jobID string, dest interface{}) error {
	return m.cache.Get(ctx, BuildKey(PrefixImport, jobID), dest)
}

// GetStats returns hit and miss counts for cached suggestions
func (m *CacheManager) GetStats() CacheStats {
	stats := CacheStats{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		LastReset: m.lastReset.Load().(time.Time),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}

// ResetStats resets cache statistics
func (m *CacheManager) ResetStats() {
	m.hits.Store(0)
	m.misses.Store(0)
	m.lastReset.Store(time.Now())
}
