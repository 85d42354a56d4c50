package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alex-user-go/hotelfeed/internal/search/types"
)

const redisKeyPrefix = "hotelfeed:search:"

// RedisCache stores envelopes in Redis with the same TTL contract as Cache.
// Redis failures degrade to cache misses and dropped writes.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewRedisCache creates a RedisCache on an existing client.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// TTL returns the configured time-to-live.
func (c *RedisCache) TTL() time.Duration {
	return c.ttl
}

// Get loads and decodes the entry for key.
func (c *RedisCache) Get(ctx context.Context, key string) (Entry, bool) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false
	}
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("cache entry undecodable", "key", key, "error", err)
		return Entry{}, false
	}
	// Redis expiry has second granularity; the stored timestamp is authoritative.
	if !entry.fresh(c.now(), c.ttl) {
		return Entry{}, false
	}
	return entry, true
}

// Put encodes env and stores it with the cache TTL as Redis expiry.
func (c *RedisCache) Put(ctx context.Context, key string, env types.ResultEnvelope) {
	raw, err := json.Marshal(Entry{
		Key:        key,
		Envelope:   env,
		InsertedAt: c.now(),
	})
	if err != nil {
		c.logger.Warn("cache entry unencodable", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Invalidate removes a specific key from the cache.
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, redisKeyPrefix+key).Err()
}
