// Package services - Redis-backed shared cache
package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sowhan/seavoyage/pkg/logger"
)

// RedisCache implements SharedCache on top of go-redis.
// All failures degrade to cache misses; nothing here may fail a request.
type RedisCache struct {
	client *redis.Client
	logger *logger.Logger
}

// NewRedisCache creates a Redis-backed shared cache
func NewRedisCache(client *redis.Client, log *logger.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: log,
	}
}

// Compile-time interface compliance check
var _ SharedCache = (*RedisCache)(nil)

// cacheKey namespaces and hashes the identifier so arbitrary-length
// fingerprints produce bounded Redis keys
func cacheKey(namespace, identifier string) string {
	sum := md5.Sum([]byte(identifier))
	return "maritime:" + namespace + ":" + hex.EncodeToString(sum[:])[:12]
}

// Get retrieves a raw value; any error is reported as a miss
func (c *RedisCache) Get(ctx context.Context, namespace, identifier string) ([]byte, bool) {
	if c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, cacheKey(namespace, identifier)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Shared cache get failed", "namespace", namespace, "error", err)
		}
		return nil, false
	}
	return data, true
}

// Set stores a raw value with a TTL; errors are logged, never propagated
func (c *RedisCache) Set(ctx context.Context, namespace, identifier string, value []byte, ttlSeconds int) bool {
	if c.client == nil {
		return false
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if err := c.client.Set(ctx, cacheKey(namespace, identifier), value, ttl).Err(); err != nil {
		c.logger.Warn("Shared cache set failed", "namespace", namespace, "error", err)
		return false
	}
	return true
}

// Delete removes a value
func (c *RedisCache) Delete(ctx context.Context, namespace, identifier string) bool {
	if c.client == nil {
		return false
	}

	if err := c.client.Del(ctx, cacheKey(namespace, identifier)).Err(); err != nil {
		c.logger.Warn("Shared cache delete failed", "namespace", namespace, "error", err)
		return false
	}
	return true
}

// Health reports Redis connectivity
func (c *RedisCache) Health(ctx context.Context) bool {
	if c.client == nil {
		return false
	}
	return c.client.Ping(ctx).Err() == nil
}
