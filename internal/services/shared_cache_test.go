package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sowhan/seavoyage/pkg/logger"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	s := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client, logger.NewNoop()), s
}

// TestRedisCache_SetAndGet tests basic round-tripping
func TestRedisCache_SetAndGet(t *testing.T) {
	cache, _ := newTestRedisCache(t)
	ctx := context.Background()

	ok := cache.Set(ctx, "route", "abc123", []byte("payload"), 1800)
	require.True(t, ok)

	value, hit := cache.Get(ctx, "route", "abc123")
	require.True(t, hit)
	assert.Equal(t, []byte("payload"), value)
}

// TestRedisCache_GetMiss tests miss behavior on an empty cache
func TestRedisCache_GetMiss(t *testing.T) {
	cache, _ := newTestRedisCache(t)

	value, hit := cache.Get(context.Background(), "route", "missing")
	assert.False(t, hit)
	assert.Nil(t, value)
}

// TestRedisCache_NamespaceIsolation tests that namespaces do not collide
func TestRedisCache_NamespaceIsolation(t *testing.T) {
	cache, _ := newTestRedisCache(t)
	ctx := context.Background()

	cache.Set(ctx, "route", "same-id", []byte("route-data"), 60)
	cache.Set(ctx, "port", "same-id", []byte("port-data"), 60)

	routeVal, _ := cache.Get(ctx, "route", "same-id")
	portVal, _ := cache.Get(ctx, "port", "same-id")

	assert.Equal(t, []byte("route-data"), routeVal)
	assert.Equal(t, []byte("port-data"), portVal)
}

// TestRedisCache_TTLExpiry tests TTL expiration
func TestRedisCache_TTLExpiry(t *testing.T) {
	cache, s := newTestRedisCache(t)
	ctx := context.Background()

	cache.Set(ctx, "route", "expiring", []byte("data"), 60)

	s.FastForward(2 * time.Minute)

	_, hit := cache.Get(ctx, "route", "expiring")
	assert.False(t, hit)
}

// TestRedisCache_Delete tests value removal
func TestRedisCache_Delete(t *testing.T) {
	cache, _ := newTestRedisCache(t)
	ctx := context.Background()

	cache.Set(ctx, "port", "SGSIN", []byte("data"), 60)
	assert.True(t, cache.Delete(ctx, "port", "SGSIN"))

	_, hit := cache.Get(ctx, "port", "SGSIN")
	assert.False(t, hit)
}

// TestRedisCache_DownServerDegrades tests graceful degradation when the
// server is unreachable
func TestRedisCache_DownServerDegrades(t *testing.T) {
	cache, s := newTestRedisCache(t)
	ctx := context.Background()

	s.Close()

	assert.False(t, cache.Set(ctx, "route", "k", []byte("v"), 60))
	_, hit := cache.Get(ctx, "route", "k")
	assert.False(t, hit)
	assert.False(t, cache.Health(ctx))
}

// TestRedisCache_Health tests connectivity reporting
func TestRedisCache_Health(t *testing.T) {
	cache, _ := newTestRedisCache(t)
	assert.True(t, cache.Health(context.Background()))

	nilCache := NewRedisCache(nil, logger.NewNoop())
	assert.False(t, nilCache.Health(context.Background()))
}
