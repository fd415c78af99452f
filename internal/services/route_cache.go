// Package services - Two-tier route result cache
package services

import (
	"bytes"
	"compress/zlib"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sowhan/seavoyage/internal/metrics"
	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/pkg/logger"
)

const (
	// RouteCacheNamespace prefixes route fingerprints in the shared cache
	RouteCacheNamespace = "route"
	// PortCacheNamespace prefixes port records in the shared cache
	PortCacheNamespace = "port"

	// compressionThreshold is the payload size above which values are
	// zlib-compressed before reaching the shared cache
	compressionThreshold = 1024

	compressedFlag   = byte(0x01)
	uncompressedFlag = byte(0x00)
)

// Fingerprint produces the canonical cache key of a route request.
// The identity fields are serialized as canonical JSON with sorted keys
// and hashed to 128 bits; collisions are negligible for this key domain.
func Fingerprint(req *models.RouteRequest) string {
	identity := struct {
		Destination        string `json:"destination"`
		MaxConnectingPorts int    `json:"max_connecting_ports"`
		Optimization       string `json:"optimization"`
		Origin             string `json:"origin"`
		VesselDWT          int    `json:"vessel_dwt"`
		VesselType         string `json:"vessel_type"`
	}{
		Destination:        req.DestinationPortCode,
		MaxConnectingPorts: req.MaxConnectingPorts,
		Optimization:       string(req.OptimizationCriteria),
		Origin:             req.OriginPortCode,
		VesselType:         string(req.VesselConstraints.VesselType),
	}
	if req.VesselConstraints.DeadweightTonnage != nil {
		identity.VesselDWT = *req.VesselConstraints.DeadweightTonnage
	}

	// encoding/json serializes struct fields in declaration order; the
	// fields above are declared alphabetically to keep the JSON canonical
	data, _ := json.Marshal(identity)
	sum := md5.Sum(data)
	return RouteCacheNamespace + ":" + hex.EncodeToString(sum[:])
}

// cacheEntry is one in-process cached response
type cacheEntry struct {
	response   *models.RouteResponse
	expiresAt  time.Time
	lastAccess time.Time
}

// RouteCache is the two-tier result cache: a lock-protected in-process
// map backed by an optional shared cache. The in-process tier is
// consulted first; shared-cache failures are silent misses.
type RouteCache struct {
	mu       sync.Mutex
	entries  map[string]*cacheEntry
	capacity int

	shared   SharedCache
	routeTTL time.Duration
	logger   *logger.Logger
}

// NewRouteCache creates a two-tier route cache
func NewRouteCache(shared SharedCache, cfg Config, log *logger.Logger) *RouteCache {
	cfg = cfg.normalized()
	return &RouteCache{
		entries:  make(map[string]*cacheEntry),
		capacity: cfg.RouteCacheCapacity,
		shared:   shared,
		routeTTL: cfg.RouteTTL,
		logger:   log,
	}
}

// Get retrieves a cached response for the fingerprint key. In-process
// hits refresh the LRU recency marker; misses fall through to the
// shared cache and repopulate the local tier.
func (c *RouteCache) Get(ctx context.Context, key string) (*models.RouteResponse, bool) {
	now := time.Now()

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		if now.Before(entry.expiresAt) {
			entry.lastAccess = now
			response := entry.response
			c.mu.Unlock()
			metrics.RouteCacheHitsTotal.WithLabelValues("local").Inc()
			return response, true
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if c.shared != nil {
		if raw, ok := c.shared.Get(ctx, RouteCacheNamespace, key); ok {
			response, err := decodeResponse(raw)
			if err != nil {
				c.logger.Warn("Discarding undecodable shared cache entry", "key", key, "error", err)
			} else {
				c.storeLocal(key, response)
				metrics.RouteCacheHitsTotal.WithLabelValues("shared").Inc()
				return response, true
			}
		}
	}

	metrics.RouteCacheMissesTotal.Inc()
	return nil, false
}

// Set writes the response to the in-process tier synchronously, then to
// the shared cache best-effort.
func (c *RouteCache) Set(ctx context.Context, key string, response *models.RouteResponse) {
	c.storeLocal(key, response)

	if c.shared != nil {
		raw, err := encodeResponse(response)
		if err != nil {
			c.logger.Warn("Failed to encode response for shared cache", "key", key, "error", err)
			return
		}
		c.shared.Set(ctx, RouteCacheNamespace, key, raw, int(c.routeTTL.Seconds()))
	}
}

// Len returns the current in-process entry count
func (c *RouteCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// storeLocal inserts into the in-process map, evicting the least
// recently used 10% of entries when capacity is exceeded
func (c *RouteCache) storeLocal(key string, response *models.RouteResponse) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry{
		response:   response,
		expiresAt:  now.Add(c.routeTTL),
		lastAccess: now,
	}

	if len(c.entries) <= c.capacity {
		return
	}

	type aged struct {
		key        string
		lastAccess time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, entry := range c.entries {
		all = append(all, aged{key: k, lastAccess: entry.lastAccess})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].lastAccess.Before(all[j].lastAccess) })

	evict := len(c.entries) / 10
	if evict < 1 {
		evict = 1
	}
	for i := 0; i < evict && i < len(all); i++ {
		delete(c.entries, all[i].key)
	}
}

// encodeResponse serializes and conditionally compresses a response.
// Payloads above the threshold carry a one-byte compression flag
// followed by the zlib stream.
func encodeResponse(response *models.RouteResponse) ([]byte, error) {
	raw, err := json.Marshal(response)
	if err != nil {
		return nil, err
	}

	if len(raw) <= compressionThreshold {
		return append([]byte{uncompressedFlag}, raw...), nil
	}

	var buf bytes.Buffer
	buf.WriteByte(compressedFlag)
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	// Keep the smaller representation
	if buf.Len() >= len(raw)+1 {
		return append([]byte{uncompressedFlag}, raw...), nil
	}
	return buf.Bytes(), nil
}

// decodeResponse reverses encodeResponse transparently
func decodeResponse(data []byte) (*models.RouteResponse, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("empty cache payload")
	}

	payload := data[1:]
	if data[0] == compressedFlag {
		r, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("corrupt compressed payload: %w", err)
		}
		defer r.Close()

		payload, err = io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress payload: %w", err)
		}
	}

	var response models.RouteResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// inflightCall is one shared computation awaited by concurrent callers
type inflightCall struct {
	done     chan struct{}
	response *models.RouteResponse
	err      error
}

// flightGroup collapses concurrent calculations with equal fingerprints
// into a single computation. The promise is removed after resolution,
// success or error alike.
type flightGroup struct {
	mu    sync.Mutex
	calls map[string]*inflightCall
}

func newFlightGroup() *flightGroup {
	return &flightGroup{calls: make(map[string]*inflightCall)}
}

// Do executes fn once per key across concurrent callers. Waiters observe
// the winner's result; a waiter whose own context expires gets its
// context error without cancelling the shared computation.
func (g *flightGroup) Do(ctx context.Context, key string, fn func() (*models.RouteResponse, error)) (*models.RouteResponse, error, bool) {
	g.mu.Lock()
	if existing, ok := g.calls[key]; ok {
		g.mu.Unlock()
		select {
		case <-existing.done:
			return existing.response, existing.err, true
		case <-ctx.Done():
			return nil, ctx.Err(), true
		}
	}

	call := &inflightCall{done: make(chan struct{})}
	g.calls[key] = call
	g.mu.Unlock()

	call.response, call.err = fn()
	close(call.done)

	g.mu.Lock()
	delete(g.calls, key)
	g.mu.Unlock()

	return call.response, call.err, false
}
