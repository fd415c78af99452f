package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/internal/testutil"
	"github.com/sowhan/seavoyage/pkg/logger"
)

func sampleResponse(code string) *models.RouteResponse {
	return &models.RouteResponse{
		RequestID: "fixed",
		PrimaryRoute: models.DetailedRoute{
			RouteID:   "route-" + code,
			RouteName: "Route 1: SGSIN → NLRTM",
		},
		AlternativeRoutes:    []models.DetailedRoute{},
		OptimizationCriteria: models.CriteriaBalanced,
		TotalRoutesEvaluated: 1,
	}
}

// TestFingerprint_Deterministic verifies equal requests share a fingerprint
func TestFingerprint_Deterministic(t *testing.T) {
	a := testutil.FixtureRequest("SGSIN", "NLRTM")
	b := testutil.FixtureRequest("SGSIN", "NLRTM")

	// Fields outside the identity set must not change the key
	b.CalculationTimeoutSeconds = 60
	b.IncludeAlternativeRoutes = !a.IncludeAlternativeRoutes
	b.DepartureTime = a.DepartureTime.Add(time.Hour)

	assert.Equal(t, Fingerprint(&a), Fingerprint(&b))
}

// TestFingerprint_Discriminates verifies identity fields change the key
func TestFingerprint_Discriminates(t *testing.T) {
	base := testutil.FixtureRequest("SGSIN", "NLRTM")

	variants := []func(*models.RouteRequest){
		func(r *models.RouteRequest) { r.DestinationPortCode = "DEHAM" },
		func(r *models.RouteRequest) { r.OriginPortCode = "CNSHA" },
		func(r *models.RouteRequest) { r.OptimizationCriteria = models.CriteriaFastest },
		func(r *models.RouteRequest) { r.MaxConnectingPorts = 3 },
		func(r *models.RouteRequest) { r.VesselConstraints.VesselType = models.VesselTanker },
		func(r *models.RouteRequest) { dwt := 120000; r.VesselConstraints.DeadweightTonnage = &dwt },
	}

	for i, mutate := range variants {
		variant := testutil.FixtureRequest("SGSIN", "NLRTM")
		mutate(&variant)
		assert.NotEqual(t, Fingerprint(&base), Fingerprint(&variant), "variant %d", i)
	}
}

// TestFingerprint_Namespaced verifies the route namespace prefix
func TestFingerprint_Namespaced(t *testing.T) {
	req := testutil.FixtureRequest("SGSIN", "NLRTM")
	key := Fingerprint(&req)

	assert.Contains(t, key, RouteCacheNamespace+":")
	assert.Len(t, key, len(RouteCacheNamespace)+1+32) // 128-bit hex digest
}

// TestRouteCache_LocalHit verifies the in-process tier serves repeats
func TestRouteCache_LocalHit(t *testing.T) {
	cache := NewRouteCache(nil, DefaultConfig(), logger.NewNoop())
	ctx := context.Background()

	_, ok := cache.Get(ctx, "route:abc")
	assert.False(t, ok)

	cache.Set(ctx, "route:abc", sampleResponse("abc"))

	got, ok := cache.Get(ctx, "route:abc")
	require.True(t, ok)
	assert.Equal(t, "route-abc", got.PrimaryRoute.RouteID)
}

// TestRouteCache_SharedTierFallback verifies misses fall through to the
// shared cache and repopulate the local tier
func TestRouteCache_SharedTierFallback(t *testing.T) {
	shared := testutil.NewMemorySharedCache()
	ctx := context.Background()

	writer := NewRouteCache(shared, DefaultConfig(), logger.NewNoop())
	writer.Set(ctx, "route:xyz", sampleResponse("xyz"))

	// A fresh process with an empty local tier hits the shared tier
	reader := NewRouteCache(shared, DefaultConfig(), logger.NewNoop())
	got, ok := reader.Get(ctx, "route:xyz")
	require.True(t, ok)
	assert.Equal(t, "route-xyz", got.PrimaryRoute.RouteID)

	// Second read is served locally even if the shared tier breaks
	shared.Broken = true
	got, ok = reader.Get(ctx, "route:xyz")
	require.True(t, ok)
	assert.Equal(t, "route-xyz", got.PrimaryRoute.RouteID)
}

// TestRouteCache_BrokenSharedIsMiss verifies graceful degradation
func TestRouteCache_BrokenSharedIsMiss(t *testing.T) {
	shared := testutil.NewMemorySharedCache()
	shared.Broken = true
	cache := NewRouteCache(shared, DefaultConfig(), logger.NewNoop())
	ctx := context.Background()

	// Set still lands in the local tier
	cache.Set(ctx, "route:k", sampleResponse("k"))

	got, ok := cache.Get(ctx, "route:k")
	require.True(t, ok)
	assert.Equal(t, "route-k", got.PrimaryRoute.RouteID)
}

// TestRouteCache_Eviction verifies capacity-driven 10% eviction
func TestRouteCache_Eviction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RouteCacheCapacity = 20
	cache := NewRouteCache(nil, cfg, logger.NewNoop())
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		cache.Set(ctx, fmt.Sprintf("route:%03d", i), sampleResponse(fmt.Sprintf("%03d", i)))
	}

	assert.LessOrEqual(t, cache.Len(), 21)

	// The most recent insert always survives
	_, ok := cache.Get(ctx, "route:029")
	assert.True(t, ok)
}

// TestRouteCache_TTLExpiry verifies expired local entries miss
func TestRouteCache_TTLExpiry(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RouteTTL = time.Millisecond
	cache := NewRouteCache(nil, cfg, logger.NewNoop())
	ctx := context.Background()

	cache.Set(ctx, "route:short", sampleResponse("short"))
	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Get(ctx, "route:short")
	assert.False(t, ok)
}

// TestEncodeDecode_SmallPayload verifies small payloads skip compression
func TestEncodeDecode_SmallPayload(t *testing.T) {
	response := sampleResponse("s")
	// Without a route name the JSON is 1016 bytes, under the 1 KiB threshold
	response.PrimaryRoute.RouteName = ""

	raw, err := encodeResponse(response)
	require.NoError(t, err)
	assert.Equal(t, uncompressedFlag, raw[0])

	decoded, err := decodeResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, response.PrimaryRoute.RouteID, decoded.PrimaryRoute.RouteID)
}

// TestEncodeDecode_LargePayloadCompresses verifies the zlib path
func TestEncodeDecode_LargePayloadCompresses(t *testing.T) {
	response := sampleResponse("big")
	// Inflate the payload well past the threshold with repetitive content
	for i := 0; i < 50; i++ {
		response.AlternativeRoutes = append(response.AlternativeRoutes, models.DetailedRoute{
			RouteID:   fmt.Sprintf("alternative-route-%04d", i),
			RouteName: "Route 2: SGSIN → NLRTM via AEJEA with a long descriptive name",
		})
	}

	raw, err := encodeResponse(response)
	require.NoError(t, err)
	assert.Equal(t, compressedFlag, raw[0])

	decoded, err := decodeResponse(raw)
	require.NoError(t, err)
	assert.Len(t, decoded.AlternativeRoutes, 50)
}

// TestDecodeResponse_Corrupt verifies corrupt payloads error out
func TestDecodeResponse_Corrupt(t *testing.T) {
	_, err := decodeResponse(nil)
	assert.Error(t, err)

	_, err = decodeResponse([]byte{compressedFlag, 0xde, 0xad})
	assert.Error(t, err)
}

// TestFlightGroup_AtMostOnce verifies concurrent callers share one computation
func TestFlightGroup_AtMostOnce(t *testing.T) {
	group := newFlightGroup()
	ctx := context.Background()

	var computations int32
	var mu sync.Mutex
	release := make(chan struct{})

	const callers = 16
	var wg sync.WaitGroup
	results := make([]*models.RouteResponse, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			response, err, _ := group.Do(ctx, "route:same", func() (*models.RouteResponse, error) {
				mu.Lock()
				computations++
				mu.Unlock()
				<-release
				return sampleResponse("winner"), nil
			})
			assert.NoError(t, err)
			results[idx] = response
		}(i)
	}

	// Give every goroutine a chance to join the flight, then release
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), computations)
	for _, response := range results {
		require.NotNil(t, response)
		assert.Equal(t, "route-winner", response.PrimaryRoute.RouteID)
	}

	// The promise is removed after resolution; a new call recomputes
	_, _, shared := group.Do(ctx, "route:same", func() (*models.RouteResponse, error) {
		return sampleResponse("second"), nil
	})
	assert.False(t, shared)
}

// TestFlightGroup_ErrorPropagates verifies waiter error sharing and cleanup
func TestFlightGroup_ErrorPropagates(t *testing.T) {
	group := newFlightGroup()
	ctx := context.Background()

	_, err, _ := group.Do(ctx, "route:err", func() (*models.RouteResponse, error) {
		return nil, fmt.Errorf("boom")
	})
	assert.EqualError(t, err, "boom")

	// Failed promises are removed too
	response, err, _ := group.Do(ctx, "route:err", func() (*models.RouteResponse, error) {
		return sampleResponse("ok"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "route-ok", response.PrimaryRoute.RouteID)
}
