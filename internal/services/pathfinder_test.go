package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sowhan/seavoyage/internal/testutil"
)

func worldGraph() *Graph {
	return BuildGraph(testutil.WorldPorts(), 5000)
}

func newPathfinder() *Pathfinder {
	return NewPathfinder(DefaultConfig())
}

// TestDijkstra_FindsPath verifies endpoints and connectivity of the result
func TestDijkstra_FindsPath(t *testing.T) {
	g := worldGraph()
	p := newPathfinder()

	path, err := p.Dijkstra(context.Background(), g, "SGSIN", "NLRTM", nil)
	require.NoError(t, err)
	require.NotNil(t, path)

	assert.Equal(t, "SGSIN", path[0])
	assert.Equal(t, "NLRTM", path[len(path)-1])

	// Every hop must be a real edge
	for i := 0; i < len(path)-1; i++ {
		_, ok := g.EdgeWeight(path[i], path[i+1])
		assert.True(t, ok, "missing edge %s->%s", path[i], path[i+1])
	}
}

// TestDijkstra_AStar_EqualCost verifies both algorithms find equal-weight paths
func TestDijkstra_AStar_EqualCost(t *testing.T) {
	g := worldGraph()
	p := newPathfinder()
	ctx := context.Background()

	pairs := [][2]string{
		{"SGSIN", "NLRTM"},
		{"CNSHA", "DEHAM"},
		{"JPNGO", "AEJEA"},
		{"USLAX", "USPNY"},
	}

	for _, pair := range pairs {
		dijkstraPath, err := p.Dijkstra(ctx, g, pair[0], pair[1], nil)
		require.NoError(t, err)
		astarPath, err := p.AStar(ctx, g, pair[0], pair[1], nil)
		require.NoError(t, err)

		if dijkstraPath == nil {
			assert.Nil(t, astarPath, "pair %v", pair)
			continue
		}
		require.NotNil(t, astarPath, "pair %v", pair)

		assert.InDelta(t, g.PathDistance(dijkstraPath), g.PathDistance(astarPath), 0.01,
			"pair %v: dijkstra %v vs astar %v", pair, dijkstraPath, astarPath)
	}
}

// TestDijkstra_Unreachable verifies disconnected pairs return no path
func TestDijkstra_Unreachable(t *testing.T) {
	g := BuildGraph(testutil.WorldPorts(), 200)
	p := newPathfinder()
	ctx := context.Background()

	path, err := p.Dijkstra(ctx, g, "SGSIN", "NLRTM", nil)
	require.NoError(t, err)
	assert.Nil(t, path)

	path, err = p.AStar(ctx, g, "SGSIN", "NLRTM", nil)
	require.NoError(t, err)
	assert.Nil(t, path)
}

// TestDijkstra_UnknownNodes verifies missing endpoints return no path
func TestDijkstra_UnknownNodes(t *testing.T) {
	g := worldGraph()
	p := newPathfinder()

	path, err := p.Dijkstra(context.Background(), g, "ZZZZZ", "NLRTM", nil)
	require.NoError(t, err)
	assert.Nil(t, path)
}

// TestDijkstra_VesselRangeFeasibility verifies range-limited vessels only
// traverse admissible edges
func TestDijkstra_VesselRangeFeasibility(t *testing.T) {
	g := worldGraph()
	p := newPathfinder()
	vessel := testutil.ShortRangeVessel()

	path, err := p.Dijkstra(context.Background(), g, "SGSIN", "NLRTM", &vessel)
	require.NoError(t, err)
	require.NotNil(t, path)

	for i := 0; i < len(path)-1; i++ {
		weight, ok := g.EdgeWeight(path[i], path[i+1])
		require.True(t, ok)
		assert.LessOrEqual(t, weight, vessel.MaxRangeNauticalMiles)
	}
}

// TestDijkstra_PortDimensionFeasibility verifies dimension-limited ports
// are routed around
func TestDijkstra_PortDimensionFeasibility(t *testing.T) {
	ports := testutil.WorldPorts()

	// Shut Colombo to large vessels
	for i := range ports {
		if ports[i].UNLocode == "LKCMB" {
			maxLen := 100.0
			ports[i].MaxVesselLengthMeters = &maxLen
		}
	}
	g := BuildGraph(ports, 5000)
	p := newPathfinder()
	vessel := testutil.ContainerVessel()

	path, err := p.Dijkstra(context.Background(), g, "SGSIN", "NLRTM", &vessel)
	require.NoError(t, err)
	require.NotNil(t, path)

	for _, code := range path {
		assert.NotEqual(t, "LKCMB", code)
	}
}

// TestDijkstra_Cancellation verifies the deadline is observed at the pop check
func TestDijkstra_Cancellation(t *testing.T) {
	g := worldGraph()
	p := newPathfinder()

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := p.Dijkstra(ctx, g, "SGSIN", "NLRTM", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestHubRoute_FindsRoute verifies hub-biased routing produces a valid path
func TestHubRoute_FindsRoute(t *testing.T) {
	g := worldGraph()
	p := newPathfinder()

	path, err := p.HubRoute(context.Background(), g, "SGSIN", "NLRTM", nil, true)
	require.NoError(t, err)
	require.NotNil(t, path)

	assert.Equal(t, "SGSIN", path[0])
	assert.Equal(t, "NLRTM", path[len(path)-1])
}

// TestHubRoute_NeverWorseThanDetourCap verifies the accepted route stays
// within the detour cap of the direct path
func TestHubRoute_NeverWorseThanDetourCap(t *testing.T) {
	g := worldGraph()
	p := newPathfinder()
	ctx := context.Background()

	direct, err := p.Dijkstra(ctx, g, "SGSIN", "NLRTM", nil)
	require.NoError(t, err)
	require.NotNil(t, direct)

	hub, err := p.HubRoute(ctx, g, "SGSIN", "NLRTM", nil, true)
	require.NoError(t, err)
	require.NotNil(t, hub)

	assert.LessOrEqual(t, g.PathDistance(hub), g.PathDistance(direct)*DefaultConfig().HubDetourCap+0.01)
}

// TestFindAlternativePaths_DistinctAndBounded verifies alternatives are
// all distinct and within the penalty bound of optimal
func TestFindAlternativePaths_DistinctAndBounded(t *testing.T) {
	g := worldGraph()
	p := newPathfinder()
	ctx := context.Background()

	optimal, err := p.Dijkstra(ctx, g, "SGSIN", "NLRTM", nil)
	require.NoError(t, err)
	require.NotNil(t, optimal)
	optimalDistance := g.PathDistance(optimal)

	paths, err := p.FindAlternativePaths(ctx, g, "SGSIN", "NLRTM", nil, 3)
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for i, path := range paths {
		assert.Equal(t, "SGSIN", path[0])
		assert.Equal(t, "NLRTM", path[len(path)-1])
		assert.LessOrEqual(t, g.PathDistance(path), optimalDistance*DefaultConfig().PenaltyFactor+0.01)

		for j := i + 1; j < len(paths); j++ {
			assert.False(t, equalPaths(path, paths[j]), "paths %d and %d identical", i, j)
		}
	}
}

// TestPathfinder_Stats verifies the atomic call counters
func TestPathfinder_Stats(t *testing.T) {
	g := worldGraph()
	p := newPathfinder()
	ctx := context.Background()

	_, _ = p.Dijkstra(ctx, g, "SGSIN", "AEJEA", nil)
	_, _ = p.AStar(ctx, g, "SGSIN", "AEJEA", nil)
	_, _ = p.HubRoute(ctx, g, "SGSIN", "AEJEA", nil, false)

	stats := p.Stats()
	assert.GreaterOrEqual(t, stats.DijkstraCalls, int64(2)) // hub routing calls Dijkstra too
	assert.Equal(t, int64(1), stats.AStarCalls)
	assert.Equal(t, int64(1), stats.HubRoutingCalls)
}

// TestStitch verifies junction deduplication
func TestStitch(t *testing.T) {
	combined := stitch([]string{"A", "B", "C"}, []string{"C", "D"})
	assert.Equal(t, []string{"A", "B", "C", "D"}, combined)
}
