// Package services - Multi-algorithm maritime pathfinding
package services

import (
	"container/heap"
	"context"
	"sort"
	"sync/atomic"

	"github.com/sowhan/seavoyage/internal/metrics"
	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/pkg/geo"
)

// MajorHubs are the strategic transshipment ports used by hub-biased routing
var MajorHubs = []string{
	"SGSIN", "NLRTM", "CNSHA", "AEJEA", "USLAX",
	"DEHAM", "HKHKG", "USPNY", "BEANR", "JPNGO",
}

// PathfinderStats exposes atomic pathfinding counters
type PathfinderStats struct {
	DijkstraCalls   int64 `json:"dijkstra_calls"`
	AStarCalls      int64 `json:"astar_calls"`
	HubRoutingCalls int64 `json:"hub_routing_calls"`
}

// Pathfinder implements Dijkstra, A*, hub-biased and k-alternative search
// over a graph snapshot. All methods are safe for concurrent use; the
// graph is read-only and the statistics are atomic.
type Pathfinder struct {
	hubs []string

	penaltyFactor float64
	hubDetourCap  float64

	dijkstraCalls   atomic.Int64
	astarCalls      atomic.Int64
	hubRoutingCalls atomic.Int64
}

// NewPathfinder creates a pathfinder with the standard hub set
func NewPathfinder(cfg Config) *Pathfinder {
	cfg = cfg.normalized()
	return &Pathfinder{
		hubs:          MajorHubs,
		penaltyFactor: cfg.PenaltyFactor,
		hubDetourCap:  cfg.HubDetourCap,
	}
}

// Stats returns a snapshot of the pathfinding counters
func (p *Pathfinder) Stats() PathfinderStats {
	return PathfinderStats{
		DijkstraCalls:   p.dijkstraCalls.Load(),
		AStarCalls:      p.astarCalls.Load(),
		HubRoutingCalls: p.hubRoutingCalls.Load(),
	}
}

// queueItem is a priority queue entry; seq breaks ties by insertion order
type queueItem struct {
	code     string
	priority float64
	seq      int64
}

type priorityQueue []queueItem

func (q priorityQueue) Len() int { return len(q) }
func (q priorityQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}
func (q priorityQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *priorityQueue) Push(x interface{}) { *q = append(*q, x.(queueItem)) }
func (q *priorityQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// edgeKey identifies a directed edge for the alternative-path penalty set
type edgeKey struct {
	from string
	to   string
}

// isEdgeFeasible checks an edge against vessel range and destination port
// compatibility. Origin-side compatibility is the planner's concern for
// the first port of a route.
func isEdgeFeasible(g *Graph, weight float64, to string, vessel *models.VesselConstraints) bool {
	if vessel == nil {
		return true
	}
	if weight > vessel.MaxRangeNauticalMiles {
		return false
	}
	if port := g.Port(to); port != nil {
		if !port.IsCompatibleWithVessel(vessel.LengthMeters, vessel.BeamMeters, vessel.DraftMeters) {
			return false
		}
	}
	return true
}

// Dijkstra finds the minimum-distance path between two ports over
// admissible edges. Returns nil when no path exists; ctx.Err() when the
// deadline expires mid-search.
func (p *Pathfinder) Dijkstra(ctx context.Context, g *Graph, origin, destination string, vessel *models.VesselConstraints) ([]string, error) {
	p.dijkstraCalls.Add(1)
	metrics.PathfinderCallsTotal.WithLabelValues("dijkstra").Inc()

	return p.dijkstraWithPenalties(ctx, g, origin, destination, vessel, nil)
}

// dijkstraWithPenalties is the shared Dijkstra core; edges in the avoid
// set have their weight multiplied by the penalty factor rather than
// being forbidden outright.
func (p *Pathfinder) dijkstraWithPenalties(ctx context.Context, g *Graph, origin, destination string, vessel *models.VesselConstraints, avoid map[edgeKey]bool) ([]string, error) {
	if !g.HasNode(origin) || !g.HasNode(destination) {
		return nil, nil
	}

	distances := map[string]float64{origin: 0}
	previous := map[string]string{}
	visited := map[string]bool{}

	var seq int64
	pq := &priorityQueue{{code: origin, priority: 0, seq: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		// Cancellation is observed at the pop check; partial work is discarded
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := heap.Pop(pq).(queueItem)
		if visited[current.code] {
			continue
		}
		visited[current.code] = true

		if current.code == destination {
			return reconstructPath(previous, origin, destination), nil
		}

		for neighbor, weight := range g.Neighbors(current.code) {
			if visited[neighbor] {
				continue
			}
			if !isEdgeFeasible(g, weight, neighbor, vessel) {
				continue
			}

			edgeWeight := weight
			if avoid != nil && avoid[edgeKey{from: current.code, to: neighbor}] {
				edgeWeight *= p.penaltyFactor
			}

			newDistance := distances[current.code] + edgeWeight
			if best, seen := distances[neighbor]; !seen || newDistance < best {
				distances[neighbor] = newDistance
				previous[neighbor] = current.code
				seq++
				heap.Push(pq, queueItem{code: neighbor, priority: newDistance, seq: seq})
			}
		}
	}

	return nil, nil
}

// AStar finds the minimum-distance path using the great-circle distance
// to the destination as an admissible heuristic. Produces the same cost
// as Dijkstra while exploring fewer nodes on geographically coherent
// graphs; preferred for time-criterion queries.
func (p *Pathfinder) AStar(ctx context.Context, g *Graph, origin, destination string, vessel *models.VesselConstraints) ([]string, error) {
	p.astarCalls.Add(1)
	metrics.PathfinderCallsTotal.WithLabelValues("astar").Inc()

	if !g.HasNode(origin) || !g.HasNode(destination) {
		return nil, nil
	}

	destPort := g.Port(destination)
	heuristic := func(code string) float64 {
		port := g.Port(code)
		if port == nil || destPort == nil {
			return 0
		}
		return geo.Distance(port.Coordinates, destPort.Coordinates)
	}

	gCosts := map[string]float64{origin: 0}
	previous := map[string]string{}
	closed := map[string]bool{}

	var seq int64
	pq := &priorityQueue{{code: origin, priority: heuristic(origin), seq: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := heap.Pop(pq).(queueItem)
		if closed[current.code] {
			continue
		}

		if current.code == destination {
			return reconstructPath(previous, origin, destination), nil
		}
		closed[current.code] = true

		for neighbor, weight := range g.Neighbors(current.code) {
			if closed[neighbor] {
				continue
			}
			if !isEdgeFeasible(g, weight, neighbor, vessel) {
				continue
			}

			tentative := gCosts[current.code] + weight
			if best, seen := gCosts[neighbor]; !seen || tentative < best {
				gCosts[neighbor] = tentative
				previous[neighbor] = current.code
				seq++
				heap.Push(pq, queueItem{code: neighbor, priority: tentative + heuristic(neighbor), seq: seq})
			}
		}
	}

	return nil, nil
}

// HubRoute finds a route biased through strategic shipping hubs.
//
// The direct Dijkstra path seeds the best distance; single-hub stitchings
// through the three hubs nearest each endpoint are accepted within the
// detour cap, and two-hub stitchings only when strictly improving.
func (p *Pathfinder) HubRoute(ctx context.Context, g *Graph, origin, destination string, vessel *models.VesselConstraints, allowTwoHubs bool) ([]string, error) {
	p.hubRoutingCalls.Add(1)
	metrics.PathfinderCallsTotal.WithLabelValues("hub").Inc()

	if !g.HasNode(origin) || !g.HasNode(destination) {
		return nil, nil
	}

	var bestPath []string
	bestDistance := 0.0

	direct, err := p.Dijkstra(ctx, g, origin, destination, vessel)
	if err != nil {
		return nil, err
	}
	if direct != nil {
		bestPath = direct
		bestDistance = g.PathDistance(direct)
	}
	directDistance := bestDistance
	hubAccepted := false

	originHubs := p.nearestHubs(g, origin, 3)
	destinationHubs := p.nearestHubs(g, destination, 3)

	// Single-hub stitching over the union of both hub sets
	for _, hub := range union(originHubs, destinationHubs) {
		if hub == origin || hub == destination {
			continue
		}

		first, err := p.Dijkstra(ctx, g, origin, hub, vessel)
		if err != nil {
			return nil, err
		}
		second, err := p.Dijkstra(ctx, g, hub, destination, vessel)
		if err != nil {
			return nil, err
		}
		if first == nil || second == nil {
			continue
		}

		combined := stitch(first, second)
		total := g.PathDistance(combined)

		withinCap := direct == nil || total <= directDistance*p.hubDetourCap
		if withinCap && (!hubAccepted || total < bestDistance) {
			bestPath = combined
			bestDistance = total
			hubAccepted = true
		}
	}

	// Two-hub stitching accepts only strict improvements
	if allowTwoHubs {
		for _, hub1 := range originHubs {
			for _, hub2 := range destinationHubs {
				if hub1 == hub2 || hub1 == origin || hub2 == destination {
					continue
				}

				first, err := p.Dijkstra(ctx, g, origin, hub1, vessel)
				if err != nil {
					return nil, err
				}
				second, err := p.Dijkstra(ctx, g, hub1, hub2, vessel)
				if err != nil {
					return nil, err
				}
				third, err := p.Dijkstra(ctx, g, hub2, destination, vessel)
				if err != nil {
					return nil, err
				}
				if first == nil || second == nil || third == nil {
					continue
				}

				combined := stitch(stitch(first, second), third)
				total := g.PathDistance(combined)

				if bestPath == nil || total < bestDistance {
					bestPath = combined
					bestDistance = total
				}
			}
		}
	}

	return bestPath, nil
}

// FindAlternativePaths produces up to k diverse near-optimal paths via
// the iterative penalty method: each found path's edges are discouraged
// (weight multiplied, not forbidden) in subsequent searches. Duplicates
// are suppressed.
func (p *Pathfinder) FindAlternativePaths(ctx context.Context, g *Graph, origin, destination string, vessel *models.VesselConstraints, k int) ([][]string, error) {
	var alternatives [][]string
	discouraged := map[edgeKey]bool{}

	for i := 0; i < k; i++ {
		path, err := p.dijkstraWithPenalties(ctx, g, origin, destination, vessel, discouraged)
		if err != nil {
			return nil, err
		}
		if path == nil {
			break
		}

		if !containsPath(alternatives, path) {
			alternatives = append(alternatives, path)
		}

		for j := 0; j < len(path)-1; j++ {
			discouraged[edgeKey{from: path[j], to: path[j+1]}] = true
			discouraged[edgeKey{from: path[j+1], to: path[j]}] = true
		}
	}

	return alternatives, nil
}

// nearestHubs returns the count hubs closest to the given port by
// great-circle distance, restricted to hubs present in the graph
func (p *Pathfinder) nearestHubs(g *Graph, code string, count int) []string {
	port := g.Port(code)
	if port == nil {
		return nil
	}

	type hubDistance struct {
		code string
		dist float64
	}

	candidates := make([]hubDistance, 0, len(p.hubs))
	for _, hub := range p.hubs {
		hubPort := g.Port(hub)
		if hubPort == nil {
			continue
		}
		candidates = append(candidates, hubDistance{
			code: hub,
			dist: geo.Distance(port.Coordinates, hubPort.Coordinates),
		})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })
	if len(candidates) > count {
		candidates = candidates[:count]
	}

	hubs := make([]string, len(candidates))
	for i, c := range candidates {
		hubs[i] = c.code
	}
	return hubs
}

// reconstructPath walks the previous pointers back from the destination
func reconstructPath(previous map[string]string, origin, destination string) []string {
	path := []string{destination}
	current := destination
	for current != origin {
		parent, ok := previous[current]
		if !ok {
			return nil
		}
		path = append(path, parent)
		current = parent
	}

	// Reverse in place
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// stitch joins two paths, dropping the duplicated junction port
func stitch(first, second []string) []string {
	combined := make([]string, 0, len(first)+len(second)-1)
	combined = append(combined, first...)
	if len(second) > 0 {
		combined = append(combined, second[1:]...)
	}
	return combined
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func containsPath(paths [][]string, candidate []string) bool {
	for _, path := range paths {
		if equalPaths(path, candidate) {
			return true
		}
	}
	return false
}

func equalPaths(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
