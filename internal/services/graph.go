// Package services - Shipping network graph
package services

import (
	"log"
	"time"

	"github.com/sowhan/seavoyage/internal/metrics"
	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/pkg/geo"
)

// Graph is an immutable snapshot of the shipping network. Edges connect
// every port pair within the maximum edge distance, bidirectionally and
// with equal weight. Snapshots are never mutated after construction;
// rebuilds swap in a fresh snapshot.
type Graph struct {
	edges map[string]map[string]float64
	ports map[string]*models.Port

	builtAt   time.Time
	edgeCount int
}

// BuildGraph constructs a shipping network over the given port set.
// Every unordered pair within maxEdgeDistanceNM gets a bidirectional
// edge weighted by great-circle distance. O(n^2) over the port count.
func BuildGraph(ports []models.Port, maxEdgeDistanceNM float64) *Graph {
	start := time.Now()

	g := &Graph{
		edges:   make(map[string]map[string]float64, len(ports)),
		ports:   make(map[string]*models.Port, len(ports)),
		builtAt: start,
	}

	for i := range ports {
		port := &ports[i]
		g.ports[port.UNLocode] = port
		g.edges[port.UNLocode] = make(map[string]float64)
	}

	edgesCreated := 0
	for i := range ports {
		for j := i + 1; j < len(ports); j++ {
			distance := geo.Distance(ports[i].Coordinates, ports[j].Coordinates)
			if distance <= maxEdgeDistanceNM {
				g.edges[ports[i].UNLocode][ports[j].UNLocode] = distance
				g.edges[ports[j].UNLocode][ports[i].UNLocode] = distance
				edgesCreated++
			}
		}
	}
	g.edgeCount = edgesCreated

	duration := time.Since(start)
	metrics.GraphBuildDuration.Observe(duration.Seconds())
	metrics.GraphEdges.Set(float64(edgesCreated))
	log.Printf("Shipping graph built: %d ports, %d edges in %v", len(ports), edgesCreated, duration)

	return g
}

// HasNode reports whether the port code exists in the graph
func (g *Graph) HasNode(code string) bool {
	_, ok := g.edges[code]
	return ok
}

// Port returns the port record for a node, or nil
func (g *Graph) Port(code string) *models.Port {
	return g.ports[code]
}

// Neighbors returns the adjacency map of a node. Callers must not mutate it.
func (g *Graph) Neighbors(code string) map[string]float64 {
	return g.edges[code]
}

// EdgeWeight returns the weight of edge (from, to), or (0, false)
func (g *Graph) EdgeWeight(from, to string) (float64, bool) {
	w, ok := g.edges[from][to]
	return w, ok
}

// NodeCount returns the number of ports in the graph
func (g *Graph) NodeCount() int {
	return len(g.edges)
}

// EdgeCount returns the number of undirected edges
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// BuiltAt returns the snapshot construction time
func (g *Graph) BuiltAt() time.Time {
	return g.builtAt
}

// PathDistance sums edge weights along a path of port codes.
// Missing edges contribute zero, matching a stitched path over a
// rebuilt graph as closely as possible.
func (g *Graph) PathDistance(path []string) float64 {
	total := 0.0
	for i := 0; i < len(path)-1; i++ {
		total += g.edges[path[i]][path[i+1]]
	}
	return total
}
