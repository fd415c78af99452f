// Package services - Candidate materialization worker pool
package services

import (
	"context"
	"log"
	"sync"

	"github.com/sowhan/seavoyage/internal/metrics"
	"github.com/sowhan/seavoyage/internal/models"
)

// routeCandidate is a port sequence awaiting materialization
type routeCandidate struct {
	sequence []models.Port
	index    int
}

// RouteWorkerPool materializes candidate routes in parallel. Workers only
// read shared state; each candidate failure is logged and skipped rather
// than failing the whole calculation.
type RouteWorkerPool struct {
	workerCount  int
	materializer *RouteMaterializer
}

// NewRouteWorkerPool creates a worker pool over the given materializer
func NewRouteWorkerPool(materializer *RouteMaterializer, cfg Config) *RouteWorkerPool {
	cfg = cfg.normalized()
	return &RouteWorkerPool{
		workerCount:  cfg.WorkerCount,
		materializer: materializer,
	}
}

// ProcessCandidates materializes all candidates, honoring context
// cancellation between items. The output order is unspecified.
func (p *RouteWorkerPool) ProcessCandidates(ctx context.Context, candidates []routeCandidate, req *models.RouteRequest) []*models.DetailedRoute {
	if len(candidates) == 0 {
		return nil
	}

	workers := p.workerCount
	if workers > len(candidates) {
		workers = len(candidates)
	}

	queue := make(chan routeCandidate, len(candidates))
	results := make(chan *models.DetailedRoute, len(candidates))

	for _, candidate := range candidates {
		queue <- candidate
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, queue, results, req)
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	routes := make([]*models.DetailedRoute, 0, len(candidates))
	for route := range results {
		routes = append(routes, route)
	}
	return routes
}

// worker drains the candidate queue until empty or cancelled
func (p *RouteWorkerPool) worker(ctx context.Context, queue <-chan routeCandidate, results chan<- *models.DetailedRoute, req *models.RouteRequest) {
	for candidate := range queue {
		select {
		case <-ctx.Done():
			return
		default:
		}

		route, err := p.materializer.Materialize(candidate.sequence, req, candidate.index)
		if err != nil {
			log.Printf("Warning: skipped candidate %d: %v", candidate.index, err)
			continue
		}
		metrics.RoutesEvaluatedTotal.Inc()

		select {
		case results <- route:
		case <-ctx.Done():
			return
		}
	}
}
