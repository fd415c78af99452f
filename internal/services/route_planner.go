// Package services - Route planning orchestration
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sowhan/seavoyage/internal/metrics"
	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/pkg/geo"
	"github.com/sowhan/seavoyage/pkg/logger"
)

// MaxHubCandidates bounds the hub-mediated candidates generated per request
const MaxHubCandidates = 5

// hubCandidateDetourCap rejects hub stopovers whose great-circle detour
// exceeds half again the direct distance
const hubCandidateDetourCap = 1.5

// RoutePlanner orchestrates the full calculation pipeline:
// validate -> resolve ports -> cache -> candidates -> materialize ->
// rank -> cache write. Concurrent requests with equal fingerprints share
// one in-flight computation.
type RoutePlanner struct {
	ports        *PortService
	pathfinder   *Pathfinder
	workerPool   *RouteWorkerPool
	cache        *RouteCache
	flights      *flightGroup
	config       Config
	logger       *logger.Logger

	totalCalculations atomic.Int64
	totalDurationMS   atomic.Int64
	cacheHits         atomic.Int64
	cacheMisses       atomic.Int64
}

// NewRoutePlanner wires the planner from its collaborators
func NewRoutePlanner(ports *PortService, shared SharedCache, cfg Config, log *logger.Logger) *RoutePlanner {
	cfg = cfg.normalized()

	fuel := NewFuelService(log)
	fees := NewFeeService(log)
	transit := NewTransitService()
	materializer := NewRouteMaterializer(fuel, fees, transit, cfg, log)

	return &RoutePlanner{
		ports:      ports,
		pathfinder: NewPathfinder(cfg),
		workerPool: NewRouteWorkerPool(materializer, cfg),
		cache:      NewRouteCache(shared, cfg, log),
		flights:    newFlightGroup(),
		config:     cfg,
		logger:     log,
	}
}

// Compile-time interface compliance check
var _ RoutePlannerServicer = (*RoutePlanner)(nil)

// CalculateRoute computes the optimal route plus ranked alternatives
func (p *RoutePlanner) CalculateRoute(ctx context.Context, req *models.RouteRequest) (*models.RouteResponse, error) {
	start := time.Now()
	requestID := uuid.NewString()

	defer func() {
		duration := time.Since(start)
		metrics.RouteCalculationDuration.Observe(duration.Seconds())
		p.totalCalculations.Add(1)
		p.totalDurationMS.Add(duration.Milliseconds())
	}()

	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	timeout := time.Duration(req.CalculationTimeoutSeconds) * time.Second
	if timeout > p.config.CalculationTimeout {
		timeout = p.config.CalculationTimeout
	}
	calcCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	origin, destination, err := p.resolvePorts(calcCtx, req)
	if err != nil {
		return nil, err
	}

	key := Fingerprint(req)

	if cached, ok := p.cache.Get(calcCtx, key); ok {
		p.cacheHits.Add(1)
		log.Printf("Route cache hit for %s -> %s", req.OriginPortCode, req.DestinationPortCode)
		return stampResponse(cached, requestID, start, true), nil
	}
	p.cacheMisses.Add(1)

	response, err, shared := p.flights.Do(calcCtx, key, func() (*models.RouteResponse, error) {
		return p.compute(calcCtx, key, req, origin, destination, timeout)
	})
	if err != nil {
		// A waiter timing out on someone else's computation still reports
		// a calculation timeout; the shared computation itself continues
		if errors.Is(err, context.DeadlineExceeded) {
			metrics.CalculationTimeoutsTotal.Inc()
			return nil, &CalculationTimeoutError{Timeout: timeout}
		}
		return nil, err
	}

	// Waiters on a shared in-flight computation did not compute themselves
	return stampResponse(response, requestID, start, shared), nil
}

// Statistics reports planner performance counters
func (p *RoutePlanner) Statistics() models.PlannerStatistics {
	total := p.totalCalculations.Load()
	avg := 0.0
	if total > 0 {
		avg = float64(p.totalDurationMS.Load()) / float64(total)
	}
	return models.PlannerStatistics{
		TotalCalculations:        total,
		AverageCalculationTimeMS: avg,
		CacheHits:                p.cacheHits.Load(),
		CacheMisses:              p.cacheMisses.Load(),
	}
}

// PathfinderStats exposes the pathfinding counters
func (p *RoutePlanner) PathfinderStats() PathfinderStats {
	return p.pathfinder.Stats()
}

// resolvePorts fetches both endpoints and enforces operational status
func (p *RoutePlanner) resolvePorts(ctx context.Context, req *models.RouteRequest) (*models.Port, *models.Port, error) {
	origin, err := p.ports.GetPort(ctx, req.OriginPortCode)
	if err != nil {
		return nil, nil, err
	}
	if origin == nil {
		return nil, nil, &PortNotFoundError{UNLocode: req.OriginPortCode}
	}
	if !origin.IsActive() {
		return nil, nil, &PortNotFoundError{UNLocode: req.OriginPortCode,
			Reason: fmt.Sprintf("not active (status %s)", origin.OperationalStatus)}
	}

	destination, err := p.ports.GetPort(ctx, req.DestinationPortCode)
	if err != nil {
		return nil, nil, err
	}
	if destination == nil {
		return nil, nil, &PortNotFoundError{UNLocode: req.DestinationPortCode}
	}
	if !destination.IsActive() {
		return nil, nil, &PortNotFoundError{UNLocode: req.DestinationPortCode,
			Reason: fmt.Sprintf("not active (status %s)", destination.OperationalStatus)}
	}

	return origin, destination, nil
}

// compute runs the cache-miss pipeline under the request deadline
func (p *RoutePlanner) compute(ctx context.Context, key string, req *models.RouteRequest, origin, destination *models.Port, timeout time.Duration) (*models.RouteResponse, error) {
	graph, err := p.ports.GraphSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	vessel := &req.VesselConstraints

	// Origin compatibility is checked once here; edge feasibility covers
	// every subsequent port of a route
	if !origin.IsCompatibleWithVessel(vessel.LengthMeters, vessel.BeamMeters, vessel.DraftMeters) {
		return nil, &VesselConstraintError{
			Reason: fmt.Sprintf("origin port %s cannot accommodate vessel dimensions", origin.UNLocode)}
	}

	candidates, err := p.generateCandidates(ctx, graph, req, origin, destination)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			metrics.CalculationTimeoutsTotal.Inc()
			return nil, &CalculationTimeoutError{Timeout: timeout}
		}
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, p.classifyEmptyResult(ctx, graph, req, origin, destination)
	}

	routes := p.workerPool.ProcessCandidates(ctx, candidates, req)

	if ctx.Err() != nil {
		// No partial results past the deadline
		metrics.CalculationTimeoutsTotal.Inc()
		return nil, &CalculationTimeoutError{Timeout: timeout}
	}
	if len(routes) == 0 {
		return nil, &NoRouteError{Origin: origin.UNLocode, Destination: destination.UNLocode}
	}

	rankRoutes(routes, req.OptimizationCriteria)

	response := &models.RouteResponse{
		PrimaryRoute:         *routes[0],
		AlternativeRoutes:    []models.DetailedRoute{},
		AlgorithmUsed:        AlgorithmForCriteria(req.OptimizationCriteria),
		OptimizationCriteria: req.OptimizationCriteria,
		TotalRoutesEvaluated: len(candidates),
		CacheHit:             false,
	}

	if req.IncludeAlternativeRoutes {
		limit := req.MaxAlternativeRoutes
		for _, route := range routes[1:] {
			if len(response.AlternativeRoutes) >= limit {
				break
			}
			response.AlternativeRoutes = append(response.AlternativeRoutes, *route)
		}
	}

	p.cache.Set(ctx, key, response)

	p.logger.Info("Route calculation completed",
		"origin", origin.UNLocode,
		"destination", destination.UNLocode,
		"candidates", len(candidates),
		"routes", len(routes),
		"criteria", string(req.OptimizationCriteria))

	return response, nil
}

// generateCandidates produces the direct, hub-mediated and alternative
// port sequences for materialization
func (p *RoutePlanner) generateCandidates(ctx context.Context, graph *Graph, req *models.RouteRequest, origin, destination *models.Port) ([]routeCandidate, error) {
	vessel := &req.VesselConstraints
	seen := map[string]bool{}
	var candidates []routeCandidate

	add := func(sequence []models.Port) {
		if len(sequence) < 2 {
			return
		}
		sig := sequenceSignature(sequence)
		if seen[sig] {
			return
		}
		seen[sig] = true
		candidates = append(candidates, routeCandidate{sequence: sequence, index: len(candidates)})
	}

	directDistance := geo.Distance(origin.Coordinates, destination.Coordinates)

	// Strategy 1: direct sailing inside the fuel safety margin
	if directDistance <= vessel.MaxRangeNauticalMiles*p.config.DirectSafetyMargin {
		if p.sequenceFeasible([]models.Port{*origin, *destination}, vessel) {
			add([]models.Port{*origin, *destination})
			log.Printf("Direct route feasible: %.0fnm", directDistance)
		}
	}

	// Strategy 2: hub-mediated routing
	if req.MaxConnectingPorts >= 1 {
		// Graph-stitched hub path; every edge honors vessel feasibility
		hubPath, err := p.pathfinder.HubRoute(ctx, graph, origin.UNLocode, destination.UNLocode, vessel, req.MaxConnectingPorts >= 2)
		if err != nil {
			return nil, err
		}
		if sequence := p.resolveSequence(graph, hubPath); sequence != nil {
			if p.sequenceFeasible(sequence, vessel) {
				add(sequence)
			}
		}

		// Geographic hub stopovers within the detour cap, offered only when
		// the graph connects the endpoints for this vessel
		if hubPath != nil {
			for _, hub := range p.hubStopovers(graph, origin, destination, vessel, directDistance) {
				sequence := []models.Port{*origin, *hub, *destination}
				if p.sequenceFeasible(sequence, vessel) {
					add(sequence)
				}
			}
		}
	}

	// Strategy 3: diverse alternatives via the penalty method
	if req.MaxConnectingPorts >= 2 && req.MaxAlternativeRoutes > 0 {
		paths, err := p.pathfinder.FindAlternativePaths(ctx, graph, origin.UNLocode, destination.UNLocode, vessel, req.MaxAlternativeRoutes)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			if sequence := p.resolveSequence(graph, path); sequence != nil {
				if p.sequenceFeasible(sequence, vessel) {
					add(sequence)
				}
			}
		}
	}

	log.Printf("Generated %d route candidates for %s -> %s", len(candidates), origin.UNLocode, destination.UNLocode)
	return candidates, nil
}

// hubStopovers selects up to MaxHubCandidates vessel-compatible hubs whose
// stopover detour stays inside the cap, nearest the route midpoint first
func (p *RoutePlanner) hubStopovers(graph *Graph, origin, destination *models.Port, vessel *models.VesselConstraints, directDistance float64) []*models.Port {
	midpoint := geo.Intermediate(origin.Coordinates, destination.Coordinates, 0.5)

	type scoredHub struct {
		port *models.Port
		dist float64
	}
	var scored []scoredHub

	for _, code := range MajorHubs {
		hub := graph.Port(code)
		if hub == nil || code == origin.UNLocode || code == destination.UNLocode {
			continue
		}
		if !hub.IsCompatibleWithVessel(vessel.LengthMeters, vessel.BeamMeters, vessel.DraftMeters) {
			continue
		}

		detour := geo.Distance(origin.Coordinates, hub.Coordinates) +
			geo.Distance(hub.Coordinates, destination.Coordinates)
		if directDistance > 0 && detour > directDistance*hubCandidateDetourCap {
			continue
		}

		scored = append(scored, scoredHub{port: hub, dist: geo.Distance(midpoint, hub.Coordinates)})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].dist < scored[j].dist })
	if len(scored) > MaxHubCandidates {
		scored = scored[:MaxHubCandidates]
	}

	hubs := make([]*models.Port, len(scored))
	for i, s := range scored {
		hubs[i] = s.port
	}
	return hubs
}

// sequenceFeasible verifies every leg against vessel range, destination
// port compatibility and canal requirements
func (p *RoutePlanner) sequenceFeasible(sequence []models.Port, vessel *models.VesselConstraints) bool {
	for i := 0; i < len(sequence)-1; i++ {
		from, to := &sequence[i], &sequence[i+1]

		if geo.Distance(from.Coordinates, to.Coordinates) > vessel.MaxRangeNauticalMiles {
			return false
		}
		if !to.IsCompatibleWithVessel(vessel.LengthMeters, vessel.BeamMeters, vessel.DraftMeters) {
			return false
		}

		switch InferCanal(from, to) {
		case CanalSuez:
			if !vessel.SuezCanalCompatible {
				return false
			}
		case CanalPanama:
			if !vessel.PanamaCanalCompatible {
				return false
			}
		}
	}
	return true
}

// resolveSequence maps a path of codes back to port records
func (p *RoutePlanner) resolveSequence(graph *Graph, path []string) []models.Port {
	if len(path) < 2 {
		return nil
	}
	sequence := make([]models.Port, 0, len(path))
	for _, code := range path {
		port := graph.Port(code)
		if port == nil {
			return nil
		}
		sequence = append(sequence, *port)
	}
	return sequence
}

// classifyEmptyResult distinguishes vessel-constraint rejections from
// genuinely disconnected pairs
func (p *RoutePlanner) classifyEmptyResult(ctx context.Context, graph *Graph, req *models.RouteRequest, origin, destination *models.Port) error {
	if ctx.Err() != nil {
		metrics.CalculationTimeoutsTotal.Inc()
		return &CalculationTimeoutError{Timeout: time.Duration(req.CalculationTimeoutSeconds) * time.Second}
	}

	// An unconstrained path existing means the vessel was the blocker
	unconstrained, err := p.pathfinder.Dijkstra(ctx, graph, origin.UNLocode, destination.UNLocode, nil)
	if err == nil && unconstrained != nil {
		return &VesselConstraintError{
			Reason: fmt.Sprintf("no admissible route for vessel between %s and %s (range/dimensions/canal)",
				origin.UNLocode, destination.UNLocode)}
	}

	return &NoRouteError{Origin: origin.UNLocode, Destination: destination.UNLocode}
}

// rankRoutes orders routes by the requested criterion, best first
func rankRoutes(routes []*models.DetailedRoute, criteria models.OptimizationCriteria) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		switch criteria {
		case models.CriteriaFastest:
			return a.TotalEstimatedTimeHours < b.TotalEstimatedTimeHours
		case models.CriteriaMostEconomical:
			return a.TotalCostUSD < b.TotalCostUSD
		case models.CriteriaMostReliable:
			return a.ReliabilityScore > b.ReliabilityScore
		case models.CriteriaEnvironmental:
			return a.EnvironmentalImpactScore < b.EnvironmentalImpactScore
		default:
			return a.OverallOptimizationScore > b.OverallOptimizationScore
		}
	})
}

// stampResponse copies a response and refreshes the per-call metadata
func stampResponse(response *models.RouteResponse, requestID string, start time.Time, cacheHit bool) *models.RouteResponse {
	stamped := *response
	stamped.RequestID = requestID
	stamped.CalculationTimestamp = time.Now().UTC()
	stamped.CalculationDurationSeconds = time.Since(start).Seconds()
	stamped.CacheHit = cacheHit
	return &stamped
}

func sequenceSignature(sequence []models.Port) string {
	codes := make([]string, len(sequence))
	for i := range sequence {
		codes[i] = sequence[i].UNLocode
	}
	return strings.Join(codes, ">")
}
