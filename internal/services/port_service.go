// Package services - Port intelligence: lookup, search and graph management
package services

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sowhan/seavoyage/internal/database"
	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/pkg/geo"
	"github.com/sowhan/seavoyage/pkg/logger"
)

// PortService resolves and memoizes port records and maintains the
// shipping graph snapshot. The memoization map is copy-on-write so
// readers never block; the graph pointer swaps atomically on rebuild.
type PortService struct {
	store  database.PortStore
	shared SharedCache
	config Config
	logger *logger.Logger

	// copy-on-write map[string]*models.Port
	memo atomic.Value

	graph      atomic.Pointer[Graph]
	rebuildMu  sync.Mutex
	graphBuilt atomic.Int64 // unix seconds of last build
}

// NewPortService creates a port intelligence service
func NewPortService(store database.PortStore, shared SharedCache, cfg Config, log *logger.Logger) *PortService {
	s := &PortService{
		store:  store,
		shared: shared,
		config: cfg.normalized(),
		logger: log,
	}
	s.memo.Store(map[string]*models.Port{})
	return s
}

// Compile-time interface compliance check
var _ PortIntelligenceServicer = (*PortService)(nil)

// GetPort resolves a UN/LOCODE through memo -> shared cache -> store.
// Returns (nil, nil) when the port does not exist; store failures (after
// PortRepository's single retry, where that store is used) surface as
// UpstreamFailureError.
func (s *PortService) GetPort(ctx context.Context, unlocode string) (*models.Port, error) {
	memo := s.memo.Load().(map[string]*models.Port)
	if port, ok := memo[unlocode]; ok {
		return port, nil
	}

	if s.shared != nil {
		if raw, ok := s.shared.Get(ctx, PortCacheNamespace, unlocode); ok {
			var port models.Port
			if err := json.Unmarshal(raw, &port); err == nil {
				s.memoize(&port)
				return &port, nil
			}
			s.logger.Warn("Discarding undecodable cached port", "unlocode", unlocode)
		}
	}

	port, err := s.store.GetPort(ctx, unlocode)
	if err != nil {
		return nil, &UpstreamFailureError{Operation: "get_port", Err: err}
	}
	if port == nil {
		return nil, nil
	}

	s.memoize(port)
	if s.shared != nil {
		if raw, err := json.Marshal(port); err == nil {
			s.shared.Set(ctx, PortCacheNamespace, unlocode, raw, int(s.config.PortTTL.Seconds()))
		}
	}

	return port, nil
}

// memoize installs a port into a fresh copy of the lookup map
func (s *PortService) memoize(port *models.Port) {
	old := s.memo.Load().(map[string]*models.Port)
	next := make(map[string]*models.Port, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[port.UNLocode] = port
	s.memo.Store(next)
}

// SearchPorts performs fuzzy port search with relevance ranking
func (s *PortService) SearchPorts(ctx context.Context, query string, limit int, opts database.SearchOptions) ([]models.PortSearchResult, error) {
	results, err := s.store.SearchPorts(ctx, query, limit, opts)
	if err != nil {
		return nil, &UpstreamFailureError{Operation: "search_ports", Err: err}
	}
	return results, nil
}

// NearbyPorts performs a spatial proximity search
func (s *PortService) NearbyPorts(ctx context.Context, center geo.Coordinates, radiusNM float64, limit int, vessel *models.VesselConstraints) ([]models.PortSearchResult, error) {
	results, err := s.store.NearbyPorts(ctx, center, radiusNM, limit, vessel)
	if err != nil {
		return nil, &UpstreamFailureError{Operation: "nearby_ports", Err: err}
	}
	return results, nil
}

// Statistics summarizes the port store
func (s *PortService) Statistics(ctx context.Context) (*models.PortStatistics, error) {
	stats, err := s.store.Statistics(ctx)
	if err != nil {
		return nil, &UpstreamFailureError{Operation: "statistics", Err: err}
	}
	return stats, nil
}

// GraphSnapshot returns the current shipping graph, building it on first
// use and rebuilding after the port TTL elapses. The returned snapshot
// is immutable; callers may use it without locking.
func (s *PortService) GraphSnapshot(ctx context.Context) (*Graph, error) {
	if g := s.graph.Load(); g != nil && !s.graphStale() {
		return g, nil
	}

	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	// Re-check after acquiring the rebuild lock
	if g := s.graph.Load(); g != nil && !s.graphStale() {
		return g, nil
	}

	ports, err := s.store.ListActivePorts(ctx)
	if err != nil {
		// A stale snapshot beats a failed request
		if g := s.graph.Load(); g != nil {
			s.logger.Warn("Port listing failed, serving stale graph snapshot", "error", err)
			return g, nil
		}
		return nil, &UpstreamFailureError{Operation: "list_active_ports", Err: err}
	}

	g := BuildGraph(ports, s.config.MaxEdgeDistanceNM)
	s.graph.Store(g)
	s.graphBuilt.Store(time.Now().Unix())

	// Memoize the full active set while it is in hand
	memo := make(map[string]*models.Port, len(ports))
	for i := range ports {
		memo[ports[i].UNLocode] = &ports[i]
	}
	s.memo.Store(memo)

	return g, nil
}

// RefreshGraph forces a rebuild on next snapshot access
func (s *PortService) RefreshGraph() {
	s.graphBuilt.Store(0)
}

func (s *PortService) graphStale() bool {
	built := s.graphBuilt.Load()
	return built == 0 || time.Since(time.Unix(built, 0)) > s.config.PortTTL
}
