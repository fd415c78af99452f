// Package services - Service layer interfaces for dependency injection and testing
package services

import (
	"context"

	"github.com/sowhan/seavoyage/internal/database"
	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/pkg/geo"
)

// SharedCache defines the interface for the optional cross-process cache.
// Every failure is absorbed as a miss; no cache error may fail a request.
type SharedCache interface {
	// Get retrieves a raw value; (nil, false) means miss
	Get(ctx context.Context, namespace, identifier string) ([]byte, bool)

	// Set stores a raw value with a TTL; returns false on failure
	Set(ctx context.Context, namespace, identifier string, value []byte, ttlSeconds int) bool

	// Delete removes a value; returns false on failure
	Delete(ctx context.Context, namespace, identifier string) bool

	// Health reports cache connectivity
	Health(ctx context.Context) bool
}

// RoutePlannerServicer defines the interface for route calculation
type RoutePlannerServicer interface {
	// CalculateRoute computes the optimal route plus ranked alternatives
	CalculateRoute(ctx context.Context, req *models.RouteRequest) (*models.RouteResponse, error)

	// Statistics reports planner performance counters
	Statistics() models.PlannerStatistics
}

// PortIntelligenceServicer defines the interface for port lookup and search
type PortIntelligenceServicer interface {
	// GetPort resolves a UN/LOCODE through the memoized lookup
	GetPort(ctx context.Context, unlocode string) (*models.Port, error)

	// SearchPorts performs fuzzy port search with relevance ranking
	SearchPorts(ctx context.Context, query string, limit int, opts database.SearchOptions) ([]models.PortSearchResult, error)

	// NearbyPorts performs a spatial proximity search
	NearbyPorts(ctx context.Context, center geo.Coordinates, radiusNM float64, limit int, vessel *models.VesselConstraints) ([]models.PortSearchResult, error)

	// Statistics summarizes the port store
	Statistics(ctx context.Context) (*models.PortStatistics, error)
}

// FeeServicer defines the interface for port fee calculations
type FeeServicer interface {
	// CalculatePortFees computes the full fee schedule for a vessel call
	CalculatePortFees(port *models.Port, vessel *models.VesselConstraints, portTimeHours float64) (models.USD, error)

	// PortTier classifies a port into fee tiers 1-4
	PortTier(port *models.Port) int
}

// FuelServicer defines the interface for fuel consumption estimates
type FuelServicer interface {
	// EstimateConsumption computes segment fuel burn in tons
	EstimateConsumption(distanceNM float64, vessel *models.VesselConstraints, factors VoyageFactors) (float64, error)
}

// TransitServicer defines the interface for transit time estimates
type TransitServicer interface {
	// EstimateTransitTime computes segment transit time in hours
	EstimateTransitTime(distanceNM, speedKnots float64, factors VoyageFactors) (float64, error)
}
