// Package database provides interface definitions for testability
package database

import (
	"context"

	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/pkg/geo"
)

// HealthChecker defines the interface for database health checking
type HealthChecker interface {
	Health(ctx context.Context) error
}

// SearchOptions narrows a fuzzy port search
type SearchOptions struct {
	Country         string
	Vessel          *models.VesselConstraints
	IncludeInactive bool
}

// PortStore defines the interface for port data access.
// PortRepository retries a failed query once before surfacing the error;
// SnapshotStore does not retry. GetPort returns (nil, nil) when no record
// exists.
type PortStore interface {
	GetPort(ctx context.Context, unlocode string) (*models.Port, error)
	SearchPorts(ctx context.Context, query string, limit int, opts SearchOptions) ([]models.PortSearchResult, error)
	NearbyPorts(ctx context.Context, center geo.Coordinates, radiusNM float64, limit int, vessel *models.VesselConstraints) ([]models.PortSearchResult, error)
	ListActivePorts(ctx context.Context) ([]models.Port, error)
	Statistics(ctx context.Context) (*models.PortStatistics, error)
}

// Compile-time interface compliance checks
var (
	_ HealthChecker = (*DB)(nil)
	_ PortStore     = (*PortRepository)(nil)
	_ PortStore     = (*SnapshotStore)(nil)
)
