// Package database - Read-only SQLite port snapshot store
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/pkg/geo"
)

// SnapshotStore serves port data from a bundled read-only SQLite snapshot.
// It backs development and offline deployments where no PostgreSQL
// registry is available, and mirrors the PortRepository query semantics;
// failed queries are not retried.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore creates a snapshot-backed port store
func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

const snapshotColumns = `
	unlocode, name, country, latitude, longitude,
	port_type, operational_status,
	max_vessel_length_meters, max_vessel_beam_meters, max_draft_meters,
	facilities, berths_count`

// GetPort fetches a single port by UN/LOCODE; (nil, nil) when absent
func (s *SnapshotStore) GetPort(ctx context.Context, unlocode string) (*models.Port, error) {
	query := `SELECT ` + snapshotColumns + ` FROM ports WHERE unlocode = ?`

	rows, err := s.db.QueryContext(ctx, query, strings.ToUpper(unlocode))
	if err != nil {
		return nil, fmt.Errorf("snapshot port lookup failed: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanSnapshotPort(rows)
}

// SearchPorts performs the fuzzy relevance ladder in Go over a LIKE prefilter
func (s *SnapshotStore) SearchPorts(ctx context.Context, query string, limit int, opts SearchOptions) ([]models.PortSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	filter := `(unlocode LIKE ? OR LOWER(name) LIKE ? OR LOWER(country) LIKE ?)`
	args := []interface{}{
		strings.ToUpper(query) + "%",
		"%" + strings.ToLower(query) + "%",
		strings.ToLower(query) + "%",
	}
	if !opts.IncludeInactive {
		filter += ` AND operational_status = 'active'`
	}
	if opts.Country != "" {
		filter += ` AND LOWER(country) = LOWER(?)`
		args = append(args, opts.Country)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+snapshotColumns+` FROM ports WHERE `+filter, args...)
	if err != nil {
		return nil, fmt.Errorf("snapshot port search failed: %w", err)
	}
	defer rows.Close()

	var results []models.PortSearchResult
	for rows.Next() {
		port, err := scanSnapshotPort(rows)
		if err != nil {
			return nil, err
		}
		if opts.Vessel != nil && !port.IsCompatibleWithVessel(
			opts.Vessel.LengthMeters, opts.Vessel.BeamMeters, opts.Vessel.DraftMeters) {
			continue
		}
		results = append(results, models.PortSearchResult{
			Port:           *port,
			RelevanceScore: SearchRelevance(query, port),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return results[i].Port.Name < results[j].Port.Name
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// NearbyPorts finds active ports within radiusNM of center, nearest first
func (s *SnapshotStore) NearbyPorts(ctx context.Context, center geo.Coordinates, radiusNM float64, limit int, vessel *models.VesselConstraints) ([]models.PortSearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if radiusNM <= 0 {
		radiusNM = 500
	}

	ports, err := s.ListActivePorts(ctx)
	if err != nil {
		return nil, err
	}
	return rankByDistance(ports, center, radiusNM, limit, vessel), nil
}

// ListActivePorts returns every active port in the snapshot
func (s *SnapshotStore) ListActivePorts(ctx context.Context) ([]models.Port, error) {
	query := `SELECT ` + snapshotColumns + ` FROM ports WHERE operational_status = 'active' ORDER BY unlocode`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("snapshot port listing failed: %w", err)
	}
	defer rows.Close()

	var ports []models.Port
	for rows.Next() {
		port, err := scanSnapshotPort(rows)
		if err != nil {
			return nil, err
		}
		ports = append(ports, *port)
	}
	return ports, rows.Err()
}

// Statistics summarizes the snapshot contents
func (s *SnapshotStore) Statistics(ctx context.Context) (*models.PortStatistics, error) {
	query := `
	SELECT
		COUNT(*),
		SUM(CASE WHEN operational_status = 'active' THEN 1 ELSE 0 END),
		COUNT(DISTINCT country),
		COUNT(DISTINCT port_type)
	FROM ports`

	var stats models.PortStatistics
	err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalPorts, &stats.ActivePorts, &stats.Countries, &stats.PortTypes)
	if err != nil {
		return nil, fmt.Errorf("snapshot statistics failed: %w", err)
	}
	return &stats, nil
}

// SearchRelevance scores a port against a query using the fixed ladder:
// exact code 100, exact name 95, code prefix 90, name prefix 85,
// name substring 70, country prefix 50, else 30
func SearchRelevance(query string, port *models.Port) float64 {
	upper := strings.ToUpper(query)
	lower := strings.ToLower(query)
	name := strings.ToLower(port.Name)
	country := strings.ToLower(port.Country)

	switch {
	case port.UNLocode == upper:
		return 100
	case name == lower:
		return 95
	case strings.HasPrefix(port.UNLocode, upper):
		return 90
	case strings.HasPrefix(name, lower):
		return 85
	case strings.Contains(name, lower):
		return 70
	case strings.HasPrefix(country, lower):
		return 50
	default:
		return 30
	}
}

func scanSnapshotPort(rows *sql.Rows) (*models.Port, error) {
	var (
		port          models.Port
		lat, lon      float64
		portType      string
		status        string
		facilitiesRaw sql.NullString
	)

	err := rows.Scan(
		&port.UNLocode, &port.Name, &port.Country, &lat, &lon,
		&portType, &status,
		&port.MaxVesselLengthMeters, &port.MaxVesselBeamMeters, &port.MaxDraftMeters,
		&facilitiesRaw, &port.BerthsCount,
	)
	if err != nil {
		return nil, err
	}

	port.Coordinates = geo.Coordinates{Latitude: lat, Longitude: lon}
	port.PortType = models.PortType(portType)
	port.OperationalStatus = models.OperationalStatus(status)
	port.AveragePortTimeHours = 24.0
	port.CongestionFactor = 1.0

	if facilitiesRaw.Valid && facilitiesRaw.String != "" {
		if err := json.Unmarshal([]byte(facilitiesRaw.String), &port.Facilities); err != nil {
			log.Printf("Warning: malformed facilities JSON for port %s: %v", port.UNLocode, err)
			port.Facilities = map[string]interface{}{}
		}
	}

	return &port, nil
}
