// Package database - Port registry repository
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/sowhan/seavoyage/internal/metrics"
	"github.com/sowhan/seavoyage/internal/models"
	"github.com/sowhan/seavoyage/pkg/geo"
)

// PgxQuerier is an interface for database connections (supports both pgxpool.Pool and pgxmock)
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// portColumns is the shared projection for port queries
const portColumns = `
	unlocode, name, country, latitude, longitude,
	port_type, operational_status,
	max_vessel_length_meters, max_vessel_beam_meters, max_draft_meters,
	facilities, berths_count, average_port_time_hours, congestion_factor`

// PortRepository handles port data operations against PostgreSQL
type PortRepository struct {
	db PgxQuerier
}

// NewPortRepository creates a new port repository
func NewPortRepository(db PgxQuerier) *PortRepository {
	return &PortRepository{db: db}
}

// GetPort fetches a single port by UN/LOCODE. Returns (nil, nil) when no
// record exists; transient failures are retried once.
func (r *PortRepository) GetPort(ctx context.Context, unlocode string) (*models.Port, error) {
	query := `SELECT ` + portColumns + ` FROM ports WHERE unlocode = $1`

	var port *models.Port
	err := r.withRetry(ctx, "get_port", func() error {
		rows, err := r.db.Query(ctx, query, strings.ToUpper(unlocode))
		if err != nil {
			return err
		}
		defer rows.Close()

		port = nil
		if rows.Next() {
			p, err := scanPort(rows)
			if err != nil {
				return err
			}
			port = p
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch port %s: %w", unlocode, err)
	}

	return port, nil
}

// SearchPorts performs fuzzy matching over UN/LOCODE, name and country.
// Relevance ladder: exact code 100, exact name 95, code prefix 90, name
// prefix 85, name substring 70, country prefix 50, else 30. Ties break
// by name ascending.
func (r *PortRepository) SearchPorts(ctx context.Context, query string, limit int, opts SearchOptions) ([]models.PortSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	where := []string{`(unlocode = $1
		 OR unlocode LIKE $1 || '%'
		 OR LOWER(name) LIKE '%' || LOWER($2) || '%'
		 OR LOWER(country) LIKE LOWER($2) || '%')`}
	args := []interface{}{strings.ToUpper(query), query}

	if !opts.IncludeInactive {
		where = append(where, `operational_status = 'active'`)
	}
	if opts.Country != "" {
		args = append(args, opts.Country)
		where = append(where, fmt.Sprintf(`LOWER(country) = LOWER($%d)`, len(args)))
	}

	args = append(args, limit)
	searchSQL := fmt.Sprintf(`
	SELECT `+portColumns+`,
		CASE
			WHEN unlocode = $1 THEN 100
			WHEN LOWER(name) = LOWER($2) THEN 95
			WHEN unlocode LIKE $1 || '%%' THEN 90
			WHEN LOWER(name) LIKE LOWER($2) || '%%' THEN 85
			WHEN LOWER(name) LIKE '%%' || LOWER($2) || '%%' THEN 70
			WHEN LOWER(country) LIKE LOWER($2) || '%%' THEN 50
			ELSE 30
		END AS relevance_score
	FROM ports
	WHERE %s
	ORDER BY relevance_score DESC, name ASC
	LIMIT $%d`, strings.Join(where, " AND "), len(args))

	var results []models.PortSearchResult
	err := r.withRetry(ctx, "search_ports", func() error {
		rows, err := r.db.Query(ctx, searchSQL, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		results = results[:0]
		for rows.Next() {
			port, relevance, err := scanPortWithRelevance(rows)
			if err != nil {
				return err
			}

			// Drop ports the vessel cannot physically enter
			if opts.Vessel != nil && !port.IsCompatibleWithVessel(
				opts.Vessel.LengthMeters, opts.Vessel.BeamMeters, opts.Vessel.DraftMeters) {
				continue
			}

			results = append(results, models.PortSearchResult{Port: *port, RelevanceScore: relevance})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search ports for %q: %w", query, err)
	}

	return results, nil
}

// NearbyPorts finds active ports within radiusNM of center, nearest first.
// A latitude/longitude bounding box prefilters in SQL; the exact
// great-circle distance is computed per row.
func (r *PortRepository) NearbyPorts(ctx context.Context, center geo.Coordinates, radiusNM float64, limit int, vessel *models.VesselConstraints) ([]models.PortSearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if radiusNM <= 0 {
		radiusNM = 500
	}

	// One degree of latitude is 60nm; the longitude span widens toward the poles
	latDelta := radiusNM / 60.0
	lonDelta := 180.0
	if cosLat := math.Cos(center.Latitude * math.Pi / 180); cosLat > 0.01 {
		lonDelta = radiusNM / (60.0 * cosLat)
	}

	proximitySQL := `
	SELECT ` + portColumns + `
	FROM ports
	WHERE operational_status = 'active'
	AND latitude BETWEEN $1 AND $2
	AND longitude BETWEEN $3 AND $4`

	var candidates []models.Port
	err := r.withRetry(ctx, "nearby_ports", func() error {
		rows, err := r.db.Query(ctx, proximitySQL,
			center.Latitude-latDelta, center.Latitude+latDelta,
			center.Longitude-lonDelta, center.Longitude+lonDelta)
		if err != nil {
			return err
		}
		defer rows.Close()

		candidates = candidates[:0]
		for rows.Next() {
			port, err := scanPort(rows)
			if err != nil {
				return err
			}
			candidates = append(candidates, *port)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby ports: %w", err)
	}

	return rankByDistance(candidates, center, radiusNM, limit, vessel), nil
}

// ListActivePorts returns every active port; used for graph construction
func (r *PortRepository) ListActivePorts(ctx context.Context) ([]models.Port, error) {
	query := `SELECT ` + portColumns + ` FROM ports WHERE operational_status = 'active' ORDER BY unlocode`

	var ports []models.Port
	err := r.withRetry(ctx, "list_active_ports", func() error {
		rows, err := r.db.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		ports = ports[:0]
		for rows.Next() {
			port, err := scanPort(rows)
			if err != nil {
				return err
			}
			ports = append(ports, *port)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list active ports: %w", err)
	}

	return ports, nil
}

// Statistics summarizes the port registry contents
func (r *PortRepository) Statistics(ctx context.Context) (*models.PortStatistics, error) {
	query := `
	SELECT
		COUNT(*) AS total_ports,
		COUNT(*) FILTER (WHERE operational_status = 'active') AS active_ports,
		COUNT(DISTINCT country) AS countries,
		COUNT(DISTINCT port_type) AS port_types
	FROM ports`

	var stats models.PortStatistics
	err := r.withRetry(ctx, "statistics", func() error {
		return r.db.QueryRow(ctx, query).Scan(
			&stats.TotalPorts, &stats.ActivePorts, &stats.Countries, &stats.PortTypes)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch port statistics: %w", err)
	}

	return &stats, nil
}

// withRetry runs fn under the store retry policy: a single backoff retry
// before the failure surfaces to the caller
func (r *PortRepository) withRetry(ctx context.Context, operation string, fn func() error) error {
	attempt := 0
	err := RetryWithBackoff(ctx, DefaultRetryConfig(), func() error {
		attempt++
		if err := fn(); err != nil {
			if ctx.Err() == nil {
				log.Printf("Warning: port store %s attempt %d failed: %v", operation, attempt, err)
				metrics.PortStoreRequestsTotal.WithLabelValues(operation, "retry").Inc()
			}
			return err
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			metrics.PortStoreRequestsTotal.WithLabelValues(operation, "cancelled").Inc()
			return ctx.Err()
		}
		metrics.PortStoreRequestsTotal.WithLabelValues(operation, "error").Inc()
		return err
	}

	metrics.PortStoreRequestsTotal.WithLabelValues(operation, "ok").Inc()
	return nil
}

// rankByDistance sorts candidates by exact great-circle distance,
// enforces the radius, applies vessel filtering and derives relevance
func rankByDistance(candidates []models.Port, center geo.Coordinates, radiusNM float64, limit int, vessel *models.VesselConstraints) []models.PortSearchResult {
	type scored struct {
		port models.Port
		dist float64
	}

	within := make([]scored, 0, len(candidates))
	for _, port := range candidates {
		if vessel != nil && !port.IsCompatibleWithVessel(
			vessel.LengthMeters, vessel.BeamMeters, vessel.DraftMeters) {
			continue
		}
		dist := geo.Distance(center, port.Coordinates)
		if dist <= radiusNM {
			within = append(within, scored{port: port, dist: dist})
		}
	}

	sort.Slice(within, func(i, j int) bool { return within[i].dist < within[j].dist })
	if len(within) > limit {
		within = within[:limit]
	}

	results := make([]models.PortSearchResult, 0, len(within))
	for _, s := range within {
		dist := s.dist
		results = append(results, models.PortSearchResult{
			Port:           s.port,
			RelevanceScore: 100 - math.Min(dist/radiusNM*50, 50),
			DistanceNM:     &dist,
		})
	}
	return results
}

// rowScanner matches both pgx.Rows and pgx.Row for shared scanning
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPort(row rowScanner) (*models.Port, error) {
	var (
		port          models.Port
		lat, lon      float64
		portType      string
		status        string
		facilitiesRaw []byte
		avgPortTime   *float64
		congestion    *float64
	)

	err := row.Scan(
		&port.UNLocode, &port.Name, &port.Country, &lat, &lon,
		&portType, &status,
		&port.MaxVesselLengthMeters, &port.MaxVesselBeamMeters, &port.MaxDraftMeters,
		&facilitiesRaw, &port.BerthsCount, &avgPortTime, &congestion,
	)
	if err != nil {
		return nil, err
	}

	port.Coordinates = geo.Coordinates{Latitude: lat, Longitude: lon}
	port.PortType = models.PortType(portType)
	port.OperationalStatus = models.OperationalStatus(status)
	port.AveragePortTimeHours = 24.0
	if avgPortTime != nil {
		port.AveragePortTimeHours = *avgPortTime
	}
	port.CongestionFactor = 1.0
	if congestion != nil {
		port.CongestionFactor = *congestion
	}

	if len(facilitiesRaw) > 0 {
		if err := json.Unmarshal(facilitiesRaw, &port.Facilities); err != nil {
			log.Printf("Warning: malformed facilities JSON for port %s: %v", port.UNLocode, err)
			port.Facilities = map[string]interface{}{}
		}
	}

	return &port, nil
}

func scanPortWithRelevance(row rowScanner) (*models.Port, float64, error) {
	var (
		port          models.Port
		lat, lon      float64
		portType      string
		status        string
		facilitiesRaw []byte
		avgPortTime   *float64
		congestion    *float64
		relevance     float64
	)

	err := row.Scan(
		&port.UNLocode, &port.Name, &port.Country, &lat, &lon,
		&portType, &status,
		&port.MaxVesselLengthMeters, &port.MaxVesselBeamMeters, &port.MaxDraftMeters,
		&facilitiesRaw, &port.BerthsCount, &avgPortTime, &congestion,
		&relevance,
	)
	if err != nil {
		return nil, 0, err
	}

	port.Coordinates = geo.Coordinates{Latitude: lat, Longitude: lon}
	port.PortType = models.PortType(portType)
	port.OperationalStatus = models.OperationalStatus(status)
	port.AveragePortTimeHours = 24.0
	if avgPortTime != nil {
		port.AveragePortTimeHours = *avgPortTime
	}
	port.CongestionFactor = 1.0
	if congestion != nil {
		port.CongestionFactor = *congestion
	}

	if len(facilitiesRaw) > 0 {
		if err := json.Unmarshal(facilitiesRaw, &port.Facilities); err != nil {
			port.Facilities = map[string]interface{}{}
		}
	}

	return &port, relevance, nil
}
