package database

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sowhan/seavoyage/pkg/geo"
)

var portRows = []string{
	"unlocode", "name", "country", "latitude", "longitude",
	"port_type", "operational_status",
	"max_vessel_length_meters", "max_vessel_beam_meters", "max_draft_meters",
	"facilities", "berths_count", "average_port_time_hours", "congestion_factor",
}

func singaporeRow(mock pgxmock.PgxPoolIface) *pgxmock.Rows {
	return mock.NewRows(portRows).AddRow(
		"SGSIN", "Singapore", "Singapore", 1.2644, 103.84,
		"container_terminal", "active",
		nil, nil, nil,
		[]byte(`{"bunkering": true, "pilotage": true}`), 40, nil, nil,
	)
}

// TestGetPort_Found verifies row scanning and defaults
func TestGetPort_Found(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT(.|\n)*FROM ports WHERE unlocode = \$1`).
		WithArgs("SGSIN").
		WillReturnRows(singaporeRow(mock))

	repo := NewPortRepository(mock)
	port, err := repo.GetPort(context.Background(), "sgsin")
	require.NoError(t, err)
	require.NotNil(t, port)

	assert.Equal(t, "SGSIN", port.UNLocode)
	assert.Equal(t, "Singapore", port.Name)
	assert.InDelta(t, 1.2644, port.Coordinates.Latitude, 0.0001)
	assert.Equal(t, 40, port.BerthsCount)
	// Unset columns fall back to operational defaults
	assert.Equal(t, 24.0, port.AveragePortTimeHours)
	assert.Equal(t, 1.0, port.CongestionFactor)
	assert.Equal(t, true, port.Facilities["bunkering"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestGetPort_Missing verifies (nil, nil) on empty result sets
func TestGetPort_Missing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT(.|\n)*FROM ports WHERE unlocode = \$1`).
		WithArgs("ZZZZZ").
		WillReturnRows(mock.NewRows(portRows))

	repo := NewPortRepository(mock)
	port, err := repo.GetPort(context.Background(), "ZZZZZ")
	require.NoError(t, err)
	assert.Nil(t, port)
}

// TestGetPort_RetriesOnce verifies the single-retry contract
func TestGetPort_RetriesOnce(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT(.|\n)*FROM ports WHERE unlocode = \$1`).
		WithArgs("SGSIN").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(`SELECT(.|\n)*FROM ports WHERE unlocode = \$1`).
		WithArgs("SGSIN").
		WillReturnRows(singaporeRow(mock))

	repo := NewPortRepository(mock)
	port, err := repo.GetPort(context.Background(), "SGSIN")
	require.NoError(t, err)
	require.NotNil(t, port)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestGetPort_SurfacesAfterRetry verifies errors surface after two failures
func TestGetPort_SurfacesAfterRetry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT(.|\n)*FROM ports WHERE unlocode = \$1`).
		WillReturnError(errors.New("down"))
	mock.ExpectQuery(`SELECT(.|\n)*FROM ports WHERE unlocode = \$1`).
		WillReturnError(errors.New("still down"))

	repo := NewPortRepository(mock)
	_, err = repo.GetPort(context.Background(), "SGSIN")
	assert.Error(t, err)
}

// TestSearchPorts_RelevanceRows verifies search scanning and ordering
func TestSearchPorts_RelevanceRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	searchRows := append(append([]string{}, portRows...), "relevance_score")
	rows := mock.NewRows(searchRows).
		AddRow("SGSIN", "Singapore", "Singapore", 1.2644, 103.84,
			"container_terminal", "active", nil, nil, nil, nil, 40, nil, nil, float64(100)).
		AddRow("MYTPP", "Tanjung Pelepas", "Malaysia", 1.362, 103.55,
			"container_terminal", "active", nil, nil, nil, nil, 12, nil, nil, float64(70))

	mock.ExpectQuery(`SELECT(.|\n)*relevance_score(.|\n)*FROM ports`).
		WillReturnRows(rows)

	repo := NewPortRepository(mock)
	results, err := repo.SearchPorts(context.Background(), "sin", 20, SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 100.0, results[0].RelevanceScore)
	assert.Equal(t, "SGSIN", results[0].Port.UNLocode)
}

// TestSearchPorts_EmptyQuery verifies blank queries short-circuit
func TestSearchPorts_EmptyQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPortRepository(mock)
	results, err := repo.SearchPorts(context.Background(), "   ", 20, SearchOptions{})
	require.NoError(t, err)
	assert.Nil(t, results)
}

// TestNearbyPorts_ExactDistanceFilter verifies the in-Go radius filter
// on top of the SQL bounding box
func TestNearbyPorts_ExactDistanceFilter(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := mock.NewRows(portRows).
		AddRow("SGSIN", "Singapore", "Singapore", 1.2644, 103.84,
			"container_terminal", "active", nil, nil, nil, nil, 40, nil, nil).
		AddRow("MYTPP", "Tanjung Pelepas", "Malaysia", 1.362, 103.55,
			"container_terminal", "active", nil, nil, nil, nil, 12, nil, nil)

	mock.ExpectQuery(`SELECT(.|\n)*FROM ports(.|\n)*latitude BETWEEN`).
		WillReturnRows(rows)

	repo := NewPortRepository(mock)
	center := geo.Coordinates{Latitude: 1.2644, Longitude: 103.84}
	results, err := repo.NearbyPorts(context.Background(), center, 100, 20, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Sorted nearest first with populated distances
	assert.Equal(t, "SGSIN", results[0].Port.UNLocode)
	assert.Equal(t, 0.0, *results[0].DistanceNM)
	assert.Greater(t, *results[1].DistanceNM, 0.0)
}

// TestStatistics_Scan verifies the aggregate row scan
func TestStatistics_Scan(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT(.|\n)*COUNT`).
		WillReturnRows(mock.NewRows([]string{"total_ports", "active_ports", "countries", "port_types"}).
			AddRow(1204, 1180, 142, 7))

	repo := NewPortRepository(mock)
	stats, err := repo.Statistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1204, stats.TotalPorts)
	assert.Equal(t, 1180, stats.ActivePorts)
	assert.Equal(t, 142, stats.Countries)
	assert.Equal(t, 7, stats.PortTypes)
}

// TestListActivePorts_Scan verifies full listing
func TestListActivePorts_Scan(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT(.|\n)*operational_status = 'active'`).
		WillReturnRows(singaporeRow(mock))

	repo := NewPortRepository(mock)
	ports, err := repo.ListActivePorts(context.Background())
	require.NoError(t, err)
	require.Len(t, ports, 1)
	assert.Equal(t, "SGSIN", ports[0].UNLocode)
}
