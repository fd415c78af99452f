// Package database - PostgreSQL test container harness
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// portsSchema is the live registry schema used by integration tests
const portsSchema = `
CREATE TABLE IF NOT EXISTS ports (
	unlocode CHAR(5) PRIMARY KEY,
	name TEXT NOT NULL,
	country TEXT NOT NULL,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	port_type TEXT NOT NULL DEFAULT 'multipurpose',
	operational_status TEXT NOT NULL DEFAULT 'active',
	max_vessel_length_meters DOUBLE PRECISION,
	max_vessel_beam_meters DOUBLE PRECISION,
	max_draft_meters DOUBLE PRECISION,
	facilities JSONB,
	berths_count INTEGER NOT NULL DEFAULT 0,
	average_port_time_hours DOUBLE PRECISION,
	congestion_factor DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS idx_ports_status ON ports (operational_status);
CREATE INDEX IF NOT EXISTS idx_ports_position ON ports (latitude, longitude);
`

// TestContainer wraps a throwaway PostgreSQL instance with the ports schema
type TestContainer struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	URL       string
}

// NewTestContainer starts a PostgreSQL container and applies the schema.
// Callers should skip their test when this returns an error; Docker is
// not available in every environment.
func NewTestContainer(ctx context.Context) (tc *TestContainer, err error) {
	// testcontainers panics when no Docker host can be found; report that
	// as an error so callers can skip
	defer func() {
		if r := recover(); r != nil {
			tc, err = nil, fmt.Errorf("docker unavailable: %v", r)
		}
	}()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("seavoyage_test"),
		postgres.WithUsername("seavoyage"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to test postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, portsSchema); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &TestContainer{
		Container: container,
		Pool:      pool,
		URL:       url,
	}, nil
}

// Close tears down the pool and the container
func (tc *TestContainer) Close(ctx context.Context) {
	if tc.Pool != nil {
		tc.Pool.Close()
	}
	if tc.Container != nil {
		_ = tc.Container.Terminate(ctx)
	}
}
