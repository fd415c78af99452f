// Package database provides connection management for the port stores:
// a PostgreSQL registry for live data and an optional read-only SQLite
// snapshot for offline deployments.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"
)

// Config holds database configuration
type Config struct {
	// PostgresURL is the live registry DSN
	PostgresURL string

	// MaxConns caps the pool size; 0 keeps the pgxpool default
	MaxConns int32

	// ConnectTimeout bounds the initial connection attempt
	ConnectTimeout time.Duration

	// SnapshotPath points at the SQLite snapshot; empty disables it
	SnapshotPath string
}

// DB owns the store connections for the lifetime of the process
type DB struct {
	// Postgres backs the live PortRepository
	Postgres *pgxpool.Pool

	// Snapshot backs the read-only SnapshotStore when configured
	Snapshot *sql.DB
}

// New opens the configured stores, failing fast if any is unreachable
func New(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	pool, err := openPostgres(connectCtx, cfg)
	if err != nil {
		return nil, err
	}

	snapshot, err := openSnapshot(cfg.SnapshotPath)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &DB{
		Postgres: pool,
		Snapshot: snapshot,
	}, nil
}

// openPostgres parses the DSN, applies pool sizing and verifies liveness
func openPostgres(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("invalid PostgreSQL URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return pool, nil
}

// openSnapshot opens the read-only SQLite snapshot, or nothing when
// no path is configured
func openSnapshot(path string) (*sql.DB, error) {
	if path == "" {
		return nil, nil
	}

	snapshot, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite snapshot: %w", err)
	}
	if err := snapshot.Ping(); err != nil {
		snapshot.Close()
		return nil, fmt.Errorf("failed to ping SQLite snapshot: %w", err)
	}

	return snapshot, nil
}

// Close releases all store connections
func (db *DB) Close() {
	if db.Postgres != nil {
		db.Postgres.Close()
	}
	if db.Snapshot != nil {
		db.Snapshot.Close()
	}
}

// Health reports the first unhealthy store, if any
func (db *DB) Health(ctx context.Context) error {
	if err := db.Postgres.Ping(ctx); err != nil {
		return fmt.Errorf("PostgreSQL unhealthy: %w", err)
	}

	if db.Snapshot != nil {
		if err := db.Snapshot.PingContext(ctx); err != nil {
			return fmt.Errorf("SQLite snapshot unhealthy: %w", err)
		}
	}

	return nil
}
