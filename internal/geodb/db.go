package geodb

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osmquality/osmquality/internal/registry"
)

// DB wraps the PostGIS connection pool and implements engine.Store.
type DB struct {
	Pool *pgxpool.Pool
	reg  *registry.Registry
}

// Connect opens a pool against the PostGIS database and verifies it with a
// ping.
func Connect(ctx context.Context, url string, reg *registry.Registry) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &DB{Pool: pool, reg: reg}, nil
}

// Close releases the pool.
func (db *DB) Close() { db.Pool.Close() }
