// Package postgres archives simulation runs in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/paradox/internal/config"
)

// ApplicationName tags archive connections in pg_stat_activity.
const ApplicationName = "paradox-archive"

// ErrSchemaMissing is returned by CheckSchema when the recordings table has
// not been migrated.
var ErrSchemaMissing = errors.New("recordings table missing; run cmd/migrate")

// Pool is the archive's connection pool.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the archive database.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a pinged Pool or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Pool{pool: pool}, nil
}

// poolConfig maps cfg onto pgx settings. Connections carry ApplicationName.
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	return poolCfg, nil
}

// CheckSchema verifies the recordings table exists within timeout, so a run
// fails before simulating rather than when archiving its results.
//
// Postcondition: Returns nil, ErrSchemaMissing, or a connection error.
func (p *Pool) CheckSchema(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT to_regclass('public.recordings') IS NOT NULL`).Scan(&exists); err != nil {
		return fmt.Errorf("checking archive schema: %w", err)
	}
	if !exists {
		return ErrSchemaMissing
	}
	return nil
}

// Recordings returns a repository over this pool.
func (p *Pool) Recordings() *RecordingRepository {
	return NewRecordingRepository(p.pool)
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}
