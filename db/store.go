// Package db provides the optional Postgres-backed memo of fetched
// irradiance climatologies. The cache is a pure performance optimization:
// every error here is reported to the caller, who falls back to a live fetch,
// so correctness never depends on it.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridforge/microgrid-planner/sizing"
)

// Store wraps database access helpers.
//
// Expected schema:
//
//	CREATE TABLE planner.irradiance_cache (
//	    lat_key    double precision NOT NULL,
//	    lon_key    double precision NOT NULL,
//	    ghi        double precision[] NOT NULL,
//	    fetched_at timestamptz NOT NULL DEFAULT now(),
//	    PRIMARY KEY (lat_key, lon_key)
//	);
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const lookupSQL = `
    SELECT ghi
    FROM planner.irradiance_cache
    WHERE lat_key = $1 AND lon_key = $2
`

// Lookup returns the cached series for a rounded coordinate pair, or nil on a
// miss. A cached row that no longer passes series validation is reported as
// an error rather than served.
func (s *Store) Lookup(ctx context.Context, latKey, lonKey float64) (*sizing.MonthlySeries, error) {
	var vals []float64
	err := s.pool.QueryRow(ctx, lookupSQL, latKey, lonKey).Scan(&vals)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(vals) != len(sizing.Months) {
		return nil, fmt.Errorf("cache row holds %d values, want %d", len(vals), len(sizing.Months))
	}
	var series sizing.MonthlySeries
	copy(series[:], vals)
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("cached series: %w", err)
	}
	return &series, nil
}

const saveSQL = `
    INSERT INTO planner.irradiance_cache (lat_key, lon_key, ghi, fetched_at)
    VALUES ($1, $2, $3, now())
    ON CONFLICT (lat_key, lon_key)
    DO UPDATE SET ghi = EXCLUDED.ghi, fetched_at = now()
`

// Save upserts the series for a rounded coordinate pair.
func (s *Store) Save(ctx context.Context, latKey, lonKey float64, series sizing.MonthlySeries) error {
	_, err := s.pool.Exec(ctx, saveSQL, latKey, lonKey, series[:])
	return err
}
