// Package postgres stores the snapshot slot as a row of the slots table.
package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/stall-orders/db"
	"github.com/xenking/stall-orders/internal/storage/snapshot"
)

// NewPool creates a pgxpool.Pool for databaseURL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

const (
	selectSlot = `SELECT payload FROM slots WHERE name = $1`
	upsertSlot = `INSERT INTO slots (name, payload, updated_at) VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
)

var _ snapshot.Slot = (*Slot)(nil)

// Slot keeps one named snapshot in the slots table.
type Slot struct {
	pool *pgxpool.Pool
	name string
}

// NewSlot returns a Slot for name that uses pool.
func NewSlot(pool *pgxpool.Pool, name string) *Slot {
	return &Slot{pool: pool, name: name}
}

// Read returns the payload, or nil when no row exists for the slot.
func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, selectSlot, s.name).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading slot %q: %w", s.name, err)
	}
	return payload, nil
}

// Write upserts the payload.
func (s *Slot) Write(ctx context.Context, data []byte) error {
	if _, err := s.pool.Exec(ctx, upsertSlot, s.name, data); err != nil {
		return fmt.Errorf("writing slot %q: %w", s.name, err)
	}
	return nil
}

// Ping checks the connection.
func (s *Slot) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool.
func (s *Slot) Close() error {
	s.pool.Close()
	return nil
}
