// Package postgres persists entities, participants and the damage transcript
// in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/targeted-damage/internal/config"
)

// ErrSchemaMissing is returned when the database has not been migrated.
var ErrSchemaMissing = errors.New("database schema missing; run cmd/migrate")

// requiredTables are the tables the repositories in this package read and write.
var requiredTables = []string{"entities", "entity_effects", "entity_ownership", "participants", "damage_reports"}

// Pool owns the connection pool shared by every repository in a process.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects using cfg and verifies the connection with a ping.
//
// Precondition: cfg must pass config.Validate for the postgres backend.
// Postcondition: Returns a connected Pool or a non-nil error; nothing is left
// open on error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Pool{pool: db}, nil
}

// Health pings the database, giving up after timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// RequireSchema reports ErrSchemaMissing when a migration has not been applied.
func (p *Pool) RequireSchema(ctx context.Context) error {
	return RequireSchema(ctx, p.pool)
}

// RequireSchema checks db for every table the repositories use.
//
// Postcondition: Returns an error wrapping ErrSchemaMissing naming the first
// absent table.
func RequireSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, table := range requiredTables {
		var found *string
		if err := db.QueryRow(ctx, `SELECT to_regclass($1)::text`, table).Scan(&found); err != nil {
			return fmt.Errorf("checking table %s: %w", table, err)
		}
		if found == nil {
			return fmt.Errorf("table %s: %w", table, ErrSchemaMissing)
		}
	}
	return nil
}

// Close releases every connection.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the pgx pool repositories are constructed with.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}

// inTx runs fn in a transaction, committing when fn returns nil.
func inTx(ctx context.Context, db *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
