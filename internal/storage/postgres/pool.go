package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
)

// ResourcePool spends bennies from participant and entity pools.
type ResourcePool struct {
	db *pgxpool.Pool
}

// NewResourcePool creates a ResourcePool backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewResourcePool(db *pgxpool.Pool) *ResourcePool {
	return &ResourcePool{db: db}
}

// Spend removes one benny from h's pool.
//
// Postcondition: Returns false without error when the pool is empty or unknown.
// The decrement and the emptiness check happen in one statement, so the count
// never goes negative under concurrent spends.
func (p *ResourcePool) Spend(ctx context.Context, h entity.Holder) (bool, error) {
	var query string
	switch h.Kind {
	case entity.HolderParticipant:
		query = `UPDATE participants SET bennies = bennies - 1 WHERE id = $1 AND bennies > 0`
	case entity.HolderEntity:
		query = `UPDATE entities SET bennies = bennies - 1, updated_at = NOW() WHERE id = $1 AND bennies > 0`
	default:
		return false, fmt.Errorf("spending from unknown holder kind %q", h.Kind)
	}
	tag, err := p.db.Exec(ctx, query, h.ID)
	if err != nil {
		return false, fmt.Errorf("spending benny from %s %s: %w", h.Kind, h.ID, err)
	}
	return tag.RowsAffected() == 1, nil
}
