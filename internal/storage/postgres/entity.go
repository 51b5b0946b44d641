package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/targeted-damage/internal/game/condition"
	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
)

// EntityRepository persists targetable entities, their active effects, and
// their ownership. It implements entity.Store.
type EntityRepository struct {
	db *pgxpool.Pool
}

// NewEntityRepository creates an EntityRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEntityRepository(db *pgxpool.Pool) *EntityRepository {
	return &EntityRepository{db: db}
}

// Upsert inserts or replaces e together with its effects and ownership rows.
//
// Precondition: e.ID must be non-empty.
// Postcondition: A subsequent Load returns an entity equal to e.
func (r *EntityRepository) Upsert(ctx context.Context, e *entity.Entity) error {
	if e.ID == "" {
		return fmt.Errorf("upserting entity: id is required")
	}
	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return fmt.Errorf("encoding attributes: %w", err)
	}
	traits := e.Traits
	if traits == nil {
		traits = []string{}
	}

	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		return upsertEntity(ctx, tx, e, attrs, traits)
	})
}

func upsertEntity(ctx context.Context, tx pgx.Tx, e *entity.Entity, attrs []byte, traits []string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO entities (id, name, kind, wildcard, toughness, armor, vehicle_toughness,
			vehicle_armor, wounds, max_wounds, bennies, attributes, soak_bonus, unarmored,
			traits, default_ownership)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, kind = EXCLUDED.kind, wildcard = EXCLUDED.wildcard,
			toughness = EXCLUDED.toughness, armor = EXCLUDED.armor,
			vehicle_toughness = EXCLUDED.vehicle_toughness, vehicle_armor = EXCLUDED.vehicle_armor,
			wounds = EXCLUDED.wounds, max_wounds = EXCLUDED.max_wounds, bennies = EXCLUDED.bennies,
			attributes = EXCLUDED.attributes, soak_bonus = EXCLUDED.soak_bonus,
			unarmored = EXCLUDED.unarmored, traits = EXCLUDED.traits,
			default_ownership = EXCLUDED.default_ownership, updated_at = NOW()`,
		string(e.ID), e.Name, string(e.Kind), e.Wildcard, e.Toughness.Value, e.Toughness.Armor,
		e.VehicleToughness.Value, e.VehicleToughness.Armor, e.Wounds.Value, e.Wounds.Max,
		e.Bennies, attrs, e.SoakBonus, e.Unarmored, traits, int(e.Ownership.Default),
	)
	if err != nil {
		return fmt.Errorf("upserting entity %s: %w", e.ID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM entity_effects WHERE entity_id = $1`, string(e.ID)); err != nil {
		return fmt.Errorf("clearing effects: %w", err)
	}
	if e.Effects != nil {
		for _, id := range e.Effects.IDs() {
			if _, err := tx.Exec(ctx,
				`INSERT INTO entity_effects (entity_id, effect_id) VALUES ($1, $2)`,
				string(e.ID), id,
			); err != nil {
				return fmt.Errorf("inserting effect %s: %w", id, err)
			}
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM entity_ownership WHERE entity_id = $1`, string(e.ID)); err != nil {
		return fmt.Errorf("clearing ownership: %w", err)
	}
	for participant, level := range e.Ownership.Users {
		if _, err := tx.Exec(ctx,
			`INSERT INTO entity_ownership (entity_id, participant_id, level) VALUES ($1, $2, $3)`,
			string(e.ID), participant, int(level),
		); err != nil {
			return fmt.Errorf("inserting ownership for %s: %w", participant, err)
		}
	}

	return nil
}

// Load returns a fresh snapshot of the entity.
//
// Postcondition: Returns an error wrapping entity.ErrNotFound if ref is unknown.
func (r *EntityRepository) Load(ctx context.Context, ref entity.Ref) (*entity.Entity, error) {
	e := &entity.Entity{ID: ref}
	var (
		kind      string
		attrs     []byte
		defaultLv int
	)
	err := r.db.QueryRow(ctx, `
		SELECT name, kind, wildcard, toughness, armor, vehicle_toughness, vehicle_armor,
			wounds, max_wounds, bennies, attributes, soak_bonus, unarmored, traits, default_ownership
		FROM entities WHERE id = $1`,
		string(ref),
	).Scan(&e.Name, &kind, &e.Wildcard, &e.Toughness.Value, &e.Toughness.Armor,
		&e.VehicleToughness.Value, &e.VehicleToughness.Armor, &e.Wounds.Value, &e.Wounds.Max,
		&e.Bennies, &attrs, &e.SoakBonus, &e.Unarmored, &e.Traits, &defaultLv)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("loading %s: %w", ref, entity.ErrNotFound)
		}
		return nil, fmt.Errorf("querying entity %s: %w", ref, err)
	}
	e.Kind = entity.Kind(kind)
	e.Ownership.Default = entity.OwnershipLevel(defaultLv)
	if err := json.Unmarshal(attrs, &e.Attributes); err != nil {
		return nil, fmt.Errorf("decoding attributes of %s: %w", ref, err)
	}

	effects, err := r.effects(ctx, ref)
	if err != nil {
		return nil, err
	}
	e.Effects = condition.NewActiveSet(effects...)

	users, err := r.ownership(ctx, ref)
	if err != nil {
		return nil, err
	}
	e.Ownership.Users = users
	return e, nil
}

func (r *EntityRepository) effects(ctx context.Context, ref entity.Ref) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT effect_id FROM entity_effects WHERE entity_id = $1 ORDER BY effect_id`,
		string(ref),
	)
	if err != nil {
		return nil, fmt.Errorf("querying effects of %s: %w", ref, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning effects of %s: %w", ref, err)
	}
	return ids, nil
}

func (r *EntityRepository) ownership(ctx context.Context, ref entity.Ref) (map[string]entity.OwnershipLevel, error) {
	rows, err := r.db.Query(ctx,
		`SELECT participant_id, level FROM entity_ownership WHERE entity_id = $1`,
		string(ref),
	)
	if err != nil {
		return nil, fmt.Errorf("querying ownership of %s: %w", ref, err)
	}
	defer rows.Close()

	users := make(map[string]entity.OwnershipLevel)
	for rows.Next() {
		var (
			participant string
			level       int
		)
		if err := rows.Scan(&participant, &level); err != nil {
			return nil, fmt.Errorf("scanning ownership of %s: %w", ref, err)
		}
		users[participant] = entity.OwnershipLevel(level)
	}
	return users, rows.Err()
}

// UpdateWounds persists the entity's wound value.
//
// Precondition: value >= 0.
// Postcondition: Returns an error wrapping entity.ErrNotFound if ref is unknown.
func (r *EntityRepository) UpdateWounds(ctx context.Context, ref entity.Ref, value int) error {
	if value < 0 {
		return fmt.Errorf("updating wounds of %s: negative value %d", ref, value)
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE entities SET wounds = $1, updated_at = NOW() WHERE id = $2`,
		value, string(ref),
	)
	if err != nil {
		return fmt.Errorf("updating wounds of %s: %w", ref, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating wounds of %s: %w", ref, entity.ErrNotFound)
	}
	return nil
}

// ToggleEffect activates or deactivates a status effect. Repeating a toggle is a no-op.
//
// Postcondition: Returns an error wrapping entity.ErrNotFound if ref is unknown.
func (r *EntityRepository) ToggleEffect(ctx context.Context, ref entity.Ref, effectID string, active bool) error {
	if active {
		tag, err := r.db.Exec(ctx, `
			INSERT INTO entity_effects (entity_id, effect_id)
			SELECT id, $2 FROM entities WHERE id = $1
			ON CONFLICT (entity_id, effect_id) DO NOTHING`,
			string(ref), effectID,
		)
		if err != nil {
			return fmt.Errorf("applying %s to %s: %w", effectID, ref, err)
		}
		if tag.RowsAffected() == 0 {
			return r.requireExists(ctx, ref)
		}
		return nil
	}

	if _, err := r.db.Exec(ctx,
		`DELETE FROM entity_effects WHERE entity_id = $1 AND effect_id = $2`,
		string(ref), effectID,
	); err != nil {
		return fmt.Errorf("removing %s from %s: %w", effectID, ref, err)
	}
	return r.requireExists(ctx, ref)
}

func (r *EntityRepository) requireExists(ctx context.Context, ref entity.Ref) error {
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM entities WHERE id = $1)`, string(ref),
	).Scan(&exists); err != nil {
		return fmt.Errorf("checking entity %s: %w", ref, err)
	}
	if !exists {
		return fmt.Errorf("toggling effect on %s: %w", ref, entity.ErrNotFound)
	}
	return nil
}

// Refs lists every stored entity id in ascending order.
func (r *EntityRepository) Refs(ctx context.Context) ([]entity.Ref, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM entities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning entity ids: %w", err)
	}
	refs := make([]entity.Ref, len(ids))
	for i, id := range ids {
		refs[i] = entity.Ref(id)
	}
	return refs, nil
}
