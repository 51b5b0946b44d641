package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/session"
)

// ErrParticipantNotFound is returned when a participant lookup yields no results.
var ErrParticipantNotFound = errors.New("participant not found")

// ErrParticipantExists is returned when creating a participant whose id is taken.
var ErrParticipantExists = errors.New("participant already exists")

// ParticipantRecord is a registered participant and its benny pool.
type ParticipantRecord struct {
	session.Participant
	Bennies int
}

// ParticipantRepository persists registered participants.
type ParticipantRepository struct {
	db *pgxpool.Pool
}

// NewParticipantRepository creates a ParticipantRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Create registers a participant.
//
// Postcondition: Returns ErrParticipantExists if the id is taken.
func (r *ParticipantRepository) Create(ctx context.Context, rec ParticipantRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO participants (id, name, authority, character_id, bennies)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5)`,
		rec.ID, rec.Name, rec.Authority, string(rec.CharacterID), rec.Bennies,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrParticipantExists
		}
		return fmt.Errorf("inserting participant: %w", err)
	}
	return nil
}

// Get returns the participant with id.
//
// Postcondition: Returns ErrParticipantNotFound if id is unknown.
func (r *ParticipantRepository) Get(ctx context.Context, id string) (ParticipantRecord, error) {
	var (
		rec       ParticipantRecord
		character string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, name, authority, COALESCE(character_id, ''), bennies
		 FROM participants WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.Name, &rec.Authority, &character, &rec.Bennies)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ParticipantRecord{}, ErrParticipantNotFound
		}
		return ParticipantRecord{}, fmt.Errorf("querying participant: %w", err)
	}
	rec.CharacterID = entity.Ref(character)
	return rec, nil
}

// List returns every registered participant, inactive, ordered by id.
func (r *ParticipantRepository) List(ctx context.Context) ([]session.Participant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, authority, COALESCE(character_id, '') FROM participants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	defer rows.Close()

	var out []session.Participant
	for rows.Next() {
		var (
			p         session.Participant
			character string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Authority, &character); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		p.CharacterID = entity.Ref(character)
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetBennies overwrites a participant's benny count.
//
// Precondition: n >= 0.
// Postcondition: Returns ErrParticipantNotFound if id is unknown.
func (r *ParticipantRepository) SetBennies(ctx context.Context, id string, n int) error {
	tag, err := r.db.Exec(ctx, `UPDATE participants SET bennies = $1 WHERE id = $2`, n, id)
	if err != nil {
		return fmt.Errorf("updating bennies: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrParticipantNotFound
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
