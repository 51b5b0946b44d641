package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/report"
)

// TranscriptRepository is an append-only log of damage reports. It
// implements report.Publisher.
type TranscriptRepository struct {
	db *pgxpool.Pool
}

// NewTranscriptRepository creates a TranscriptRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewTranscriptRepository(db *pgxpool.Pool) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// Publish appends r. Publishing the same report id twice is a no-op.
func (t *TranscriptRepository) Publish(ctx context.Context, r report.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = t.db.Exec(ctx,
		`INSERT INTO damage_reports (id, event_id, kind, target_id, target_name, wounds, body, payload)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		r.ID.String(), r.EventID, string(r.Kind), string(r.Target), r.TargetName, r.Wounds, r.Text, payload,
	)
	if err != nil {
		return fmt.Errorf("appending report %s: %w", r.ID, err)
	}
	return nil
}

// ForTarget returns the reports for ref, oldest first.
func (t *TranscriptRepository) ForTarget(ctx context.Context, ref entity.Ref) ([]report.Report, error) {
	rows, err := t.db.Query(ctx,
		`SELECT payload FROM damage_reports WHERE target_id = $1 ORDER BY created_at, id`,
		string(ref),
	)
	if err != nil {
		return nil, fmt.Errorf("querying reports for %s: %w", ref, err)
	}
	payloads, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("scanning reports for %s: %w", ref, err)
	}
	out := make([]report.Report, 0, len(payloads))
	for _, p := range payloads {
		var r report.Report
		if err := json.Unmarshal(p, &r); err != nil {
			return nil, fmt.Errorf("decoding report: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
