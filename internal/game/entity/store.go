package entity

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a Ref does not resolve to an entity.
var ErrNotFound = errors.New("entity not found")

// Store is the persistence boundary for targetable entities.
type Store interface {
	// Load returns a fresh snapshot of the entity.
	//
	// Postcondition: Returns ErrNotFound (possibly wrapped) if ref is unknown.
	Load(ctx context.Context, ref Ref) (*Entity, error)

	// UpdateWounds persists the entity's wound value.
	UpdateWounds(ctx context.Context, ref Ref, value int) error

	// ToggleEffect activates or deactivates a status effect.
	//
	// Postcondition: Calling it twice with the same arguments leaves the same
	// effect set as calling it once.
	ToggleEffect(ctx context.Context, ref Ref, effectID string, active bool) error
}

// HolderKind distinguishes the two kinds of benny pool.
type HolderKind string

const (
	// HolderParticipant is a session participant's pool (the authority's shared pool included).
	HolderParticipant HolderKind = "participant"
	// HolderEntity is an entity's own pool.
	HolderEntity HolderKind = "entity"
)

// Holder identifies a spendable resource pool.
type Holder struct {
	Kind HolderKind
	ID   string
}

// ParticipantHolder returns the pool held by participant id.
func ParticipantHolder(id string) Holder { return Holder{Kind: HolderParticipant, ID: id} }

// EntityHolder returns the pool held by entity ref.
func EntityHolder(ref Ref) Holder { return Holder{Kind: HolderEntity, ID: string(ref)} }
