// Package session tracks the participants of a multi-user session and gives
// routing a consistent snapshot of who is connected.
package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
)

// Participant is one user in the session.
type Participant struct {
	// ID is the unique participant identifier.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Authority marks a game-master equivalent participant.
	Authority bool `json:"authority"`
	// Active is true while the participant's process is connected.
	Active bool `json:"active"`
	// CharacterID is the entity assigned to the participant as their primary character.
	CharacterID entity.Ref `json:"character_id,omitempty"`
}

// Roster tracks all known participants.
// All methods are safe for concurrent use.
type Roster struct {
	mu           sync.RWMutex
	participants map[string]Participant
}

// NewRoster creates an empty Roster.
func NewRoster() *Roster {
	return &Roster{participants: make(map[string]Participant)}
}

// Upsert adds p or replaces the participant with the same ID.
//
// Precondition: p.ID must be non-empty.
func (r *Roster) Upsert(p Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants[p.ID] = p
}

// Join marks p active, adding it if unknown.
//
// Postcondition: Returns an error if a participant with p.ID is already active.
func (r *Roster) Join(p Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.participants[p.ID]; ok && existing.Active {
		return fmt.Errorf("participant %q already connected", p.ID)
	}
	p.Active = true
	r.participants[p.ID] = p
	return nil
}

// SetActive updates a participant's connection state.
//
// Postcondition: Returns an error if id is unknown.
func (r *Roster) SetActive(id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return fmt.Errorf("participant %q not found", id)
	}
	p.Active = active
	r.participants[id] = p
	return nil
}

// Remove deletes a participant.
//
// Postcondition: Returns an error if id is unknown.
func (r *Roster) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.participants[id]; !ok {
		return fmt.Errorf("participant %q not found", id)
	}
	delete(r.participants, id)
	return nil
}

// Get returns the participant with id.
func (r *Roster) Get(id string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[id]
	return p, ok
}

// Replace swaps the whole roster for ps.
func (r *Roster) Replace(ps []Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants = make(map[string]Participant, len(ps))
	for _, p := range ps {
		r.participants[p.ID] = p
	}
}

// Count returns the number of known participants.
func (r *Roster) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}

// Snapshot returns an immutable copy of the roster.
func (r *Roster) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ps := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		ps = append(ps, p)
	}
	return NewSnapshot(ps)
}

// Snapshot is a point-in-time view of the roster ordered by participant ID.
type Snapshot struct {
	participants []Participant
}

// NewSnapshot builds a Snapshot from ps.
func NewSnapshot(ps []Participant) Snapshot {
	cp := append([]Participant(nil), ps...)
	sort.Slice(cp, func(i, j int) bool { return cp[i].ID < cp[j].ID })
	return Snapshot{participants: cp}
}

// Participants returns every participant in ID order.
//
// Postcondition: The returned slice is a new allocation.
func (s Snapshot) Participants() []Participant {
	return append([]Participant(nil), s.participants...)
}

// Get returns the participant with id.
func (s Snapshot) Get(id string) (Participant, bool) {
	for _, p := range s.participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// IsAuthority reports whether id names an authority participant.
func (s Snapshot) IsAuthority(id string) bool {
	p, ok := s.Get(id)
	return ok && p.Authority
}

// ActiveAuthority returns the connected authority with the lowest ID.
func (s Snapshot) ActiveAuthority() (Participant, bool) {
	for _, p := range s.participants {
		if p.Authority && p.Active {
			return p, true
		}
	}
	return Participant{}, false
}

// AssignedTo returns the connected participants whose primary character is
// ref, authorities included, in ID order.
func (s Snapshot) AssignedTo(ref entity.Ref) []Participant {
	var out []Participant
	for _, p := range s.participants {
		if p.Active && p.CharacterID == ref {
			out = append(out, p)
		}
	}
	return out
}

// ActiveOwners returns the connected non-authority participants with an
// explicit owner entry in o. Default ownership does not make a participant an
// owner here.
func (s Snapshot) ActiveOwners(o entity.Ownership) []Participant {
	var out []Participant
	for _, p := range s.participants {
		if p.Active && !p.Authority && o.ExplicitOwner(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

// HasPlayerOwner reports whether any non-authority participant, connected or
// not, owns an entity with ownership o.
func (s Snapshot) HasPlayerOwner(o entity.Ownership) bool {
	for _, p := range s.participants {
		if !p.Authority && o.IsOwner(p.ID) {
			return true
		}
	}
	return false
}
