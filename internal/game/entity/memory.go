package entity

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store and benny pool.
// It is safe for concurrent use.
type MemoryStore struct {
	mu           sync.RWMutex
	entities     map[Ref]*Entity
	participants map[string]int
}

// NewMemoryStore creates a store holding copies of entities.
//
// Postcondition: Returns a non-nil MemoryStore.
func NewMemoryStore(entities ...*Entity) *MemoryStore {
	s := &MemoryStore{
		entities:     make(map[Ref]*Entity, len(entities)),
		participants: make(map[string]int),
	}
	for _, e := range entities {
		s.entities[e.ID] = e.Clone()
	}
	return s
}

// Put inserts or replaces an entity.
func (s *MemoryStore) Put(e *Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.ID] = e.Clone()
}

// Refs returns all entity refs in lexicographic order.
func (s *MemoryStore) Refs() []Ref {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Ref, 0, len(s.entities))
	for ref := range s.entities {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, ref Ref) (*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[ref]
	if !ok {
		return nil, fmt.Errorf("loading %q: %w", ref, ErrNotFound)
	}
	return e.Clone(), nil
}

// UpdateWounds implements Store.
func (s *MemoryStore) UpdateWounds(_ context.Context, ref Ref, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[ref]
	if !ok {
		return fmt.Errorf("updating wounds on %q: %w", ref, ErrNotFound)
	}
	e.Wounds.Value = value
	return nil
}

// ToggleEffect implements Store.
func (s *MemoryStore) ToggleEffect(_ context.Context, ref Ref, effectID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[ref]
	if !ok {
		return fmt.Errorf("toggling %q on %q: %w", effectID, ref, ErrNotFound)
	}
	e.Effects.Toggle(effectID, active)
	return nil
}

// SetParticipantBennies sets a participant's pool balance.
func (s *MemoryStore) SetParticipantBennies(id string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[id] = n
}

// Bennies returns the current balance of holder.
func (s *MemoryStore) Bennies(h Holder) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch h.Kind {
	case HolderEntity:
		if e, ok := s.entities[Ref(h.ID)]; ok {
			return e.Bennies
		}
	case HolderParticipant:
		return s.participants[h.ID]
	}
	return 0
}

// Spend removes one benny from holder's pool.
//
// Postcondition: Returns false without error when the pool is empty or unknown.
func (s *MemoryStore) Spend(_ context.Context, h Holder) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch h.Kind {
	case HolderEntity:
		e, ok := s.entities[Ref(h.ID)]
		if !ok || e.Bennies <= 0 {
			return false, nil
		}
		e.Bennies--
		return true, nil
	case HolderParticipant:
		if s.participants[h.ID] <= 0 {
			return false, nil
		}
		s.participants[h.ID]--
		return true, nil
	default:
		return false, fmt.Errorf("unknown holder kind %q", h.Kind)
	}
}
