package condition

import "sort"

// ActiveSet tracks the status effects currently applied to one entity.
// Effects do not stack: applying an effect that is already present is a no-op.
// It is not safe for concurrent use; the caller must serialise access.
type ActiveSet struct {
	ids map[string]struct{}
}

// NewActiveSet creates a set holding the given effect ids.
func NewActiveSet(ids ...string) *ActiveSet {
	s := &ActiveSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Apply adds the effect id.
//
// Postcondition: Has(id) is true. Returns true iff the set changed.
func (s *ActiveSet) Apply(id string) bool {
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Remove deletes the effect id. Removing an absent id is a no-op.
//
// Postcondition: Has(id) is false. Returns true iff the set changed.
func (s *ActiveSet) Remove(id string) bool {
	if _, ok := s.ids[id]; !ok {
		return false
	}
	delete(s.ids, id)
	return true
}

// Toggle applies or removes id according to active.
// Returns true iff the set changed.
func (s *ActiveSet) Toggle(id string, active bool) bool {
	if active {
		return s.Apply(id)
	}
	return s.Remove(id)
}

// Has reports whether the effect id is currently active.
func (s *ActiveSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of active effects.
func (s *ActiveSet) Len() int {
	return len(s.ids)
}

// IDs returns the active effect ids in lexicographic order.
//
// Postcondition: The returned slice is a new allocation.
func (s *ActiveSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the set.
func (s *ActiveSet) Clone() *ActiveSet {
	return NewActiveSet(s.IDs()...)
}
