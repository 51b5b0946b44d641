// Package condition defines the status effects a damage resolution can place
// on an entity and the per-entity set of active effects.
package condition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Well-known condition ids applied by damage resolution.
const (
	Shaken        = "shaken"
	Incapacitated = "incapacitated"
)

// ConditionDef is the static definition of a status effect, loaded from YAML.
type ConditionDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
}

// Registry holds all known ConditionDefs keyed by ID.
type Registry struct {
	defs map[string]*ConditionDef
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*ConditionDef)}
}

// DefaultRegistry returns a Registry holding the built-in shaken and
// incapacitated definitions.
//
// Postcondition: Get(Shaken) and Get(Incapacitated) both succeed.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(&ConditionDef{ID: Shaken, Name: "Shaken", Description: "Rattled and unable to act freely until recovered.", Icon: "shaken.svg"})
	reg.Register(&ConditionDef{ID: Incapacitated, Name: "Incapacitated", Description: "Out of the fight.", Icon: "incapacitated.svg"})
	return reg
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *ConditionDef) {
	r.defs[def.ID] = def
}

// Get returns the ConditionDef for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*ConditionDef, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// Name returns the display name for id, falling back to the id itself.
func (r *Registry) Name(id string) string {
	if d, ok := r.defs[id]; ok && d.Name != "" {
		return d.Name
	}
	return id
}

// All returns a snapshot slice of all registered ConditionDefs ordered by ID.
func (r *Registry) All() []*ConditionDef {
	out := make([]*ConditionDef, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as a ConditionDef,
// and returns a Registry seeded with the built-in definitions. A file may
// override a built-in by reusing its id.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to parse.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading condition dir %q: %w", dir, err)
	}
	reg := DefaultRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def ConditionDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if def.ID == "" {
			return nil, fmt.Errorf("parsing %q: id must not be empty", path)
		}
		reg.Register(&def)
	}
	return reg, nil
}
