package entity

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/targeted-damage/internal/game/condition"
)

// record is the YAML shape of a seed entity.
type record struct {
	ID               string         `yaml:"id"`
	Name             string         `yaml:"name"`
	Kind             Kind           `yaml:"kind"`
	Wildcard         bool           `yaml:"wildcard"`
	Toughness        Defense        `yaml:"toughness"`
	VehicleToughness Defense        `yaml:"vehicle_toughness"`
	Wounds           Wounds         `yaml:"wounds"`
	Effects          []string       `yaml:"effects"`
	Ownership        Ownership      `yaml:"ownership"`
	Bennies          int            `yaml:"bennies"`
	Attributes       map[string]int `yaml:"attributes"`
	SoakBonus        int            `yaml:"soak_bonus"`
	Unarmored        bool           `yaml:"unarmored"`
	Traits           []string       `yaml:"traits"`
}

func (r record) validate() error {
	var errs []string
	if r.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	switch r.Kind {
	case KindCharacter, KindNPC, KindVehicle:
	default:
		errs = append(errs, fmt.Sprintf("kind %q must be one of character, npc, vehicle", r.Kind))
	}
	if r.Wounds.Max < 0 || r.Wounds.Value < 0 || r.Wounds.Value > r.Wounds.Max {
		errs = append(errs, fmt.Sprintf("wounds %d/%d out of range", r.Wounds.Value, r.Wounds.Max))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func (r record) entity() *Entity {
	return &Entity{
		ID:               Ref(r.ID),
		Name:             r.Name,
		Kind:             r.Kind,
		Wildcard:         r.Wildcard,
		Toughness:        r.Toughness,
		VehicleToughness: r.VehicleToughness,
		Wounds:           r.Wounds,
		Effects:          condition.NewActiveSet(r.Effects...),
		Ownership:        r.Ownership,
		Bennies:          r.Bennies,
		Attributes:       r.Attributes,
		SoakBonus:        r.SoakBonus,
		Unarmored:        r.Unarmored,
		Traits:           r.Traits,
	}
}

// LoadSeedDirectory parses every *.yaml file in dir as one entity.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns the entities in file-name order, or the first parse or validation error.
func LoadSeedDirectory(dir string) ([]*Entity, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading entity dir %q: %w", dir, err)
	}
	var out []*Entity
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var r record
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&r); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		out = append(out, r.entity())
	}
	return out, nil
}
