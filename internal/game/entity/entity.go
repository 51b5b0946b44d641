// Package entity models the targetable tokens damage is resolved against and
// the store boundary through which their wounds and status effects are read
// and written.
package entity

import (
	"fmt"

	"github.com/cory-johannsen/targeted-damage/internal/game/condition"
)

// Ref identifies an entity in the store.
type Ref string

// Kind distinguishes entity types whose defenses come from different sources.
type Kind string

const (
	KindCharacter Kind = "character"
	KindNPC       Kind = "npc"
	KindVehicle   Kind = "vehicle"
)

// OwnershipLevel is a participant's permission level over an entity.
type OwnershipLevel int

const (
	OwnershipNone OwnershipLevel = iota
	OwnershipLimited
	OwnershipObserver
	OwnershipOwner
)

// String returns the lowercase name of the level.
func (l OwnershipLevel) String() string {
	switch l {
	case OwnershipNone:
		return "none"
	case OwnershipLimited:
		return "limited"
	case OwnershipObserver:
		return "observer"
	case OwnershipOwner:
		return "owner"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Ownership maps participant ids to their level over an entity. Default applies
// to every participant without an explicit entry.
type Ownership struct {
	Default OwnershipLevel            `yaml:"default" json:"default"`
	Users   map[string]OwnershipLevel `yaml:"users" json:"users,omitempty"`
}

// Level returns the effective level for participantID.
func (o Ownership) Level(participantID string) OwnershipLevel {
	if l, ok := o.Users[participantID]; ok {
		return l
	}
	return o.Default
}

// IsOwner reports whether participantID has owner level, explicitly or by default.
func (o Ownership) IsOwner(participantID string) bool {
	return o.Level(participantID) >= OwnershipOwner
}

// ExplicitOwner reports whether participantID has an explicit owner entry,
// ignoring the default level.
func (o Ownership) ExplicitOwner(participantID string) bool {
	return o.Users[participantID] >= OwnershipOwner
}

// BroadlyOwned reports whether every participant owns the entity by default.
func (o Ownership) BroadlyOwned() bool {
	return o.Default >= OwnershipOwner
}

// Defense is a toughness rating and the armor portion included in it.
type Defense struct {
	Value int `yaml:"value" json:"value"`
	Armor int `yaml:"armor" json:"armor"`
}

// Wounds is the entity's accumulated wound count and its limit.
type Wounds struct {
	Value int `yaml:"value" json:"value"`
	Max   int `yaml:"max" json:"max"`
}

// Entity is a snapshot of one targetable token as loaded from a Store.
// Mutations go through the Store; changing a loaded Entity has no effect on
// persisted state.
type Entity struct {
	ID               Ref
	Name             string
	Kind             Kind
	Wildcard         bool
	Toughness        Defense
	VehicleToughness Defense
	Wounds           Wounds
	Effects          *condition.ActiveSet
	Ownership        Ownership
	Bennies          int
	// Attributes maps an attribute id (e.g. "vigor") to its die size.
	Attributes map[string]int
	SoakBonus  int
	Unarmored  bool
	Traits     []string
}

// Defense returns the toughness and armor damage is compared against.
// Vehicles use their vehicle toughness block.
func (e *Entity) Defense() (toughness, armor int) {
	if e.Kind == KindVehicle {
		return e.VehicleToughness.Value, e.VehicleToughness.Armor
	}
	return e.Toughness.Value, e.Toughness.Armor
}

// IsVehicle reports whether the entity is a vehicle.
func (e *Entity) IsVehicle() bool { return e.Kind == KindVehicle }

// IsShaken reports whether the shaken effect is active.
func (e *Entity) IsShaken() bool {
	return e.Effects != nil && e.Effects.Has(condition.Shaken)
}

// IsIncapacitated reports whether the incapacitated effect is active.
func (e *Entity) IsIncapacitated() bool {
	return e.Effects != nil && e.Effects.Has(condition.Incapacitated)
}

// HasTrait reports whether the entity carries the named trait flag.
func (e *Entity) HasTrait(name string) bool {
	for _, t := range e.Traits {
		if t == name {
			return true
		}
	}
	return false
}

// AttributeDie returns the die size for attribute, defaulting to d4.
func (e *Entity) AttributeDie(attribute string) int {
	if sides, ok := e.Attributes[attribute]; ok && sides >= 4 {
		return sides
	}
	return 4
}

// Clone returns a deep copy of e.
func (e *Entity) Clone() *Entity {
	c := *e
	if e.Effects != nil {
		c.Effects = e.Effects.Clone()
	} else {
		c.Effects = condition.NewActiveSet()
	}
	if e.Ownership.Users != nil {
		c.Ownership.Users = make(map[string]OwnershipLevel, len(e.Ownership.Users))
		for k, v := range e.Ownership.Users {
			c.Ownership.Users[k] = v
		}
	}
	if e.Attributes != nil {
		c.Attributes = make(map[string]int, len(e.Attributes))
		for k, v := range e.Attributes {
			c.Attributes[k] = v
		}
	}
	c.Traits = append([]string(nil), e.Traits...)
	return &c
}
