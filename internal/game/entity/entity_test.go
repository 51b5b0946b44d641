package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/targeted-damage/internal/game/condition"
	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
)

func TestDefense_CharacterUsesToughness(t *testing.T) {
	e := &entity.Entity{Kind: entity.KindCharacter, Toughness: entity.Defense{Value: 6, Armor: 2}, VehicleToughness: entity.Defense{Value: 20, Armor: 6}}
	tough, armor := e.Defense()
	assert.Equal(t, 6, tough)
	assert.Equal(t, 2, armor)
}

func TestDefense_VehicleUsesVehicleToughness(t *testing.T) {
	e := &entity.Entity{Kind: entity.KindVehicle, Toughness: entity.Defense{Value: 6, Armor: 2}, VehicleToughness: entity.Defense{Value: 20, Armor: 6}}
	tough, armor := e.Defense()
	assert.Equal(t, 20, tough)
	assert.Equal(t, 6, armor)
	assert.True(t, e.IsVehicle())
}

func TestOwnership_Level(t *testing.T) {
	o := entity.Ownership{Default: entity.OwnershipLimited, Users: map[string]entity.OwnershipLevel{"alice": entity.OwnershipOwner}}
	assert.Equal(t, entity.OwnershipOwner, o.Level("alice"))
	assert.Equal(t, entity.OwnershipLimited, o.Level("bob"))
	assert.True(t, o.IsOwner("alice"))
	assert.False(t, o.IsOwner("bob"))
	assert.False(t, o.BroadlyOwned())
}

func TestOwnership_DefaultOwner(t *testing.T) {
	o := entity.Ownership{Default: entity.OwnershipOwner, Users: map[string]entity.OwnershipLevel{"carol": entity.OwnershipNone}}
	assert.True(t, o.BroadlyOwned())
	assert.True(t, o.IsOwner("anyone"))
	assert.False(t, o.IsOwner("carol"), "explicit entry overrides default")
	assert.False(t, o.ExplicitOwner("anyone"))
}

func TestOwnershipLevel_String(t *testing.T) {
	assert.Equal(t, "owner", entity.OwnershipOwner.String())
	assert.Equal(t, "level(9)", entity.OwnershipLevel(9).String())
}

func TestEntity_StatusAndTraits(t *testing.T) {
	e := &entity.Entity{Effects: condition.NewActiveSet(condition.Shaken), Traits: []string{"elan"}}
	assert.True(t, e.IsShaken())
	assert.False(t, e.IsIncapacitated())
	assert.True(t, e.HasTrait("elan"))
	assert.False(t, e.HasTrait("hardy"))
}

func TestEntity_AttributeDie_DefaultsToD4(t *testing.T) {
	e := &entity.Entity{Attributes: map[string]int{"vigor": 10}}
	assert.Equal(t, 10, e.AttributeDie("vigor"))
	assert.Equal(t, 4, e.AttributeDie("spirit"))
}

func TestEntity_Clone_Independent(t *testing.T) {
	e := &entity.Entity{
		ID:         "a",
		Effects:    condition.NewActiveSet(),
		Ownership:  entity.Ownership{Users: map[string]entity.OwnershipLevel{"alice": entity.OwnershipOwner}},
		Attributes: map[string]int{"vigor": 6},
		Traits:     []string{"elan"},
	}
	c := e.Clone()
	c.Effects.Apply(condition.Shaken)
	c.Ownership.Users["bob"] = entity.OwnershipOwner
	c.Attributes["vigor"] = 12
	c.Traits[0] = "hardy"

	assert.False(t, e.IsShaken())
	assert.NotContains(t, e.Ownership.Users, "bob")
	assert.Equal(t, 6, e.Attributes["vigor"])
	assert.Equal(t, "elan", e.Traits[0])
}

func TestPropertyOwnership_ExplicitEntryWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		def := entity.OwnershipLevel(rapid.IntRange(0, 3).Draw(t, "default"))
		lvl := entity.OwnershipLevel(rapid.IntRange(0, 3).Draw(t, "level"))
		o := entity.Ownership{Default: def, Users: map[string]entity.OwnershipLevel{"p": lvl}}
		assert.Equal(t, lvl, o.Level("p"))
		assert.Equal(t, def, o.Level("other"))
	})
}
