package soak

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/targeted-damage/internal/game/dice"
	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
)

// TraitRoller performs trait rolls.
type TraitRoller interface {
	Trait(die int, wild bool, mods []dice.Modifier) (dice.TraitResult, error)
}

// DiceContester rolls the target's attribute die, plus a wild die for wild
// cards, with the dice package.
type DiceContester struct {
	store  entity.Store
	roller TraitRoller
}

// NewDiceContester creates a DiceContester.
//
// Precondition: store and roller must be non-nil.
func NewDiceContester(store entity.Store, roller TraitRoller) *DiceContester {
	return &DiceContester{store: store, roller: roller}
}

// RollContested implements Contester.
func (c *DiceContester) RollContested(ctx context.Context, target entity.Ref, attribute string, mods []dice.Modifier) (*dice.TraitResult, error) {
	e, err := c.store.Load(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("loading roller %q: %w", target, err)
	}
	res, err := c.roller.Trait(e.AttributeDie(attribute), e.Wildcard, mods)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
