package soak_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/targeted-damage/internal/game/dice"
	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/soak"
)

// constSource always rolls the given face.
type constSource struct{ face int }

func (c constSource) Intn(n int) int {
	if c.face > n {
		return n - 1
	}
	return c.face - 1
}

func TestDiceContester_RollsAttributeDie(t *testing.T) {
	store := entity.NewMemoryStore(hero())
	c := soak.NewDiceContester(store, dice.NewLoggedRoller(constSource{face: 3}, zap.NewNop()))

	res, err := c.RollContested(ctx, "valeria", soak.SoakAttribute, []dice.Modifier{{Label: "Soak", Value: 2}})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "d8!", res.Trait.Expression)
	assert.NotNil(t, res.Wild, "wild cards roll a wild die")
	assert.Equal(t, 5, res.Total)
}

func TestDiceContester_UnknownTarget(t *testing.T) {
	c := soak.NewDiceContester(entity.NewMemoryStore(), dice.NewLoggedRoller(constSource{face: 1}, zap.NewNop()))
	_, err := c.RollContested(ctx, "ghost", soak.SoakAttribute, nil)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
