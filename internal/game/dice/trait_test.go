package dice_test

import (
	"testing"

	"github.com/cory-johannsen/targeted-damage/internal/game/dice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"
)

func TestParse_Forms(t *testing.T) {
	tests := []struct {
		expr      string
		count     int
		sides     int
		mod       int
		kh        int
		exploding bool
	}{
		{"d8", 1, 8, 0, 0, false},
		{"2d6+3", 2, 6, 3, 0, false},
		{"4d8-2", 4, 8, -2, 0, false},
		{"4d6kh3", 4, 6, 0, 3, false},
		{"4d6kh3+1", 4, 6, 1, 3, false},
		{"d8!", 1, 8, 0, 0, true},
		{"1d6!+2", 1, 6, 2, 0, true},
	}
	for _, tc := range tests {
		e, err := dice.Parse(tc.expr)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.count, e.Count, tc.expr)
		assert.Equal(t, tc.sides, e.Sides, tc.expr)
		assert.Equal(t, tc.mod, e.Modifier, tc.expr)
		assert.Equal(t, tc.kh, e.KeepHighest, tc.expr)
		assert.Equal(t, tc.exploding, e.Exploding, tc.expr)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, expr := range []string{"", "8", "0d6", "d1", "dx", "2d6+x", "2d6kh2", "d!"} {
		_, err := dice.Parse(expr)
		assert.Error(t, err, "expression %q must be rejected", expr)
	}
}

func TestRoll_ExplodingAddsAces(t *testing.T) {
	src := dice.NewFixedSource(6, 6, 2)
	r, err := dice.Roll(dice.MustParse("d6!"), src)
	require.NoError(t, err)
	assert.Equal(t, []int{14}, r.Dice)
	assert.Equal(t, 14, r.Total())
}

func TestRoll_ExplosionsAreBounded(t *testing.T) {
	src := dice.NewFixedSource(4)
	r, err := dice.Roll(dice.MustParse("d4!"), src)
	require.NoError(t, err)
	assert.Equal(t, 4*(dice.MaxExplosions+1), r.Total())
}

func TestTraitRoll_KeepsHigherOfTraitAndWild(t *testing.T) {
	// trait d8 rolls 3, wild d6 rolls 5
	src := dice.NewFixedSource(3, 5)
	res, err := dice.TraitRoll(8, true, []dice.Modifier{{Label: "Soak", Value: 2}}, src)
	require.NoError(t, err)
	require.NotNil(t, res.Wild)
	assert.Equal(t, 7, res.Total)
	assert.Equal(t, "d8! [3] | d6! [5] +2 = 7", res.String())
}

func TestTraitRoll_ExtraHasNoWildDie(t *testing.T) {
	src := dice.NewFixedSource(3, 5)
	res, err := dice.TraitRoll(8, false, nil, src)
	require.NoError(t, err)
	assert.Nil(t, res.Wild)
	assert.Equal(t, 3, res.Total)
}

func TestTraitRoll_InvalidDie(t *testing.T) {
	_, err := dice.TraitRoll(1, true, nil, dice.NewFixedSource(1))
	assert.Error(t, err)
}

func TestTraitRoll_ModifiersPreserveOrder(t *testing.T) {
	mods := []dice.Modifier{{Label: "Soak", Value: 1}, {Label: "Unarmored Hero", Value: 2}, {Label: "Elan", Value: 2}}
	res, err := dice.TraitRoll(6, false, mods, dice.NewFixedSource(1))
	require.NoError(t, err)
	assert.Equal(t, mods, res.Modifiers)
	assert.Equal(t, 6, res.Total)
}

func TestLoggedRoller_Trait(t *testing.T) {
	r := dice.NewLoggedRoller(dice.NewFixedSource(2, 4), zaptest.NewLogger(t))
	res, err := r.Trait(6, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
}

// TestTraitRoll_Property_TotalInvariant verifies Total == best die + modifiers.
func TestTraitRoll_Property_TotalInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		die := rapid.SampledFrom([]int{4, 6, 8, 10, 12}).Draw(rt, "die")
		wild := rapid.Bool().Draw(rt, "wild")
		mod := rapid.IntRange(-4, 4).Draw(rt, "mod")
		res, err := dice.TraitRoll(die, wild, []dice.Modifier{{Label: "m", Value: mod}}, dice.NewCryptoSource())
		require.NoError(rt, err)
		best := res.Trait.Total()
		if res.Wild != nil && res.Wild.Total() > best {
			best = res.Wild.Total()
		}
		assert.Equal(rt, best+mod, res.Total)
		assert.GreaterOrEqual(rt, best, 1)
	})
}
