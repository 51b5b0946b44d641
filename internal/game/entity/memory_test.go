package entity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/targeted-damage/internal/game/condition"
	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
)

func newStore() *entity.MemoryStore {
	return entity.NewMemoryStore(&entity.Entity{
		ID:      "valeria",
		Name:    "Valeria",
		Kind:    entity.KindCharacter,
		Wounds:  entity.Wounds{Value: 0, Max: 3},
		Effects: condition.NewActiveSet(),
		Bennies: 1,
	})
}

func TestMemoryStore_Load_NotFound(t *testing.T) {
	_, err := newStore().Load(context.Background(), "nobody")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestMemoryStore_Load_ReturnsCopy(t *testing.T) {
	s := newStore()
	e, err := s.Load(context.Background(), "valeria")
	require.NoError(t, err)
	e.Wounds.Value = 3
	e.Effects.Apply(condition.Shaken)

	again, err := s.Load(context.Background(), "valeria")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Wounds.Value)
	assert.False(t, again.IsShaken())
}

func TestMemoryStore_UpdateWounds(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	require.NoError(t, s.UpdateWounds(ctx, "valeria", 2))
	e, err := s.Load(ctx, "valeria")
	require.NoError(t, err)
	assert.Equal(t, 2, e.Wounds.Value)
	assert.ErrorIs(t, s.UpdateWounds(ctx, "nobody", 1), entity.ErrNotFound)
}

func TestMemoryStore_ToggleEffect(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	require.NoError(t, s.ToggleEffect(ctx, "valeria", condition.Shaken, true))
	e, _ := s.Load(ctx, "valeria")
	assert.True(t, e.IsShaken())

	require.NoError(t, s.ToggleEffect(ctx, "valeria", condition.Shaken, false))
	e, _ = s.Load(ctx, "valeria")
	assert.False(t, e.IsShaken())
}

func TestMemoryStore_Spend_Entity(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	h := entity.EntityHolder("valeria")

	ok, err := s.Spend(ctx, h)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, s.Bennies(h))

	ok, err = s.Spend(ctx, h)
	require.NoError(t, err)
	assert.False(t, ok, "empty pool reports false without error")
}

func TestMemoryStore_Spend_Participant(t *testing.T) {
	s := newStore()
	ctx := context.Background()
	s.SetParticipantBennies("gm", 2)
	h := entity.ParticipantHolder("gm")

	for i := 0; i < 2; i++ {
		ok, err := s.Spend(ctx, h)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := s.Spend(ctx, h)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Spend(ctx, entity.ParticipantHolder("stranger"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Spend_UnknownKind(t *testing.T) {
	_, err := newStore().Spend(context.Background(), entity.Holder{Kind: "guild", ID: "x"})
	assert.Error(t, err)
}

func TestMemoryStore_Refs_Sorted(t *testing.T) {
	s := newStore()
	s.Put(&entity.Entity{ID: "alpha", Effects: condition.NewActiveSet()})
	assert.Equal(t, []entity.Ref{"alpha", "valeria"}, s.Refs())
}

// TestPropertyToggleEffect_Idempotent verifies toggling an effect on twice
// leaves the same effect set as toggling it on once.
func TestPropertyToggleEffect_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		effect := rapid.SampledFrom([]string{condition.Shaken, condition.Incapacitated}).Draw(t, "effect")
		ctx := context.Background()

		once := newStore()
		twice := newStore()
		_ = once.ToggleEffect(ctx, "valeria", effect, true)
		_ = twice.ToggleEffect(ctx, "valeria", effect, true)
		_ = twice.ToggleEffect(ctx, "valeria", effect, true)

		a, _ := once.Load(ctx, "valeria")
		b, _ := twice.Load(ctx, "valeria")
		assert.Equal(t, a.Effects.IDs(), b.Effects.IDs())
	})
}

func TestPropertySpend_NeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.IntRange(0, 5).Draw(t, "start")
		spends := rapid.IntRange(0, 10).Draw(t, "spends")
		s := newStore()
		s.SetParticipantBennies("gm", start)
		granted := 0
		for i := 0; i < spends; i++ {
			ok, _ := s.Spend(context.Background(), entity.ParticipantHolder("gm"))
			if ok {
				granted++
			}
		}
		assert.GreaterOrEqual(t, s.Bennies(entity.ParticipantHolder("gm")), 0)
		assert.LessOrEqual(t, granted, start)
	})
}
