package soak_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/targeted-damage/internal/config"
	"github.com/cory-johannsen/targeted-damage/internal/game/condition"
	"github.com/cory-johannsen/targeted-damage/internal/game/dice"
	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/report"
	"github.com/cory-johannsen/targeted-damage/internal/game/soak"
)

// scriptedContester returns queued totals in order. A negative total means a cancelled roll.
type scriptedContester struct {
	totals []int
	err    error
	calls  [][]dice.Modifier
}

func (c *scriptedContester) RollContested(_ context.Context, _ entity.Ref, _ string, mods []dice.Modifier) (*dice.TraitResult, error) {
	c.calls = append(c.calls, mods)
	if c.err != nil {
		return nil, c.err
	}
	if len(c.totals) == 0 {
		return nil, errors.New("no rolls queued")
	}
	n := c.totals[0]
	c.totals = c.totals[1:]
	if n < 0 {
		return nil, nil
	}
	return &dice.TraitResult{Total: n, Modifiers: mods}, nil
}

type recordingPublisher struct {
	reports []report.Report
}

func (p *recordingPublisher) Publish(_ context.Context, r report.Report) error {
	p.reports = append(p.reports, r)
	return nil
}

type recordingInjuries struct {
	tables []string
}

func (r *recordingInjuries) DrawInjury(_ context.Context, _ string, _ *entity.Entity, tableID string) error {
	r.tables = append(r.tables, tableID)
	return nil
}

type recordingHooks struct {
	resolutions []soak.Resolution
}

func (h *recordingHooks) DamageResolved(_ context.Context, r soak.Resolution) {
	h.resolutions = append(h.resolutions, r)
}

// failingStore fails UpdateWounds while delegating everything else.
type failingStore struct {
	entity.Store
	err error
}

func (f *failingStore) UpdateWounds(ctx context.Context, ref entity.Ref, value int) error {
	if f.err != nil {
		return f.err
	}
	return f.Store.UpdateWounds(ctx, ref, value)
}

type fixture struct {
	store     *entity.MemoryStore
	contester *scriptedContester
	publisher *recordingPublisher
	injuries  *recordingInjuries
	hooks     *recordingHooks
	rules     *config.RulesConfig
	neg       *soak.Negotiator
}

func hero() *entity.Entity {
	return &entity.Entity{
		ID:         "valeria",
		Name:       "Valeria",
		Kind:       entity.KindCharacter,
		Wildcard:   true,
		Toughness:  entity.Defense{Value: 6, Armor: 2},
		Wounds:     entity.Wounds{Value: 0, Max: 3},
		Effects:    condition.NewActiveSet(),
		Bennies:    1,
		Attributes: map[string]int{"vigor": 8},
	}
}

func newFixture(t *testing.T, e *entity.Entity, totals ...int) *fixture {
	t.Helper()
	f := &fixture{
		store:     entity.NewMemoryStore(e),
		contester: &scriptedContester{totals: totals},
		publisher: &recordingPublisher{},
		injuries:  &recordingInjuries{},
		hooks:     &recordingHooks{},
		rules:     &config.RulesConfig{},
	}
	f.store.SetParticipantBennies("gm", 1)
	neg, err := soak.NewNegotiator(soak.Deps{
		Store:     f.store,
		Contester: f.contester,
		Pool:      f.store,
		Publisher: f.publisher,
		Rules:     soak.RulesFunc(func() config.RulesConfig { return *f.rules }),
		Injuries:  f.injuries,
		Hooks:     f.hooks,
		Logger:    zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("NewNegotiator: %v", err)
	}
	f.neg = neg
	return f
}

func (f *fixture) open(t *testing.T, dmg, ap int) *soak.Session {
	t.Helper()
	s, err := f.neg.Open(context.Background(), soak.OpenRequest{
		EventID: "evt-1", Target: "valeria", Damage: dmg, AP: ap, Handler: "gm",
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func (f *fixture) entity(t *testing.T) *entity.Entity {
	t.Helper()
	e, err := f.store.Load(context.Background(), "valeria")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return e
}
