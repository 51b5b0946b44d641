package soak

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/targeted-damage/internal/config"
	"github.com/cory-johannsen/targeted-damage/internal/game/condition"
	"github.com/cory-johannsen/targeted-damage/internal/game/damage"
	"github.com/cory-johannsen/targeted-damage/internal/game/dice"
	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/report"
)

// Outcome is the observable state of a session after an action.
type Outcome struct {
	State    State
	Prompt   Prompt
	Message  string
	Status   damage.Status
	Damage   int
	AP       int
	Wounds   int
	BestSoak int
	// Roll is the soak roll made by the action, if any.
	Roll *dice.TraitResult
	// Report is set once the session resolves with a published report.
	Report *report.Report
}

// Session is one negotiation for one target. It is owned by the process that
// opened it and is never shared.
//
// Invariant: wounds >= 0; bestSoak never decreases; at most one commit.
type Session struct {
	mu sync.Mutex

	id      uuid.UUID
	deps    Deps
	logger  *zap.Logger
	eventID string
	handler string
	target  entity.Ref
	name    string

	rolledDamage int
	rolledAP     int
	damage       int
	ap           int

	wounds        int
	bestSoak      int
	// frozenWounds is the wound count left by the best soak so far. Edits
	// after a soak reuse it, even across an edit down to no effect.
	frozenWounds  int
	status        damage.Status
	attemptedSoak bool
	prompt        Prompt
	toughness     int
	armor         int

	state  State
	closed bool
	final  *report.Report
}

// ID returns the session's unique id.
func (s *Session) ID() uuid.UUID { return s.id }

// EventID returns the damage event the session belongs to.
func (s *Session) EventID() string { return s.eventID }

// Target returns the entity under negotiation.
func (s *Session) Target() entity.Ref { return s.target }

// TargetName returns the target's display name at open time.
func (s *Session) TargetName() string { return s.name }

// Current returns the session's observable state.
func (s *Session) Current() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome(nil)
}

// Close abandons the session without mutating anything.
//
// Postcondition: Subsequent actions return ErrResolved. Returns false if the
// session was already resolved or closed.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateResolved {
		return false
	}
	s.state = StateResolved
	s.closed = true
	s.logger.Info("negotiation closed without action", zap.String("session_id", s.id.String()))
	return true
}

// Closed reports whether the session was abandoned rather than committed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Apply runs one transition.
//
// Postcondition: On error the session is unchanged except that a benny spent
// before a failed roll stays spent.
func (s *Session) Apply(ctx context.Context, a Action) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateResolved {
		return s.outcome(nil), ErrResolved
	}
	switch act := a.(type) {
	case EditParameters:
		return s.edit(ctx, act)
	case AttemptSoak:
		return s.attemptSoak(ctx, act)
	case TakeWounds:
		return s.takeWounds(ctx)
	case ApplyShaken:
		return s.applyShaken(ctx)
	case NoDamage:
		return s.noDamage(ctx)
	default:
		return s.outcome(nil), fmt.Errorf("unknown action %T", a)
	}
}

func (s *Session) outcome(roll *dice.TraitResult) Outcome {
	out := Outcome{
		State:    s.state,
		Status:   s.status,
		Damage:   s.damage,
		AP:       s.ap,
		Wounds:   s.wounds,
		BestSoak: s.bestSoak,
		Roll:     roll,
		Report:   s.final,
	}
	if s.state == StateAwaitingAction {
		out.Prompt = s.prompt
		out.Message = report.Message(s.prompt.MessageID(), s.name, s.wounds)
	}
	return out
}

// compute re-runs the resolution engine against a fresh entity snapshot.
func (s *Session) compute(e *entity.Entity, rules config.RulesConfig) {
	toughness, armor := e.Defense()
	res := damage.Compute(damage.Input{
		Damage:        s.damage,
		AP:            s.ap,
		Toughness:     toughness,
		Armor:         armor,
		WoundCap:      rules.WoundCap,
		Shaken:        e.IsShaken(),
		PriorBestSoak: s.bestSoak,
		PriorWounds:   s.frozenWounds,
	})
	s.toughness, s.armor = toughness, armor
	s.wounds = res.Wounds
	s.status = res.Status
	s.prompt = selectPrompt(res.Status, res.Wounds)
	if s.attemptedSoak && res.Status != damage.StatusNone && res.Wounds > 0 {
		s.prompt = PromptReroll
	}
}

func (s *Session) load(ctx context.Context) (*entity.Entity, error) {
	e, err := s.deps.Store.Load(ctx, s.target)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", s.target, err)
	}
	return e, nil
}

func (s *Session) edit(ctx context.Context, act EditParameters) (Outcome, error) {
	if act.Damage < 0 || act.AP < 0 {
		return s.outcome(nil), ErrInvalidParameters
	}
	e, err := s.load(ctx)
	if err != nil {
		return s.outcome(nil), err
	}
	s.damage, s.ap = act.Damage, act.AP
	s.compute(e, s.deps.Rules.Rules())
	return s.outcome(nil), nil
}

func (s *Session) holder(c Cost) (entity.Holder, bool) {
	switch c {
	case CostGMBenny:
		return entity.ParticipantHolder(s.handler), true
	case CostOwnBenny:
		return entity.EntityHolder(s.target), true
	default:
		return entity.Holder{}, false
	}
}

func (s *Session) attemptSoak(ctx context.Context, act AttemptSoak) (Outcome, error) {
	if s.wounds <= 0 {
		return s.outcome(nil), ErrNothingToSoak
	}
	e, err := s.load(ctx)
	if err != nil {
		return s.outcome(nil), err
	}
	rules := s.deps.Rules.Rules()

	if h, charged := s.holder(act.Cost); charged {
		ok, err := s.deps.Pool.Spend(ctx, h)
		switch {
		case err != nil:
			s.logger.Warn("spending benny", zap.String("holder", h.ID), zap.Error(err))
		case !ok:
			s.logger.Info("benny pool empty; soaking uncharged", zap.String("holder", h.ID))
		}
	}

	mods := []dice.Modifier{{Label: "Soak", Value: e.SoakBonus}}
	if rules.UnarmoredHero && e.Unarmored {
		mods = append(mods, dice.Modifier{Label: "Unarmored Hero", Value: UnarmoredHeroBonus})
	}
	if s.attemptedSoak && e.HasTrait(ElanTrait) {
		mods = append(mods, dice.Modifier{Label: "Elan", Value: ElanBonus})
	}

	roll, err := s.deps.Contester.RollContested(ctx, s.target, SoakAttribute, mods)
	if err != nil {
		return s.outcome(nil), fmt.Errorf("soak roll: %w", err)
	}
	if roll == nil {
		return s.outcome(nil), ErrRollCancelled
	}

	soaked := damage.SoakedWounds(roll.Total)
	if soaked > s.bestSoak {
		s.wounds += s.bestSoak
		s.bestSoak = soaked
		s.wounds -= s.bestSoak
		s.frozenWounds = max(s.wounds, 0)
	}
	s.logger.Debug("soak attempt",
		zap.String("cost", act.Cost.String()),
		zap.String("roll", roll.String()),
		zap.Int("soaked", soaked),
		zap.Int("best", s.bestSoak),
		zap.Int("wounds", s.wounds),
	)

	if s.wounds <= 0 {
		s.wounds = 0
		s.resolve(ctx, e, rules, s.newReport(report.KindSoakedAll, rules), false)
		return s.outcome(roll), nil
	}
	s.attemptedSoak = true
	s.prompt = PromptReroll
	return s.outcome(roll), nil
}

// commitWounds adds n wounds to the target's fresh total, applying
// incapacitated and clamping when the total exceeds the maximum.
func (s *Session) commitWounds(ctx context.Context, e *entity.Entity, n int) (total int, incapacitated bool, err error) {
	total = e.Wounds.Value + n
	if total > e.Wounds.Max {
		incapacitated = true
		if !e.IsIncapacitated() {
			if err := s.deps.Store.ToggleEffect(ctx, s.target, condition.Incapacitated, true); err != nil {
				return 0, false, fmt.Errorf("applying incapacitated: %w", err)
			}
		}
		total = e.Wounds.Max
	}
	if err := s.deps.Store.UpdateWounds(ctx, s.target, total); err != nil {
		return 0, false, fmt.Errorf("updating wounds: %w", err)
	}
	return total, incapacitated, nil
}

func (s *Session) applyShakenEffect(ctx context.Context, e *entity.Entity) error {
	if e.IsShaken() {
		return nil
	}
	if err := s.deps.Store.ToggleEffect(ctx, s.target, condition.Shaken, true); err != nil {
		return fmt.Errorf("applying shaken: %w", err)
	}
	return nil
}

func (s *Session) takeWounds(ctx context.Context) (Outcome, error) {
	if s.status != damage.StatusWounded {
		return s.outcome(nil), ErrActionNotAvailable
	}
	e, err := s.load(ctx)
	if err != nil {
		return s.outcome(nil), err
	}
	rules := s.deps.Rules.Rules()
	if err := s.applyShakenEffect(ctx, e); err != nil {
		return s.outcome(nil), err
	}
	total, incap, err := s.commitWounds(ctx, e, s.wounds)
	if err != nil {
		return s.outcome(nil), err
	}
	kind := report.KindShakenWithWounds
	if incap {
		kind = report.KindIncapacitated
	}
	s.resolveWithTotal(ctx, e, rules, s.newReport(kind, rules), true, total)
	return s.outcome(nil), nil
}

func (s *Session) applyShaken(ctx context.Context) (Outcome, error) {
	if s.status != damage.StatusShaken {
		return s.outcome(nil), ErrActionNotAvailable
	}
	e, err := s.load(ctx)
	if err != nil {
		return s.outcome(nil), err
	}
	rules := s.deps.Rules.Rules()
	if err := s.applyShakenEffect(ctx, e); err != nil {
		return s.outcome(nil), err
	}
	if s.wounds == 0 {
		s.resolve(ctx, e, rules, s.newReport(report.KindShaken, rules), false)
		return s.outcome(nil), nil
	}
	total, incap, err := s.commitWounds(ctx, e, s.wounds)
	if err != nil {
		return s.outcome(nil), err
	}
	kind := report.KindWoundedFromShaken
	if incap {
		kind = report.KindIncapacitated
	}
	s.resolveWithTotal(ctx, e, rules, s.newReport(kind, rules), true, total)
	return s.outcome(nil), nil
}

func (s *Session) noDamage(ctx context.Context) (Outcome, error) {
	if s.status != damage.StatusNone {
		return s.outcome(nil), ErrActionNotAvailable
	}
	e, err := s.load(ctx)
	if err != nil {
		return s.outcome(nil), err
	}
	rules := s.deps.Rules.Rules()
	s.resolve(ctx, e, rules, s.newReport(report.KindNoSignificantDamage, rules), false)
	return s.outcome(nil), nil
}

func (s *Session) newReport(kind report.Kind, rules config.RulesConfig) report.Report {
	r := report.Report{
		EventID:      s.eventID,
		Kind:         kind,
		Target:       s.target,
		TargetName:   s.name,
		Wounds:       s.wounds,
		Damage:       s.damage,
		AP:           s.ap,
		RolledDamage: s.rolledDamage,
		RolledAP:     s.rolledAP,
	}
	return report.New(r.WithDefense(s.toughness, s.armor, rules.HideDefenseValues))
}

func (s *Session) resolve(ctx context.Context, e *entity.Entity, rules config.RulesConfig, r report.Report, tookWounds bool) {
	s.resolveWithTotal(ctx, e, rules, r, tookWounds, e.Wounds.Value)
}

// resolveWithTotal marks the session resolved, then runs the fire-and-forget
// tail: gritty injury draw, report publication, hooks.
func (s *Session) resolveWithTotal(ctx context.Context, e *entity.Entity, rules config.RulesConfig, r report.Report, tookWounds bool, total int) {
	s.state = StateResolved
	s.prompt = PromptNone
	s.final = &r

	if tookWounds && rules.GrittyDamage && s.deps.Injuries != nil {
		if err := s.deps.Injuries.DrawInjury(ctx, s.eventID, e, rules.InjuryTable); err != nil {
			s.logger.Warn("drawing injury", zap.Error(err))
		}
	}
	if err := s.deps.Publisher.Publish(ctx, r); err != nil {
		s.logger.Warn("publishing report", zap.Error(err))
	}
	if s.deps.Hooks != nil {
		s.deps.Hooks.DamageResolved(ctx, Resolution{
			EventID:     s.eventID,
			Target:      s.target,
			TargetName:  s.name,
			Kind:        r.Kind,
			Status:      s.status,
			Wounds:      s.wounds,
			WoundsTotal: total,
		})
	}
	s.logger.Info("negotiation resolved",
		zap.String("session_id", s.id.String()),
		zap.String("kind", string(r.Kind)),
		zap.Int("wounds", s.wounds),
		zap.Int("wounds_total", total),
	)
}
