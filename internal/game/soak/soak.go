// Package soak implements the interactive negotiation that turns a computed
// hit into a committed wound/status mutation, including soak rolls, benny
// spends, and rerolls.
package soak

import (
	"context"
	"errors"
	"fmt"

	"github.com/cory-johannsen/targeted-damage/internal/config"
	"github.com/cory-johannsen/targeted-damage/internal/game/damage"
	"github.com/cory-johannsen/targeted-damage/internal/game/dice"
	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
	"github.com/cory-johannsen/targeted-damage/internal/game/report"
)

var (
	// ErrResolved is returned for any action on a session that has committed or been closed.
	ErrResolved = errors.New("negotiation already resolved")
	// ErrRollCancelled is returned when the contested roll produced no result.
	ErrRollCancelled = errors.New("soak roll cancelled")
	// ErrTargetNotFound is returned by Open when the target does not resolve.
	ErrTargetNotFound = errors.New("target not found")
	// ErrMissingConfig is returned when a required collaborator or setting is absent.
	ErrMissingConfig = errors.New("missing required configuration")
	// ErrActionNotAvailable is returned for a terminal action that does not match the current status.
	ErrActionNotAvailable = errors.New("action not available for current status")
	// ErrNothingToSoak is returned for a soak attempt when no wounds are outstanding.
	ErrNothingToSoak = errors.New("no wounds to soak")
	// ErrInvalidParameters is returned for negative damage or AP.
	ErrInvalidParameters = errors.New("damage and ap must be non-negative")
)

// SoakAttribute is the attribute rolled to soak wounds.
const SoakAttribute = "vigor"

// Modifier values applied to soak rolls.
const (
	UnarmoredHeroBonus = 2
	ElanBonus          = 2
	// ElanTrait is the trait flag that grants ElanBonus on rerolls.
	ElanTrait = "elan"
)

// State is the negotiation's lifecycle position.
type State int

const (
	StateAwaitingAction State = iota
	StateResolved
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateAwaitingAction:
		return "awaiting_action"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Prompt is the message shown to the handling participant while awaiting action.
type Prompt int

const (
	PromptNone Prompt = iota
	PromptShaken
	PromptWoundedFromShaken
	PromptWounds
	PromptUnharmed
	PromptReroll
)

// MessageID returns the report catalog id for p.
func (p Prompt) MessageID() string {
	switch p {
	case PromptShaken:
		return report.MsgPromptShaken
	case PromptWoundedFromShaken:
		return report.MsgPromptWoundedFromShaken
	case PromptWounds:
		return report.MsgPromptWounds
	case PromptUnharmed:
		return report.MsgPromptUnharmed
	case PromptReroll:
		return report.MsgPromptReroll
	default:
		return ""
	}
}

// selectPrompt maps a verdict to the prompt shown for it.
func selectPrompt(status damage.Status, wounds int) Prompt {
	switch status {
	case damage.StatusShaken:
		if wounds > 0 {
			return PromptWoundedFromShaken
		}
		return PromptShaken
	case damage.StatusWounded:
		return PromptWounds
	default:
		return PromptUnharmed
	}
}

// Cost selects which pool a soak attempt is charged to.
type Cost int

const (
	// CostFree charges nothing.
	CostFree Cost = iota
	// CostGMBenny charges the handling participant's pool, the authority's shared pool when the authority handles.
	CostGMBenny
	// CostOwnBenny charges the target entity's own pool.
	CostOwnBenny
)

// String returns the cost name.
func (c Cost) String() string {
	switch c {
	case CostFree:
		return "free"
	case CostGMBenny:
		return "gm"
	case CostOwnBenny:
		return "own"
	default:
		return fmt.Sprintf("cost(%d)", int(c))
	}
}

// ParseCost parses "free", "gm" or "own".
func ParseCost(s string) (Cost, error) {
	switch s {
	case "free":
		return CostFree, nil
	case "gm":
		return CostGMBenny, nil
	case "own":
		return CostOwnBenny, nil
	default:
		return 0, fmt.Errorf("unknown soak cost %q", s)
	}
}

// Action is an input to Session.Apply.
type Action interface {
	actionName() string
}

// EditParameters replaces the damage and AP and recomputes the verdict.
type EditParameters struct {
	Damage int
	AP     int
}

// AttemptSoak charges Cost and rolls to soak the outstanding wounds.
type AttemptSoak struct {
	Cost Cost
}

// TakeWounds commits a wounded verdict.
type TakeWounds struct{}

// ApplyShaken commits a shaken verdict.
type ApplyShaken struct{}

// NoDamage commits a verdict of no effect.
type NoDamage struct{}

func (EditParameters) actionName() string { return "edit_parameters" }
func (AttemptSoak) actionName() string    { return "attempt_soak" }
func (TakeWounds) actionName() string     { return "take_wounds" }
func (ApplyShaken) actionName() string    { return "apply_shaken" }
func (NoDamage) actionName() string       { return "no_damage" }

// Contester rolls an attribute for an entity with ordered modifiers.
// A nil result with a nil error means the roll was cancelled.
type Contester interface {
	RollContested(ctx context.Context, target entity.Ref, attribute string, mods []dice.Modifier) (*dice.TraitResult, error)
}

// ResourcePool spends one benny from a holder's pool.
// A false result means the pool was empty.
type ResourcePool interface {
	Spend(ctx context.Context, holder entity.Holder) (bool, error)
}

// InjuryDrawer draws a gritty damage injury for a target.
type InjuryDrawer interface {
	DrawInjury(ctx context.Context, eventID string, target *entity.Entity, tableID string) error
}

// Resolution summarises a committed negotiation for hooks.
type Resolution struct {
	EventID     string
	Target      entity.Ref
	TargetName  string
	Kind        report.Kind
	Status      damage.Status
	Wounds      int
	WoundsTotal int
}

// Hooks observes committed negotiations.
type Hooks interface {
	DamageResolved(ctx context.Context, r Resolution)
}

// RuleSource supplies the current rule flags. It is consulted on every
// computation.
type RuleSource interface {
	Rules() config.RulesConfig
}

// RulesFunc adapts a function to RuleSource.
type RulesFunc func() config.RulesConfig

// Rules implements RuleSource.
func (f RulesFunc) Rules() config.RulesConfig { return f() }
