package routing

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
)

// Prompt is the payload that carries one target of a damage event to the
// participant who must resolve it.
type Prompt struct {
	EventID   string     `json:"eventId"`
	Target    entity.Ref `json:"target"`
	Damage    int        `json:"damage"`
	AP        int        `json:"ap"`
	Recipient string     `json:"recipient"`
}

// DamageEvent is an immutable damage roll against a set of targets.
type DamageEvent struct {
	ID      string
	Damage  int
	AP      int
	Targets []entity.Ref
}

// NewDamageEvent creates an event with a fresh id.
//
// Postcondition: ID is a new UUID and Targets is a copy of targets.
func NewDamageEvent(damage, ap int, targets ...entity.Ref) DamageEvent {
	return DamageEvent{
		ID:      uuid.NewString(),
		Damage:  damage,
		AP:      ap,
		Targets: append([]entity.Ref(nil), targets...),
	}
}

// PromptFor builds the payload for one target addressed to recipient.
func (e DamageEvent) PromptFor(target entity.Ref, recipient string) Prompt {
	return Prompt{EventID: e.ID, Target: target, Damage: e.Damage, AP: e.AP, Recipient: recipient}
}
