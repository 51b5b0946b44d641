// Package report renders the human-readable outcome of a damage resolution
// and fans it out to the session's transcript sinks.
package report

import (
	"github.com/google/uuid"

	"github.com/cory-johannsen/targeted-damage/internal/game/entity"
)

// Kind is the outcome variant a report describes.
type Kind string

const (
	KindNoSignificantDamage Kind = "no_significant_damage"
	KindSoakedAll           Kind = "soaked_all"
	KindShakenWithWounds    Kind = "shaken_with_wounds"
	KindIncapacitated       Kind = "incapacitated"
	KindShaken              Kind = "shaken"
	KindWoundedFromShaken   Kind = "wounded_from_shaken"
	// KindInjury is the extra line drawn from an injury table under gritty damage.
	KindInjury Kind = "injury"
)

// Report is one published result line with the numbers behind it.
type Report struct {
	ID           uuid.UUID  `json:"id"`
	EventID      string     `json:"event_id"`
	Kind         Kind       `json:"kind"`
	Target       entity.Ref `json:"target"`
	TargetName   string     `json:"target_name"`
	Wounds       int        `json:"wounds"`
	Damage       int        `json:"damage"`
	AP           int        `json:"ap"`
	RolledDamage int        `json:"rolled_damage"`
	RolledAP     int        `json:"rolled_ap"`
	// Toughness and Armor are nil when defense values are hidden.
	Toughness *int   `json:"toughness,omitempty"`
	Armor     *int   `json:"armor,omitempty"`
	Injury    string `json:"injury,omitempty"`
	Text      string `json:"text"`
}

// Adjusted reports whether the handling participant edited the rolled numbers.
func (r Report) Adjusted() bool {
	return r.Damage != r.RolledDamage || r.AP != r.RolledAP
}

// New creates a report with a fresh id and rendered text.
//
// Postcondition: ID is non-zero and Text is populated.
func New(r Report) Report {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.Text = Render(r)
	return r
}

// WithDefense attaches the target's toughness and armor unless hidden.
func (r Report) WithDefense(toughness, armor int, hidden bool) Report {
	if hidden {
		r.Toughness, r.Armor = nil, nil
		return r
	}
	r.Toughness, r.Armor = &toughness, &armor
	return r
}
