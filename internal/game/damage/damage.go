// Package damage converts a damage roll against a target's defenses into a
// wound count and a status verdict.
package damage

import "fmt"

// WoundCapLimit is the most wounds a single hit may inflict under the wound cap rule.
const WoundCapLimit = 4

// RaiseSize is the number of points of excess that buy one wound, and the
// number of soak roll points that cancel one.
const RaiseSize = 4

// Status is the effect a hit applies to its target.
type Status int

const (
	// StatusNone means the hit did not meet the target's toughness.
	StatusNone Status = iota
	// StatusShaken means the hit met toughness without a raise.
	StatusShaken
	// StatusWounded means the hit exceeded toughness by at least one raise.
	StatusWounded
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusShaken:
		return "shaken"
	case StatusWounded:
		return "wounded"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Input is everything Compute needs for one evaluation.
type Input struct {
	Damage    int
	AP        int
	Toughness int
	Armor     int
	WoundCap  bool
	// Shaken is true when the target already carries the shaken effect.
	Shaken bool
	// PriorBestSoak is the best wounds-soaked result so far in the negotiation.
	// When positive, PriorWounds is kept instead of recomputing from excess.
	PriorBestSoak int
	PriorWounds   int
}

// Result is the outcome of Compute.
type Result struct {
	Wounds             int
	Status             Status
	ArmorAbsorbed      int
	EffectiveToughness int
	Excess             int
}

// Compute evaluates a hit.
//
// Postcondition: Wounds >= 0. Status is StatusNone iff Excess < 0, in which case Wounds == 0.
// A shaken verdict against an already shaken target with no wounds forces Wounds to 1.
func Compute(in Input) Result {
	absorbed := min(in.AP, in.Armor)
	effective := in.Toughness - absorbed
	excess := in.Damage - effective

	wounds := FloorDiv(excess, RaiseSize)
	if in.PriorBestSoak > 0 {
		wounds = in.PriorWounds
	}
	if in.WoundCap && wounds > WoundCapLimit {
		wounds = WoundCapLimit
	}

	res := Result{
		ArmorAbsorbed:      absorbed,
		EffectiveToughness: effective,
		Excess:             excess,
	}
	switch {
	case excess < 0:
		res.Status = StatusNone
		res.Wounds = 0
	case excess < RaiseSize:
		res.Status = StatusShaken
		if in.Shaken && wounds == 0 {
			wounds = 1
		}
		res.Wounds = max(wounds, 0)
	default:
		res.Status = StatusWounded
		res.Wounds = max(wounds, 0)
	}
	return res
}

// FloorDiv divides a by b rounding toward negative infinity.
//
// Precondition: b > 0.
func FloorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

// SoakedWounds returns how many wounds a soak roll total cancels.
//
// Postcondition: Returns 0 for totals below RaiseSize.
func SoakedWounds(rollTotal int) int {
	if rollTotal <= 0 {
		return 0
	}
	return rollTotal / RaiseSize
}
