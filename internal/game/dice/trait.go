package dice

import "fmt"

// WildDieSides is the size of the wild die rolled alongside a wild card's trait die.
const WildDieSides = 6

// Modifier is one labelled adjustment applied to a trait roll.
type Modifier struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// ModifierSum returns the sum of all modifier values.
func ModifierSum(mods []Modifier) int {
	sum := 0
	for _, m := range mods {
		sum += m.Value
	}
	return sum
}

// TraitResult is the outcome of a trait roll.
//
// Invariant: Total == max(Trait.Total(), Wild.Total()) + ModifierSum(Modifiers).
type TraitResult struct {
	Trait     RollResult
	Wild      *RollResult // nil for extras
	Modifiers []Modifier
	Total     int
}

// String returns a one-line audit string such as "d8! [9] | d6! [3] +2 = 11".
func (t TraitResult) String() string {
	s := fmt.Sprintf("%s %v", t.Trait.Expression, t.Trait.Dice)
	if t.Wild != nil {
		s += fmt.Sprintf(" | %s %v", t.Wild.Expression, t.Wild.Dice)
	}
	return fmt.Sprintf("%s %+d = %d", s, ModifierSum(t.Modifiers), t.Total)
}

// TraitRoll rolls an exploding trait die of the given size and, for wild cards,
// an exploding wild die; the higher of the two is kept and the modifiers are
// added in order.
//
// Precondition: die >= 2; src must be non-nil.
// Postcondition: Total satisfies the TraitResult invariant.
func TraitRoll(die int, wild bool, mods []Modifier, src Source) (TraitResult, error) {
	if die < 2 {
		return TraitResult{}, fmt.Errorf("dice: invalid trait die d%d: must be >= 2", die)
	}
	trait, err := Roll(Expression{Raw: fmt.Sprintf("d%d!", die), Count: 1, Sides: die, Exploding: true}, src)
	if err != nil {
		return TraitResult{}, err
	}
	best := trait.Total()

	var wildResult *RollResult
	if wild {
		w, err := Roll(Expression{Raw: fmt.Sprintf("d%d!", WildDieSides), Count: 1, Sides: WildDieSides, Exploding: true}, src)
		if err != nil {
			return TraitResult{}, err
		}
		wildResult = &w
		if w.Total() > best {
			best = w.Total()
		}
	}

	kept := make([]Modifier, len(mods))
	copy(kept, mods)
	return TraitResult{
		Trait:     trait,
		Wild:      wildResult,
		Modifiers: kept,
		Total:     best + ModifierSum(kept),
	}, nil
}
