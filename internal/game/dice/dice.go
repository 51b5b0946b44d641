// Package dice provides the randomness abstraction, dice expressions and the
// trait rolls used to soak damage.
package dice

import "fmt"

// RollResult is the audit trail of one evaluated expression. An exploding die
// appears once in Dice carrying the sum of its aces.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string
	Dice       []int
	Modifier   int
}

// Total sums the kept dice and the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String renders the roll for logs and reports, e.g. "d8!+1 → [11] +1 = 12".
//
// Precondition: Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}
