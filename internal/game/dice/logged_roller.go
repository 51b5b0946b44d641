package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged dice rolling.
// All rolls are logged at debug level with expression, dice values, modifier, and total.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the randomness source backing the roller.
func (r *Roller) Source() Source {
	return r.src
}

// Roll evaluates expr and logs the result at debug level.
//
// Precondition: expr must come from Parse.
// Postcondition: result logged; returns RollResult or error.
func (r *Roller) Roll(expr Expression) (RollResult, error) {
	result, err := Roll(expr, r.src)
	if err != nil {
		return RollResult{}, err
	}
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result, nil
}

// RollExpr parses expr and rolls it, logging the result.
//
// Precondition: expr must be a valid dice expression string.
// Postcondition: Returns a RollResult or a parse/roll error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e)
}

// Trait performs a logged trait roll.
//
// Precondition: die >= 2.
// Postcondition: Returns the TraitResult; the roll is logged at debug level.
func (r *Roller) Trait(die int, wild bool, mods []Modifier) (TraitResult, error) {
	result, err := TraitRoll(die, wild, mods, r.src)
	if err != nil {
		return TraitResult{}, err
	}
	fields := []zap.Field{
		zap.String("trait", result.Trait.Expression),
		zap.Ints("trait_dice", result.Trait.Dice),
		zap.Int("modifier", ModifierSum(result.Modifiers)),
		zap.Int("total", result.Total),
	}
	if result.Wild != nil {
		fields = append(fields, zap.Ints("wild_dice", result.Wild.Dice))
	}
	r.logger.Debug("trait roll", fields...)
	return result, nil
}
