package dice

import "go.uber.org/zap"

// Roller draws from a Source and writes every dice roll to a debug log,
// tagged with the purpose the caller gives it.
type Roller struct {
	src Source
	log *zap.Logger
}

// NewLoggedRoller returns a Roller over src. Both arguments must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, log: logger}
}

// Source returns the underlying random source.
func (r *Roller) Source() Source { return r.src }

// Roll evaluates expr.
func (r *Roller) Roll(purpose string, expr Expression) RollResult {
	res := expr.Roll(r.src)
	r.log.Debug("dice roll", zap.String("purpose", purpose), zap.Object("roll", res))
	return res
}

// D20 rolls one twenty-sided die and logs it under purpose.
func (r *Roller) D20(purpose string) int { return r.single(purpose, "d20", D20(r.src)) }

// Percent rolls a d100.
func (r *Roller) Percent(purpose string) int { return r.single(purpose, "d100", Percent(r.src)) }

func (r *Roller) single(purpose, die string, v int) int {
	r.log.Debug("dice roll", zap.String("purpose", purpose), zap.Object("roll", RollResult{Expression: die, Dice: []int{v}}))
	return v
}

// Intn draws without logging. It serves selections, such as a random AI
// choice, that are not dice.
func (r *Roller) Intn(n int) int { return r.src.Intn(n) }
