// Package dice provides the seeded randomness source and dice expressions used
// by the skirmish combat engine.
package dice

import (
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Source draws uniformly distributed integers. An encounter owns exactly one
// Source and drives it from a single goroutine, so implementations need not
// be safe for concurrent use.
type Source interface {
	// Intn returns a value in [0, n). n must be positive.
	Intn(n int) int
}

// D20 rolls a single twenty-sided die.
func D20(src Source) int { return src.Intn(20) + 1 }

// Percent rolls a value in [1, 100].
func Percent(src Source) int { return src.Intn(100) + 1 }

// RollResult records one evaluation of an Expression.
//
// Invariant: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string
	Dice       []int
	Modifier   int
}

// Total is the sum of the dice plus the modifier.
func (r RollResult) Total() int {
	sum := r.Modifier
	for _, d := range r.Dice {
		sum += d
	}
	return sum
}

// String renders the roll as "2d6+3: 4+5 +3 = 12". An empty Expression is
// shown as "?".
func (r RollResult) String() string {
	var b strings.Builder
	if r.Expression == "" {
		b.WriteString("?")
	} else {
		b.WriteString(r.Expression)
	}
	b.WriteString(": ")
	for i, d := range r.Dice {
		if i > 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.Itoa(d))
	}
	if r.Modifier != 0 || len(r.Dice) == 0 {
		if len(r.Dice) > 0 {
			b.WriteByte(' ')
		}
		if r.Modifier >= 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.Itoa(r.Modifier))
	}
	b.WriteString(" = ")
	b.WriteString(strconv.Itoa(r.Total()))
	return b.String()
}

// MarshalLogObject lets a RollResult be logged with zap.Object.
func (r RollResult) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("expression", r.Expression)
	if err := enc.AddArray("dice", zapcore.ArrayMarshalerFunc(func(ae zapcore.ArrayEncoder) error {
		for _, d := range r.Dice {
			ae.AppendInt(d)
		}
		return nil
	})); err != nil {
		return err
	}
	enc.AddInt("modifier", r.Modifier)
	enc.AddInt("total", r.Total())
	return nil
}
