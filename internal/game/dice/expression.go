package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`^(\d*)d(\d+)([+-]\d+)?$`)

// Expression is a parsed dice expression ready to be rolled.
//
// A flat expression ("5") has Count == 0 and always totals Modifier.
type Expression struct {
	Raw      string
	Count    int
	Sides    int
	Modifier int
}

// IsZero reports whether e is the empty expression (no dice, no modifier).
func (e Expression) IsZero() bool { return e.Count == 0 && e.Modifier == 0 }

// Max returns the largest total e can produce.
func (e Expression) Max() int { return e.Count*e.Sides + e.Modifier }

// String returns the original text of the expression.
func (e Expression) String() string { return e.Raw }

// Parse parses "d20", "2d6", "1d8+2", "3d4-1", or a flat integer such as "5".
//
// Postcondition: on success Count >= 0; when Count > 0, Sides >= 2.
func Parse(expr string) (Expression, error) {
	raw := strings.TrimSpace(expr)
	if raw == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}
	if flat, err := strconv.Atoi(raw); err == nil {
		return Expression{Raw: raw, Modifier: flat}, nil
	}
	m := exprPattern.FindStringSubmatch(strings.ToLower(raw))
	if m == nil {
		return Expression{}, fmt.Errorf("dice: malformed expression %q", raw)
	}
	count := 1
	if m[1] != "" {
		count, _ = strconv.Atoi(m[1])
		if count < 1 {
			return Expression{}, fmt.Errorf("dice: die count in %q must be >= 1", raw)
		}
	}
	sides, _ := strconv.Atoi(m[2])
	if sides < 2 {
		return Expression{}, fmt.Errorf("dice: die sides in %q must be >= 2", raw)
	}
	mod := 0
	if m[3] != "" {
		mod, _ = strconv.Atoi(m[3])
	}
	return Expression{Raw: raw, Count: count, Sides: sides, Modifier: mod}, nil
}

// MustParse parses expr and panics on error. Useful for package-level values.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// Roll evaluates e against src.
//
// Postcondition: len(result.Dice) == e.Count.
func (e Expression) Roll(src Source) RollResult {
	rolled := make([]int, e.Count)
	for i := range rolled {
		rolled[i] = src.Intn(e.Sides) + 1
	}
	raw := e.Raw
	if raw == "" {
		raw = fmt.Sprintf("%dd%d%+d", e.Count, e.Sides, e.Modifier)
	}
	return RollResult{Expression: raw, Dice: rolled, Modifier: e.Modifier}
}

// UnmarshalText lets expressions be written as plain strings in YAML content.
func (e *Expression) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*e = Expression{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// MarshalText renders the expression back to its source text.
func (e Expression) MarshalText() ([]byte, error) {
	return []byte(e.Raw), nil
}
