package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression is a parsed damage or check formula.
//
// A fixed formula ("3") has Count == 0 and rolls no dice.
// Invariant: Count == 0 or (Count >= 1 and Sides >= 2).
type Expression struct {
	Raw      string
	Count    int
	Sides    int
	Modifier int
}

// IsFixed reports whether the expression is a flat amount with no dice.
func (e Expression) IsFixed() bool { return e.Count == 0 }

// Parse parses dice notation into an Expression.
// Supported forms: "d20", "1d6", "2d6+3", "1d8-1", and fixed amounts "4" or "-1".
//
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	raw := expr
	s := strings.ToLower(strings.ReplaceAll(expr, " ", ""))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	dIdx := strings.IndexByte(s, 'd')
	if dIdx < 0 {
		fixed, err := strconv.Atoi(s)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: %q is neither dice notation nor a fixed amount: %w", raw, err)
		}
		return Expression{Raw: raw, Modifier: fixed}, nil
	}

	count := 1
	if dIdx > 0 {
		n, err := strconv.Atoi(s[:dIdx])
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", raw, err)
		}
		if n < 1 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: must be >= 1", raw)
		}
		count = n
	}

	rest := s[dIdx+1:]
	sidesStr, modStr := rest, ""
	if i := strings.IndexAny(rest, "+-"); i >= 0 {
		sidesStr, modStr = rest[:i], rest[i:]
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", raw, err)
	}
	if sides < 2 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 2", raw)
	}

	modifier := 0
	if modStr != "" {
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", raw, err)
		}
	}

	return Expression{Raw: raw, Count: count, Sides: sides, Modifier: modifier}, nil
}

// MustParse parses expr and panics on error. Intended for test fixtures and
// package-level constants.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}

// Roll evaluates expr against src. Each die is rolled independently.
//
// Postcondition: len(result.Dice) == expr.Count; result.Modifier == expr.Modifier.
func Roll(expr Expression, src Source) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	return RollResult{Expression: expr.Raw, Dice: rolled, Modifier: expr.Modifier}
}
