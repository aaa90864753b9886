// Package formula evaluates the short arithmetic expressions stored on BOM
// lines, glass settings and pricing rules.
//
// Only numeric literals, the operators + - * / with parentheses, unary minus
// and caller-supplied variables are accepted.
package formula

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Variable names recognised by catalog formulas
const (
	VarWidth     = "width"
	VarHeight    = "height"
	VarQuantity  = "quantity"
	VarBasePrice = "basePrice"
)

// Variables maps variable names to values. Names match case-insensitively.
type Variables map[string]decimal.Decimal

// Dimensions returns the width/height variable set used by BOM formulas
func Dimensions(width, height decimal.Decimal) Variables {
	return Variables{
		VarWidth:  width,
		VarHeight: height,
	}
}

// With returns a copy of v with name set to value
func (v Variables) With(name string, value decimal.Decimal) Variables {
	out := make(Variables, len(v)+1)
	for k, val := range v {
		out[k] = val
	}
	out[name] = value
	return out
}

func (v Variables) lookup(name string) (decimal.Decimal, bool) {
	if val, ok := v[name]; ok {
		return val, true
	}
	for k, val := range v {
		if strings.EqualFold(k, name) {
			return val, true
		}
	}
	return decimal.Zero, false
}

// Evaluate evaluates expr and never fails: an empty or invalid expression,
// an unknown identifier or a division by zero all yield 0. Negative results
// are clamped to 0.
func Evaluate(expr string, vars Variables) decimal.Decimal {
	result, err := EvaluateRaw(expr, vars)
	if err != nil || result.IsNegative() {
		return decimal.Zero
	}
	return result
}

// EvaluateRaw evaluates expr without clamping and reports failures.
// An empty expression returns ErrEmptyExpression.
func EvaluateRaw(expr string, vars Variables) (decimal.Decimal, error) {
	if strings.TrimSpace(expr) == "" {
		return decimal.Zero, ErrEmptyExpression
	}

	tokens, err := tokenize(expr)
	if err != nil {
		return decimal.Zero, err
	}

	p := &parser{tokens: tokens, vars: vars}
	result, err := p.parseExpr()
	if err != nil {
		return decimal.Zero, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return decimal.Zero, fmt.Errorf("%w: %q at %d", ErrUnexpectedToken, tok.text, tok.pos)
	}
	return result, nil
}

// References reports whether expr mentions name as a whole identifier,
// ignoring case. "width" is not found in "widthOffset".
func References(expr, name string) bool {
	for _, ident := range identifiers(expr) {
		if unicode.IsDigit([]rune(ident)[0]) {
			continue
		}
		if strings.EqualFold(ident, name) {
			return true
		}
	}
	return false
}

// IsBlank reports whether expr has no content
func IsBlank(expr string) bool {
	return strings.TrimSpace(expr) == ""
}
