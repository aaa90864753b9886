package formula

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenNumber
	tokenIdent
	tokenPlus
	tokenMinus
	tokenStar
	tokenSlash
	tokenLParen
	tokenRParen
)

type token struct {
	kind  tokenKind
	text  string
	value decimal.Decimal
	pos   int
}

func tokenize(expr string) ([]token, error) {
	tokens := make([]token, 0, len(expr)/2+1)
	runes := []rune(expr)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			text := string(runes[start:i])
			v, err := decimal.NewFromString(text)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid number %q at %d", ErrUnexpectedToken, text, start)
			}
			tokens = append(tokens, token{kind: tokenNumber, text: text, value: v, pos: start})
		case isIdentStart(r):
			start := i
			for i < len(runes) && isIdentPart(runes[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: string(runes[start:i]), pos: start})
		default:
			kind, ok := operators[r]
			if !ok {
				return nil, fmt.Errorf("%w: %q at %d", ErrUnexpectedToken, r, i)
			}
			tokens = append(tokens, token{kind: kind, text: string(r), pos: i})
			i++
		}
	}

	return append(tokens, token{kind: tokenEOF, pos: len(runes)}), nil
}

var operators = map[rune]tokenKind{
	'+': tokenPlus,
	'-': tokenMinus,
	'*': tokenStar,
	'/': tokenSlash,
	'(': tokenLParen,
	')': tokenRParen,
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// identifiers returns every identifier-shaped word in expr, even when the
// expression as a whole does not tokenize.
func identifiers(expr string) []string {
	return strings.FieldsFunc(expr, func(r rune) bool {
		return !isIdentPart(r)
	})
}
