package formula

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// parser is a recursive-descent parser over the grammar
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = ("-" | "+") unary | primary
//	primary = number | identifier | "(" expr ")"
type parser struct {
	tokens []token
	pos    int
	vars   Variables
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) parseExpr() (decimal.Decimal, error) {
	left, err := p.parseTerm()
	if err != nil {
		return decimal.Zero, err
	}

	for {
		switch p.peek().kind {
		case tokenPlus:
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return decimal.Zero, err
			}
			left = left.Add(right)
		case tokenMinus:
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return decimal.Zero, err
			}
			left = left.Sub(right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseTerm() (decimal.Decimal, error) {
	left, err := p.parseUnary()
	if err != nil {
		return decimal.Zero, err
	}

	for {
		switch p.peek().kind {
		case tokenStar:
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return decimal.Zero, err
			}
			left = left.Mul(right)
		case tokenSlash:
			tok := p.next()
			right, err := p.parseUnary()
			if err != nil {
				return decimal.Zero, err
			}
			if right.IsZero() {
				return decimal.Zero, fmt.Errorf("%w at %d", ErrDivisionByZero, tok.pos)
			}
			left = left.Div(right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (decimal.Decimal, error) {
	switch p.peek().kind {
	case tokenMinus:
		p.next()
		v, err := p.parseUnary()
		if err != nil {
			return decimal.Zero, err
		}
		return v.Neg(), nil
	case tokenPlus:
		p.next()
		return p.parseUnary()
	default:
		return p.parsePrimary()
	}
}

func (p *parser) parsePrimary() (decimal.Decimal, error) {
	tok := p.next()
	switch tok.kind {
	case tokenNumber:
		return tok.value, nil
	case tokenIdent:
		v, ok := p.vars.lookup(tok.text)
		if !ok {
			return decimal.Zero, fmt.Errorf("%w: %q at %d", ErrUnknownIdentifier, tok.text, tok.pos)
		}
		return v, nil
	case tokenLParen:
		v, err := p.parseExpr()
		if err != nil {
			return decimal.Zero, err
		}
		if closing := p.next(); closing.kind != tokenRParen {
			return decimal.Zero, fmt.Errorf("%w: expected ')' at %d", ErrUnexpectedToken, closing.pos)
		}
		return v, nil
	case tokenEOF:
		return decimal.Zero, fmt.Errorf("%w: unexpected end of expression", ErrUnexpectedToken)
	default:
		return decimal.Zero, fmt.Errorf("%w: %q at %d", ErrUnexpectedToken, tok.text, tok.pos)
	}
}
