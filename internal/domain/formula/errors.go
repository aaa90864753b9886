package formula

import "errors"

// Evaluation errors returned by EvaluateRaw
var (
	ErrEmptyExpression   = errors.New("empty expression")
	ErrUnexpectedToken   = errors.New("unexpected token")
	ErrUnknownIdentifier = errors.New("unknown identifier")
	ErrDivisionByZero    = errors.New("division by zero")
)
