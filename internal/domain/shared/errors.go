package shared

import "errors"

// DomainError is a sentinel error carrying a stable code
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors. Callers wrap them with %w and match with errors.Is.
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "record not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "record already exists")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "invalid input")
)

// ErrorCode returns the code of the first DomainError in err's chain,
// or "INTERNAL" when there is none.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL"
}
