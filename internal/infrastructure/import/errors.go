package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Codes attached to cell and section problems found while reading a report back
const (
	ErrCodeMissingHeader   = "ERR_REPORT_MISSING_HEADER"
	ErrCodeMissingSection  = "ERR_REPORT_MISSING_SECTION"
	ErrCodeInvalidNumber   = "ERR_REPORT_INVALID_NUMBER"
	ErrCodeInvalidCurrency = "ERR_REPORT_INVALID_CURRENCY"
)

var (
	ErrEmptyFile       = errors.New("report is empty")
	ErrInvalidEncoding = errors.New("report is not valid UTF-8")
	ErrMissingHeader   = errors.New("report table has no header row")
)

// RowError locates a problem at a report line and, optionally, a column.
// Value holds the offending cell text when there is one.
type RowError struct {
	Row     int
	Column  string
	Code    string
	Message string
	Value   string
}

func (e RowError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "row %d", e.Row)
	if e.Column != "" {
		fmt.Fprintf(&sb, ", column '%s'", e.Column)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Value != "" {
		fmt.Fprintf(&sb, " (got %q)", e.Value)
	}
	return sb.String()
}

// NewRowError returns a RowError without a cell value
func NewRowError(row int, column, code, message string) RowError {
	return RowError{Row: row, Column: column, Code: code, Message: message}
}

func cellError(r Row, column, code, message string) RowError {
	e := NewRowError(r.LineNumber, column, code, message)
	e.Value = r.Data[column]
	return e
}

// ErrorCollection gathers problems while a report is scanned so one pass
// reports every bad cell. Only the first limit problems are kept; the rest
// are counted.
type ErrorCollection struct {
	kept    []RowError
	limit   int
	dropped int
}

// NewErrorCollection returns a collection keeping at most limit problems.
// A non-positive limit keeps 100.
func NewErrorCollection(limit int) *ErrorCollection {
	if limit <= 0 {
		limit = 100
	}
	return &ErrorCollection{limit: limit}
}

// Add records err. Errors that are not RowErrors are kept as row 0.
func (ec *ErrorCollection) Add(err error) {
	if err == nil {
		return
	}
	var re RowError
	if !errors.As(err, &re) {
		re = RowError{Message: err.Error()}
	}
	if len(ec.kept) >= ec.limit {
		ec.dropped++
		return
	}
	ec.kept = append(ec.kept, re)
}

func (ec *ErrorCollection) HasErrors() bool {
	return len(ec.kept) > 0
}

func (ec *ErrorCollection) IsTruncated() bool {
	return ec.dropped > 0
}

// Err folds the collection into one error, or nil when nothing was added
func (ec *ErrorCollection) Err() error {
	if !ec.HasErrors() {
		return nil
	}
	return errors.New(ec.String())
}

func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d problem(s) in report", len(ec.kept)+ec.dropped)
	if ec.IsTruncated() {
		fmt.Fprintf(&sb, ", first %d shown", ec.limit)
	}
	sb.WriteString(":")
	for _, e := range ec.kept {
		sb.WriteString("\n  ")
		sb.WriteString(e.Error())
	}
	return sb.String()
}
