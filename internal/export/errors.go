package export

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRow is returned for rows with too few columns or fields
	// that do not parse.
	ErrMalformedRow = errors.New("malformed row")
	// ErrOutOfOrder is returned when a row's timestamp is earlier than the
	// previous row's. Both exports must be read in capture order.
	ErrOutOfOrder = errors.New("row out of order")
	// ErrSchema is returned when the header row does not fit the expected
	// column layout.
	ErrSchema = errors.New("export schema mismatch")
)

// RowError ties a parse failure to the 1-based line it occurred on.
type RowError struct {
	Source string
	Line   int
	Err    error
	Detail string
}

func (e *RowError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s line %d: %v: %s", e.Source, e.Line, e.Err, e.Detail)
}

func (e *RowError) Unwrap() error { return e.Err }

func rowErrorf(source string, line int, err error, format string, args ...interface{}) *RowError {
	return &RowError{Source: source, Line: line, Err: err, Detail: fmt.Sprintf(format, args...)}
}

// Malformed builds a RowError wrapping ErrMalformedRow.
func Malformed(source string, line int, format string, args ...interface{}) error {
	return rowErrorf(source, line, ErrMalformedRow, format, args...)
}
