package swiftdsv

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrClosed is returned by every operation attempted after Close.
	ErrClosed = errors.New("swiftdsv: stream closed")
	// ErrBareQuote is returned in strict mode when a quote appears inside an unquoted field.
	ErrBareQuote = errors.New("swiftdsv: bare quote in non-quoted field")
	// ErrUnterminatedQuote is returned in strict mode when a quoted field is not closed before EOF.
	ErrUnterminatedQuote = errors.New("swiftdsv: unterminated quoted field")
	// ErrFieldCount is matched by every ColumnCountError.
	ErrFieldCount = errors.New("swiftdsv: wrong number of fields")
	// ErrUnescapable is wrapped by the IOError returned when a value cannot be written without quoting or escaping.
	ErrUnescapable = errors.New("swiftdsv: value contains separator but quoting and escaping are disabled")
)

// ConfigError reports an invalid dialect combination.
type ConfigError struct {
	Field   string
	Message string
}

// Error names the offending field.
func (e *ConfigError) Error() string {
	return "swiftdsv: invalid " + e.Field + ": " + e.Message
}

// ParseError contains location information for strict-mode parsing errors.
type ParseError struct {
	// StartLine is the line where the record started (1-indexed).
	StartLine int
	// Line is the line where the error occurred (1-indexed).
	Line   int
	Column int
	Err    error
}

// Error formats the parse error message with the stored line, column, and Err values.
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.StartLine == 0 || e.StartLine == e.Line {
		return fmt.Sprintf("swiftdsv: parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("swiftdsv: parse error on line %d (record started line %d), column %d: %v",
		e.Line, e.StartLine, e.Column, e.Err)
}

// Unwrap returns the underlying Err so ParseError participates in errors.Is.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ColumnCountError is returned when VariableColumns is disabled and a row
// does not have the width established by the first row.
// Reader errors carry Tokens, writer errors carry Values.
type ColumnCountError struct {
	Tokens []Token
	Values []*string
	// Line is the physical line the offending row ended on; zero for writer errors.
	Line int
	Want int
	Got  int
}

// Error reports the widths and, for reader errors, the line.
func (e *ColumnCountError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("swiftdsv: wrong number of fields on line %d: got %d, want %d", e.Line, e.Got, e.Want)
	}
	return fmt.Sprintf("swiftdsv: wrong number of fields: got %d, want %d", e.Got, e.Want)
}

// Is makes errors.Is(err, ErrFieldCount) hold for every ColumnCountError.
func (e *ColumnCountError) Is(target error) bool {
	return target == ErrFieldCount
}

// IOError reports a failure of the underlying stream, or a value the writer
// cannot represent under the current dialect.
type IOError struct {
	Op  string
	Err error
}

// Error prefixes the underlying error with the failed operation.
func (e *IOError) Error() string {
	return "swiftdsv: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// ioError attaches a stack to err and tags it with op. io.EOF is never wrapped.
func ioError(op string, err error) error {
	if err == nil || err == io.EOF {
		return err
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &IOError{Op: op, Err: errors.WithStack(err)}
}
