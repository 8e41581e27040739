package expression

import (
	"errors"
	"fmt"
)

// SyntaxError reports a malformed token sequence.
type SyntaxError struct {
	Line     int
	Expected string // empty when any other token would also have been wrong
	Found    Token
	Message  string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("syntax error on line %d: %s", e.Line, e.Message)
	}
	if e.Expected != "" {
		return fmt.Sprintf("syntax error on line %d: expected %s, found %s", e.Line, e.Expected, e.Found)
	}
	return fmt.Sprintf("syntax error on line %d: unexpected %s", e.Line, e.Found)
}

// NewSyntaxError creates a SyntaxError for a missing token.
func NewSyntaxError(line int, expected string, found Token) *SyntaxError {
	return &SyntaxError{Line: line, Expected: expected, Found: found}
}

// NewUnexpectedTokenError creates a SyntaxError for a token that cannot
// appear where it was found.
func NewUnexpectedTokenError(tok Token) *SyntaxError {
	return &SyntaxError{Line: tok.Line, Found: tok}
}

// TypeError reports an operator applied to a value it cannot handle.
type TypeError struct {
	Operator string
	Operand  Value
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("type error: unsupported operand for %q: %s", e.Operator, TypeName(e.Operand))
}

// NewTypeError creates a TypeError.
func NewTypeError(op string, operand Value) *TypeError {
	return &TypeError{Operator: op, Operand: operand}
}

// NoSuchFilterError reports a filter name missing from the registry.
type NoSuchFilterError struct {
	Name string
	Line int
}

// Error implements the error interface.
func (e *NoSuchFilterError) Error() string {
	return fmt.Sprintf("unknown filter %q on line %d", e.Name, e.Line)
}

// NewNoSuchFilterError creates a NoSuchFilterError.
func NewNoSuchFilterError(name string, line int) *NoSuchFilterError {
	return &NoSuchFilterError{Name: name, Line: line}
}

// ErrValueRejected matches a filter refusing its input value. A rejection
// abandons the rest of the filter chain and suppresses output.
var ErrValueRejected = errors.New("value rejected by filter")

// FilterValueError is returned by filters whose input has the wrong shape.
type FilterValueError struct {
	Filter  string
	Message string
}

// Error implements the error interface.
func (e *FilterValueError) Error() string {
	if e.Filter == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Filter, e.Message)
}

// Is reports whether target is ErrValueRejected.
func (e *FilterValueError) Is(target error) bool { return target == ErrValueRejected }

// RejectValue creates a FilterValueError.
func RejectValue(format string, args ...any) *FilterValueError {
	return &FilterValueError{Message: fmt.Sprintf(format, args...)}
}

// FilterArgumentError reports arguments a filter cannot work with.
type FilterArgumentError struct {
	Message string
}

// Error implements the error interface.
func (e *FilterArgumentError) Error() string { return e.Message }

// NewFilterArgumentError creates a FilterArgumentError.
func NewFilterArgumentError(format string, args ...any) *FilterArgumentError {
	return &FilterArgumentError{Message: fmt.Sprintf(format, args...)}
}

// FilterError wraps every filter failure other than a value rejection.
type FilterError struct {
	Filter string
	Line   int
	Err    error
}

// Error implements the error interface.
func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %q on line %d: %v", e.Filter, e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *FilterError) Unwrap() error { return e.Err }

// NewFilterError creates a FilterError.
func NewFilterError(filter string, line int, err error) *FilterError {
	return &FilterError{Filter: filter, Line: line, Err: err}
}

// UndefinedError reports a missing variable when undefined values are not
// tolerated.
type UndefinedError struct {
	Name string
}

// Error implements the error interface.
func (e *UndefinedError) Error() string {
	return fmt.Sprintf("%q is undefined", e.Name)
}
