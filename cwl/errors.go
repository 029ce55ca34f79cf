package cwl

import (
	"errors"
	"fmt"
)

// Caller-contract violations. Operations return them wrapped in *Error and leave
// the descriptor unchanged.
var (
	ErrEmptyID          = errors.New("identifier is empty")
	ErrEmptyBaseCommand = errors.New("base command is empty")
	ErrMissingGlob      = errors.New("output glob is required")
	ErrInvalidType      = errors.New("invalid type")
	ErrDuplicatePort    = errors.New("duplicate port identifier")
	ErrNilValue         = errors.New("value is required")
	ErrEmptyImage       = errors.New("container image is empty")
	ErrEngineMismatch   = errors.New("expression engine does not match descriptor engine")
)

// Error reports a rejected builder operation.
type Error struct {
	// Op is the builder operation, e.g. "AddInputPort".
	Op string
	// Field names the offending parameter.
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("cwl: %s: %s: %v", e.Op, e.Field, e.Err)
	}
	return fmt.Sprintf("cwl: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(op, field string, err error) *Error {
	return &Error{Op: op, Field: field, Err: err}
}
