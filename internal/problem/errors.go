package problem

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by Close on a problem that was already torn down, and
// is the panic value of Evaluate after Close.
var ErrClosed = errors.New("problem: already closed")

// Error describes a precondition violation detected while constructing or
// evaluating a problem. It is used as a panic value: a problem built from
// inconsistent dimensions cannot be repaired at runtime.
type Error struct {
	// Message describes what went wrong.
	Message string
	// Op is the operation that detected the violation.
	Op string
	// Component names the problem family or transformation involved.
	Component string
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Component != "" && e.Op != "":
		return fmt.Sprintf("%s: %s: %s", e.Component, e.Op, e.Message)
	case e.Component != "":
		return fmt.Sprintf("%s: %s", e.Component, e.Message)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// NewErrorf creates a new error with a formatted message.
func NewErrorf(format string, args ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
	}
}

// InvariantError reports a transformed problem that produced an objective
// value better than the known optimum of its inner problem.
type InvariantError struct {
	ID        string
	Value     float64
	Best      float64
	Tolerance float64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("problem %s: objective value %.17g undercuts best value %.17g (tolerance %g)",
		e.ID, e.Value, e.Best, e.Tolerance)
}

// IsPrecondition reports whether a recovered panic value is a precondition
// violation raised by this package.
func IsPrecondition(v interface{}) (*Error, bool) {
	e, ok := v.(*Error)
	return e, ok
}

// IsInvariant reports whether a recovered panic value is an invariant
// violation raised by this package.
func IsInvariant(v interface{}) (*InvariantError, bool) {
	e, ok := v.(*InvariantError)
	return e, ok
}

func preconditionf(component, op, format string, args ...interface{}) {
	panic(NewErrorf(format, args...).WithOperation(op).WithComponent(component))
}
