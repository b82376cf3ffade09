package ir

import (
	"errors"
	"fmt"
)

// ErrorClass is a stable failure category. Every error produced while
// parsing, generating, evaluating, or comparing values maps to one class,
// which the CLI uses to choose an exit code and JSON error code.
type ErrorClass string

const (
	// MalformedLiteral: text does not match the literal or type grammar.
	MalformedLiteral ErrorClass = "MALFORMED_LITERAL"

	// WidthMismatch: a bits literal's width conflicts with the expected type.
	WidthMismatch ErrorClass = "WIDTH_MISMATCH"

	// ArityMismatch: a tuple or array element count conflicts with the expected type.
	ArityMismatch ErrorClass = "ARITY_MISMATCH"

	// TypeMismatch: a literal's kind conflicts with the expected type, or
	// array elements disagree on type.
	TypeMismatch ErrorClass = "TYPE_MISMATCH"

	// RangeError: a payload or bit slice falls outside a bit vector.
	RangeError ErrorClass = "RANGE_ERROR"

	// LengthMismatch: the expected-values sequence and the argument
	// sequence differ in length.
	LengthMismatch ErrorClass = "LENGTH_MISMATCH"

	// GenerationExhausted: the predicate rejected every candidate within
	// the attempt budget.
	GenerationExhausted ErrorClass = "GENERATION_EXHAUSTED"

	// ExecutionFailure: a backend could not evaluate the argument tuple.
	ExecutionFailure ErrorClass = "EXECUTION_FAILURE"

	// Miscompare: two results for the same argument tuple disagree.
	Miscompare ErrorClass = "MISCOMPARE"
)

// Error is the structured error type for value-level failures.
//
// Error() returns only the message (plus the cause, if any) so that
// diagnostics such as "Unable to generate valid input" appear verbatim
// in the error stream. The class is available via ClassOf.
type Error struct {
	Class   ErrorClass
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an Error with a formatted message.
func NewError(class ErrorClass, format string, args ...any) *Error {
	return &Error{Class: class, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an Error wrapping an existing error.
func WrapError(class ErrorClass, message string, cause error) *Error {
	return &Error{Class: class, Message: message, Cause: cause}
}

// ClassOf returns the class of the outermost *Error in err's chain,
// or "" if there is none.
func ClassOf(err error) ErrorClass {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ""
}

// IsClass reports whether err's chain contains an *Error of the given class.
// Uses errors.As semantics, so wrapped errors are matched.
func IsClass(err error, class ErrorClass) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Class == class {
			return true
		}
		err = e.Cause
	}
	return false
}
