package pickup

import (
	"errors"
	"fmt"
)

// Kind classifies a pickup operation failure.
type Kind int

// Failure kinds surfaced by the state machine.
const (
	// KindValidation flags malformed or out-of-range input.
	KindValidation Kind = iota + 1
	// KindNotFound flags a missing pickup or collection point.
	KindNotFound
	// KindForbidden flags a caller who does not own the target entity.
	KindForbidden
	// KindInvalidState flags a transition the current status does not permit.
	KindInvalidState
	// KindDependency flags a store failure mid-operation.
	KindDependency
)

// Error is a classified pickup failure. Validation errors carry the failing
// field name so callers can surface field-level detail.
type Error struct {
	Kind    Kind   // Failure classification.
	Field   string // Failing input field, validation errors only.
	Message string // Human-readable message.
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// validationErr builds a field-level validation failure.
func validationErr(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// notFoundErr builds a missing-entity failure.
func notFoundErr(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// forbiddenErr builds an ownership failure.
func forbiddenErr(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// invalidStateErr builds an illegal-transition failure.
func invalidStateErr(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// dependencyErr wraps a store failure.
func dependencyErr(err error) *Error {
	return &Error{Kind: KindDependency, Message: fmt.Sprintf("store operation failed: %v", err)}
}

// KindOf extracts the failure kind, or zero for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
