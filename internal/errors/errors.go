// Package errors provides structured error handling with kind classification
// and response-status mapping for the feedback core.
package errors

import (
	"errors"
	"fmt"

	"github.com/civicvoice/civicvoice_api/util/values"
)

// Kind represents the category of error for response formatting and metrics.
type Kind string

const (
	// KindNotAuthenticated indicates the caller has no verified identity.
	KindNotAuthenticated Kind = "not_authenticated"
	// KindNotFound indicates an unknown target or review.
	KindNotFound Kind = "not_found"
	// KindInvalidTransition indicates the moderation state machine rejected the change.
	KindInvalidTransition Kind = "invalid_transition"
	// KindInvalidState indicates the operation is disallowed in the entity's current state.
	KindInvalidState Kind = "invalid_state"
	// KindConflict indicates concurrent-mutation contention; callers may retry.
	KindConflict Kind = "conflict"
	// KindValidation indicates a malformed value such as an unknown vote_type.
	KindValidation Kind = "validation"
	// KindInternal indicates a server-side failure.
	KindInternal Kind = "internal"
)

// Error is a structured error with kind, message and optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Status maps the error kind onto the response status strings used by the
// REST layer.
func (e *Error) Status() string {
	switch e.Kind {
	case KindNotAuthenticated:
		return values.NotAuthorised
	case KindNotFound:
		return values.NotFound
	case KindInvalidTransition, KindInvalidState:
		return values.Unprocessable
	case KindConflict:
		return values.Conflict
	case KindValidation:
		return values.BadRequestBody
	default:
		return values.Error
	}
}

func NotAuthenticated(message string) *Error {
	return &Error{Kind: KindNotAuthenticated, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func InvalidTransition(message string) *Error {
	return &Error{Kind: KindInvalidTransition, Message: message}
}

func InvalidState(message string) *Error {
	return &Error{Kind: KindInvalidState, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// KindOf reports the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var structured *Error
	if errors.As(err, &structured) {
		return structured.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// AsStructured converts any error into a structured Error. If err is already
// an *Error it is returned unchanged, otherwise it is wrapped as internal.
func AsStructured(err error) *Error {
	if err == nil {
		return nil
	}
	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}
	return Internal("internal error", err)
}
