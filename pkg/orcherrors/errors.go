// Package orcherrors provides unified, structured error handling for the
// research orchestrator.
package orcherrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error into one of a small, closed set of categories
// that callers (the API layer, the orchestrator's recovery logic) can
// switch on without inspecting message text.
type Kind string

const (
	// KindNotFound means the referenced entity does not exist.
	KindNotFound Kind = "NOT_FOUND"
	// KindInvalidArgument means the caller supplied a malformed or
	// out-of-range argument.
	KindInvalidArgument Kind = "INVALID_ARGUMENT"
	// KindConflict means the requested operation conflicts with the
	// current state of the entity (e.g. a run that is not pending).
	KindConflict Kind = "CONFLICT"
	// KindUnavailable means a dependency (external service, circuit
	// breaker, AI adapter) could not service the request right now.
	KindUnavailable Kind = "UNAVAILABLE"
	// KindInternal means an unexpected, non-recoverable failure occurred.
	KindInternal Kind = "INTERNAL"
)

// httpStatus maps each Kind to an illustrative HTTP status, used only by
// the optional HTTP surface in internal/api.
var httpStatus = map[Kind]int{
	KindNotFound:        http.StatusNotFound,
	KindInvalidArgument: http.StatusBadRequest,
	KindConflict:        http.StatusConflict,
	KindUnavailable:     http.StatusServiceUnavailable,
	KindInternal:        http.StatusInternalServerError,
}

// Error is a structured error carrying a Kind, a human message, optional
// details, and an optional wrapped cause.
type Error struct {
	Kind    Kind                   `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetails attaches a key/value detail and returns the receiver for
// chaining.
func (e *Error) WithDetails(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// HTTPStatus returns the illustrative HTTP status for this error's Kind.
func (e *Error) HTTPStatus() int {
	if status, ok := httpStatus[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// New creates an Error of the given Kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap wraps an existing error with a Kind and message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotFound builds a KindNotFound error for the given resource/id pair.
func NotFound(resource, id string) *Error {
	return New(KindNotFound, "resource not found").
		WithDetails("resource", resource).
		WithDetails("id", id)
}

// InvalidArgument builds a KindInvalidArgument error describing why field
// failed validation.
func InvalidArgument(field, reason string) *Error {
	return New(KindInvalidArgument, "invalid argument").
		WithDetails("field", field).
		WithDetails("reason", reason)
}

// Conflict builds a KindConflict error with a free-form message.
func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Unavailable wraps err as a KindUnavailable error, tagging reason (e.g.
// "circuit_open", "timeout", "all_services_exhausted") so callers can
// distinguish the cause without string-matching the message.
func Unavailable(service, reason string, err error) *Error {
	return Wrap(KindUnavailable, "dependency unavailable", err).
		WithDetails("service", service).
		WithDetails("reason", reason)
}

// BreakerOpen builds the KindUnavailable error raised when a circuit
// breaker refuses a call outright.
func BreakerOpen(service string) *Error {
	return New(KindUnavailable, "circuit breaker open").
		WithDetails("service", service).
		WithDetails("reason", "circuit_open")
}

// Timeout builds the KindUnavailable error raised when operation exceeds
// its deadline.
func Timeout(operation string) *Error {
	return New(KindUnavailable, "operation timed out").
		WithDetails("operation", operation).
		WithDetails("reason", "timeout")
}

// Internal wraps err as a KindInternal error.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// IsKind reports whether err's chain contains an *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

// As extracts an *Error from err's chain, if present.
func As(err error) *Error {
	var oe *Error
	if errors.As(err, &oe) {
		return oe
	}
	return nil
}

// HTTPStatus returns the illustrative HTTP status for err, defaulting to
// 500 when err does not wrap an *Error.
func HTTPStatus(err error) int {
	if oe := As(err); oe != nil {
		return oe.HTTPStatus()
	}
	return http.StatusInternalServerError
}
