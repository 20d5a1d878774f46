// Package apperr defines the error taxonomy shared across the service.
//
// Every package below the HTTP dispatcher returns either a plain error or
// an *Error wrapping one of the Kinds below. Translation to an HTTP status
// happens exactly once, at the api package boundary, so that no other
// package needs to know about status codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind enumerates the taxonomy from the error-handling design.
type Kind int

const (
	// KindServer is the zero value so a bare error{} never silently claims
	// to be a well-understood client error.
	KindServer Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindConflict
	KindNotFound
	KindAdmission
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindAdmission:
		return "admission"
	default:
		return "server"
	}
}

// Error is a taxonomy-tagged application error. Code is a stable,
// machine-readable key (e.g. "invalid_token", "session_in_progress")
// drawn from a small centralized vocabulary; Message is safe to return to
// clients. Internal detail belongs in the wrapped err, logged but never
// serialized.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Code, e.err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// New constructs an Error with a client-safe message.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap constructs an Error that carries an internal cause for logging
// while keeping message as the only client-visible text.
func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, err: cause}
}

func Validation(code, msg string) *Error     { return New(KindValidation, code, msg) }
func Authentication(code, msg string) *Error { return New(KindAuthentication, code, msg) }
func Authorization(code, msg string) *Error  { return New(KindAuthorization, code, msg) }
func Conflict(code, msg string) *Error       { return New(KindConflict, code, msg) }
func NotFound(code, msg string) *Error       { return New(KindNotFound, code, msg) }
func Admission(code, msg string) *Error      { return New(KindAdmission, code, msg) }
func Server(code string, cause error) *Error {
	return Wrap(KindServer, code, "an unexpected error occurred", cause)
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, else
// KindServer.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}
