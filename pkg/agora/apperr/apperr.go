// Package apperr defines the failure kinds surfaced by agora's services and
// renders them as RFC 7807 problem documents.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mikepea/agora/pkg/agora/validation"
)

// Kind classifies a failure independently of transport.
type Kind int

const (
	Internal Kind = iota
	NotFound
	Conflict
	Forbidden
	Unauthorized
	Validation
	BadRequest
	WriteFault
)

var kindNames = map[Kind]string{
	Internal:     "internal",
	NotFound:     "not_found",
	Conflict:     "conflict",
	Forbidden:    "forbidden",
	Unauthorized: "unauthorized",
	Validation:   "validation",
	BadRequest:   "bad_request",
	WriteFault:   "write_fault",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status is the HTTP status for the kind.
func (k Kind) Status() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Forbidden:
		return http.StatusForbidden
	case Unauthorized:
		return http.StatusUnauthorized
	case Validation:
		return http.StatusUnprocessableEntity
	case BadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Message is safe to show to clients; Err is
// the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches cause to a new Error.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

func NotFoundf(format string, args ...any) *Error   { return New(NotFound, format, args...) }
func Conflictf(format string, args ...any) *Error   { return New(Conflict, format, args...) }
func Forbiddenf(format string, args ...any) *Error  { return New(Forbidden, format, args...) }
func Validationf(format string, args ...any) *Error { return New(Validation, format, args...) }

// Invalid wraps a request binding failure as a Validation error.
func Invalid(err error) *Error {
	return &Error{Kind: Validation, Message: validation.Describe(err), Err: err}
}

// KindOf reports the kind of err, or Internal when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
