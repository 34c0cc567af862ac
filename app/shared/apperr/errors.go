// Package apperr defines the error taxonomy shared by the domain services and
// its mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds. Domain errors wrap exactly one of these.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadySolved = errors.New("already solved")
	ErrValidation    = errors.New("validation failed")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrConflict      = errors.New("conflict")
	ErrTransient     = errors.New("temporarily unavailable, retry")
	ErrIntegrity     = errors.New("integrity violation")
	ErrRateLimited   = errors.New("too many requests")
)

// Error is a domain error with a message that is safe to show to clients.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Unwrap exposes the kind so errors.Is works against the sentinels.
func (e *Error) Unwrap() error { return e.kind }

// New builds a domain error of the given kind.
func New(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// NotFound is shorthand for New(ErrNotFound, ...).
func NotFound(format string, args ...any) error { return New(ErrNotFound, format, args...) }

// Validation is shorthand for New(ErrValidation, ...).
func Validation(format string, args ...any) error { return New(ErrValidation, format, args...) }

// Forbidden is shorthand for New(ErrForbidden, ...).
func Forbidden(format string, args ...any) error { return New(ErrForbidden, format, args...) }

// Conflict is shorthand for New(ErrConflict, ...).
func Conflict(format string, args ...any) error { return New(ErrConflict, format, args...) }

var statusByKind = []struct {
	kind   error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrAlreadySolved, http.StatusBadRequest},
	{ErrValidation, http.StatusBadRequest},
	{ErrConflict, http.StatusBadRequest},
	{ErrIntegrity, http.StatusBadRequest},
	{ErrForbidden, http.StatusForbidden},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrTransient, http.StatusConflict},
	{ErrRateLimited, http.StatusTooManyRequests},
}

// HTTPStatus maps an error onto a status code. Unknown errors are 500.
func HTTPStatus(err error) int {
	for _, m := range statusByKind {
		if errors.Is(err, m.kind) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// IsDomain reports whether err belongs to the taxonomy.
func IsDomain(err error) bool {
	return HTTPStatus(err) != http.StatusInternalServerError
}

// PublicMessage returns the text a client may see. Internal errors collapse
// to a generic message.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.msg
	}
	for _, m := range statusByKind {
		if errors.Is(err, m.kind) {
			return m.kind.Error()
		}
	}
	return "internal server error"
}
