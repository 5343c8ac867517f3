// Package apperr defines the operational error kinds shared by every layer.
// A kind is a sentinel error; *Error attaches a user-facing message and an
// optional cause, and matches its kind with errors.Is.
package apperr

import (
	"errors"
	"net/http"
)

// Error kinds.
var (
	ErrValidation         = errors.New("validation error")
	ErrBadRequest         = errors.New("bad request")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoCredential       = errors.New("no credential")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("expired token")
	ErrStalePassword      = errors.New("password changed after token issuance")
	ErrUserGone           = errors.New("token subject no longer exists")
	ErrForbidden          = errors.New("forbidden")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrTransport          = errors.New("transport error")
)

var statusByKind = map[error]int{
	ErrValidation:         http.StatusBadRequest,
	ErrBadRequest:         http.StatusBadRequest,
	ErrNotFound:           http.StatusNotFound,
	ErrDuplicateKey:       http.StatusBadRequest,
	ErrInvalidCredentials: http.StatusUnauthorized,
	ErrNoCredential:       http.StatusUnauthorized,
	ErrInvalidToken:       http.StatusUnauthorized,
	ErrExpiredToken:       http.StatusUnauthorized,
	ErrStalePassword:      http.StatusUnauthorized,
	ErrUserGone:           http.StatusUnauthorized,
	ErrForbidden:          http.StatusForbidden,
	ErrTooManyRequests:    http.StatusTooManyRequests,
	ErrPayloadTooLarge:    http.StatusRequestEntityTooLarge,
	ErrTransport:          http.StatusInternalServerError,
}

// Error is an operational error: its Message is safe to show to clients.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// New returns an operational error of the given kind.
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap returns an operational error of the given kind that keeps cause in its chain.
func Wrap(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Status returns the HTTP status for the error's kind.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// As extracts the outermost *Error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusOf returns the HTTP status for err, or 500 when err is not operational.
func StatusOf(err error) int {
	if e, ok := As(err); ok {
		return e.Status()
	}
	return http.StatusInternalServerError
}
