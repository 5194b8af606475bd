package domain

import (
	"errors"
	"fmt"
	"net/http"

	"deenly/deenly/services/threads"
)

// HTTPError is implemented by errors that know their HTTP status.
type HTTPError interface {
	error
	StatusCode() int
}

var (
	ErrThreadNotFound = threads.ErrThreadNotFound
	ErrNotFound       = errors.New("not found")
	ErrLimitReached   = errors.New("limit_reached")
	ErrSendInProgress = errors.New("a question is already being answered")
	ErrGuest          = errors.New("not available for guest sessions")
	ErrUnauthorized   = errors.New("unauthorized")
)

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string   { return e.Message }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// UnavailableError is returned when an optional backend is not configured.
type UnavailableError struct {
	Feature string
}

func (e *UnavailableError) Error() string   { return e.Feature + " is not configured" }
func (e *UnavailableError) StatusCode() int { return http.StatusServiceUnavailable }

// StoreError wraps a failed Message Store call. Transient errors are worth
// retrying; the caller's view is left untouched either way.
type StoreError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) StatusCode() int {
	if e.Transient {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// StatusFor maps an error to the HTTP status used by the routes.
func StatusFor(err error) int {
	var he HTTPError
	switch {
	case errors.As(err, &he):
		return he.StatusCode()
	case errors.Is(err, ErrThreadNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrLimitReached):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrSendInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrGuest):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
