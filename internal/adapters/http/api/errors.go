package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/telematics/internal/adapters/repository"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrNotFound        = errors.New("not found")
	ErrTooManySessions = errors.New("too many sessions")
	ErrInternal        = errors.New("internal error")
)

// Error carries the failing operation and a kind the handler maps to a status.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind returns an error of the given kind with no cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap tags err with op and a kind derived from the repository sentinels.
func Wrap(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return WrapKind(op, ErrNotFound, err)
	case errors.Is(err, repository.ErrCapacity):
		return WrapKind(op, ErrTooManySessions, err)
	default:
		return WrapKind(op, ErrInternal, err)
	}
}

// statusOf maps an error kind to its HTTP status and response code.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrTooManySessions):
		return http.StatusTooManyRequests, "too_many_sessions"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
