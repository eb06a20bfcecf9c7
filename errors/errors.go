// Package errors re-exports github.com/cockroachdb/errors for careerhub.
//
// Handlers and services create and wrap errors through this package so that
// stack traces, hints and the sentinel errors below survive wrapping:
//
//	if err := db.First(&job, id).Error; err != nil {
//	    return errors.Wrapf(errors.ErrNotFound, "job %d", id)
//	}
//
// HTTPStatus maps an error chain onto the status code the API answers with.
package errors

import (
	"net/http"

	crdb "github.com/cockroachdb/errors"
)

var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

var (
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	WithDetailf   = crdb.WithDetailf
	GetAllHints   = crdb.GetAllHints
	FlattenHints  = crdb.FlattenHints
	Mark          = crdb.Mark
	CombineErrors = crdb.CombineErrors
)

var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors shared by every package. Wrap them to add context; check
// them with Is.
var (
	// ErrNotFound indicates the requested row does not exist or belongs to someone else
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or failed validation
	ErrInvalidRequest = New("invalid request")

	// ErrUnauthorized indicates missing or invalid credentials
	ErrUnauthorized = New("unauthorized")

	// ErrForbidden indicates the caller is authenticated but not allowed
	ErrForbidden = New("forbidden")

	// ErrConflict indicates a uniqueness violation
	ErrConflict = New("resource conflict")

	// ErrServiceUnavailable indicates an optional backend (AI, storage, broker) is not configured
	ErrServiceUnavailable = New("service unavailable")

	// ErrTimeout indicates an operation ran past its deadline
	ErrTimeout = New("operation timed out")

	// ErrRateLimited indicates the caller exceeded its invocation budget
	ErrRateLimited = New("rate limited")
)

// Invalidf returns a validation error carrying ErrInvalidRequest.
func Invalidf(format string, args ...interface{}) error {
	return Wrapf(ErrInvalidRequest, format, args...)
}

// NotFoundf returns an error carrying ErrNotFound.
func NotFoundf(format string, args ...interface{}) error {
	return Wrapf(ErrNotFound, format, args...)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest.
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// HTTPStatus returns the response status for err. Unknown errors are 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case Is(err, ErrNotFound):
		return http.StatusNotFound
	case Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case Is(err, ErrForbidden):
		return http.StatusForbidden
	case Is(err, ErrConflict):
		return http.StatusConflict
	case Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
