package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrBadRequest            = errors.New("bad request")
	ErrInternal              = errors.New("internal server error")
	ErrInvalidInput          = errors.New("invalid input")
	ErrDuplicateFlag         = errors.New("flag already pending for this reporter and content")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrDataInconsistency     = errors.New("data inconsistency")
)

// QuotaExceededError is returned when a user hits their tier's daily limit
// for an action kind. Tier and Limit are surfaced to the caller as-is.
type QuotaExceededError struct {
	Tier   string
	Action string
	Limit  int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily %s quota exceeded for tier %s (limit %d)", e.Action, e.Tier, e.Limit)
}

// SpamRejectedError carries the aggregate score and the triggered reasons
// so the delivery layer can surface a structured rejection.
type SpamRejectedError struct {
	Score   int
	Reasons []string
}

func (e *SpamRejectedError) Error() string {
	return fmt.Sprintf("content rejected as spam (score %d)", e.Score)
}

// InvalidFlagStateError signals an attempt to resolve a flag that has
// already left the pending state.
type InvalidFlagStateError struct {
	Status string
}

func (e *InvalidFlagStateError) Error() string {
	return fmt.Sprintf("flag already resolved with status %s", e.Status)
}

// AppError is a custom error type that can hold an HTTP status code
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	var quotaErr *QuotaExceededError
	if errors.As(err, &quotaErr) {
		return http.StatusTooManyRequests
	}
	var spamErr *SpamRejectedError
	if errors.As(err, &spamErr) {
		return http.StatusUnprocessableEntity
	}
	var stateErr *InvalidFlagStateError
	if errors.As(err, &stateErr) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrDuplicateFlag) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrDependencyUnavailable) {
		return http.StatusServiceUnavailable
	}
	// Default to internal server error
	return http.StatusInternalServerError
}
