package apperror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrBadRequest        = errors.New("bad request")
	ErrInternal          = errors.New("internal server error")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	ErrInvalidLink      = errors.New("invalid community link")
	ErrInvalidCommunity = errors.New("invalid community id")
	ErrMemberFetch      = errors.New("failed to fetch members")
	ErrNoPreviousQuery  = errors.New("no previous community query")
	ErrFeatureDisabled  = errors.New("feature is not enabled")
)

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
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrInvalidLink) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidCommunity) || errors.Is(err, ErrNoPreviousQuery) || errors.Is(err, ErrFeatureDisabled) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrRateLimitExceeded) {
		return http.StatusTooManyRequests
	}
	if errors.Is(err, ErrMemberFetch) {
		return http.StatusBadGateway
	}
	// Default to internal server error
	return http.StatusInternalServerError
}
