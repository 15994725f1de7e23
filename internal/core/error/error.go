package errx

import (
	"errors"
	"fmt"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// WarehouseErrorMessage describes warehouse operation failures.
	WarehouseErrorMessage = "warehouse operation failed"
	// WarehouseTimeoutMessage describes a query that exceeded its time budget.
	WarehouseTimeoutMessage = "warehouse query timed out"
	// HistoryErrorMessage describes watch-history store failures.
	HistoryErrorMessage = "watch history operation failed"
)

// Status codes carried by AppError. HTTP-flavoured so callers embedding the
// workflow behind a web front end can map them directly.
const (
	StatusInternal    = 500
	StatusBadGateway  = 502
	StatusTimeout     = 504
	StatusNotFound    = 404
	StatusUnavailable = 503
)

// AppError wraps an underlying error with a status code and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
