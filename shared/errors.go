package shared

import (
	"errors"
	"net/http"
)

// ErrorKind classifies every failure raised by the application into
// exactly one bucket with a fixed HTTP status.
type ErrorKind string

const (
	KindValidation     ErrorKind = "VALIDATION"
	KindAuthentication ErrorKind = "AUTHENTICATION"
	KindAuthorization  ErrorKind = "AUTHORIZATION"
	KindNotFound       ErrorKind = "NOT_FOUND"
	KindConflict       ErrorKind = "CONFLICT"
	KindRateLimit      ErrorKind = "RATE_LIMIT"
	KindDatabase       ErrorKind = "DATABASE"
	KindSystem         ErrorKind = "SYSTEM"
)

// StatusCode maps an error kind to its HTTP status.
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the single error type crossing component boundaries.
// Operational errors carry a message safe to show to the end user as-is;
// everything else collapses to a generic message in production.
type AppError struct {
	Kind        ErrorKind
	Message     string
	Err         error
	Operational bool
	Details     interface{}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.Kind.StatusCode()
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// GetAppError unwraps err to an *AppError if one is in the chain.
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NewValidationError(err error, message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Err: err, Operational: true}
}

func NewAuthenticationError(err error, message string) *AppError {
	return &AppError{Kind: KindAuthentication, Message: message, Err: err, Operational: true}
}

func NewAuthorizationError(err error, message string) *AppError {
	return &AppError{Kind: KindAuthorization, Message: message, Err: err, Operational: true}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message, Err: err, Operational: true}
}

func NewConflictError(err error, message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message, Err: err, Operational: true}
}

func NewRateLimitError(err error, message string) *AppError {
	return &AppError{Kind: KindRateLimit, Message: message, Err: err, Operational: true}
}

func NewDatabaseError(err error, message string) *AppError {
	return &AppError{Kind: KindDatabase, Message: message, Err: err, Operational: false}
}

func NewInternalError(err error, message string) *AppError {
	return &AppError{Kind: KindSystem, Message: message, Err: err, Operational: false}
}

func NewBadRequestError(err error, message string) *AppError {
	return NewValidationError(err, message)
}
