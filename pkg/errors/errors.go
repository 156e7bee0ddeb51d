package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched with errors.Is.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrServiceUnavail   = errors.New("service unavailable")
	ErrOperationFailed  = errors.New("operation failed")
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// Error codes carried in JSON error bodies.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeConflict         = "CONFLICT"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
	CodeOperationFailed  = "OPERATION_FAILED"
	CodeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	CodeInternal         = "INTERNAL_ERROR"
)

// kinds maps each sentinel to its code and status.
var kinds = []struct {
	sentinel error
	code     string
	status   int
}{
	{ErrNotFound, CodeNotFound, http.StatusNotFound},
	{ErrInvalidInput, CodeInvalidInput, http.StatusBadRequest},
	{ErrConflict, CodeConflict, http.StatusConflict},
	{ErrServiceUnavail, CodeUnavailable, http.StatusServiceUnavailable},
	{ErrOperationFailed, CodeOperationFailed, http.StatusBadGateway},
	{ErrUnsupportedMedia, CodeUnsupportedMedia, http.StatusUnsupportedMediaType},
}

// AppError is an error with a stable code, a user-facing message and the
// HTTP status it maps to.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newKind(sentinel error, message string) *AppError {
	for _, k := range kinds {
		if k.sentinel == sentinel {
			return &AppError{Code: k.code, Message: message, Status: k.status, Err: sentinel}
		}
	}
	return &AppError{Code: CodeInternal, Message: message, Status: http.StatusInternalServerError, Err: sentinel}
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *AppError {
	return newKind(ErrNotFound, fmt.Sprintf("%s with id %s not found", resource, id))
}

// InvalidInput reports a request the caller must correct.
func InvalidInput(message string) *AppError {
	return newKind(ErrInvalidInput, message)
}

// Conflict reports a write rejected because of the resource's current state.
func Conflict(message string) *AppError {
	return newKind(ErrConflict, message)
}

// Unavailable reports a dependency that is temporarily unable to serve.
func Unavailable(message string) *AppError {
	return newKind(ErrServiceUnavail, message)
}

// UnsupportedMediaType reports a request body in a format the endpoint does
// not accept.
func UnsupportedMediaType(message string) *AppError {
	return newKind(ErrUnsupportedMedia, message)
}

// OperationFailed reports a backend failure with a user-facing message only.
// The cause is not attached; callers log it.
func OperationFailed(message string) *AppError {
	return newKind(ErrOperationFailed, message)
}

// Internal wraps an unexpected failure. Its message never exposes err.
func Internal(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// HTTPStatus returns the status err maps to; unknown errors are 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// CodeOf returns the error code err maps to; unknown errors are INTERNAL_ERROR.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.code
		}
	}
	return CodeInternal
}
