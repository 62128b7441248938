package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind names an error class. The value is what clients see in the "error" field.
type Kind string

const (
	KindValidation      Kind = "Bad Request"
	KindUnauthorized    Kind = "Unauthorized"
	KindNotFound        Kind = "Not Found"
	KindConflict        Kind = "Conflict"
	KindTooManyRequests Kind = "Too Many Requests"
	KindInternal        Kind = "Internal Server Error"
	KindTimeout         Kind = "Gateway Timeout"
)

var statusByKind = map[Kind]int{
	KindValidation:      http.StatusBadRequest,
	KindUnauthorized:    http.StatusUnauthorized,
	KindNotFound:        http.StatusNotFound,
	KindConflict:        http.StatusConflict,
	KindTooManyRequests: http.StatusTooManyRequests,
	KindInternal:        http.StatusInternalServerError,
	KindTimeout:         http.StatusGatewayTimeout,
}

// AppError is a typed error returned by services. Message is safe to show to
// callers; the wrapped cause is only reachable through errors.Is/As.
type AppError struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// StatusCode returns the HTTP status for the error kind.
func (e *AppError) StatusCode() int {
	if code, ok := statusByKind[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// NewValidationError creates a 400-class error.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

// NewUnauthorizedError creates a 401-class error.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

// NewNotFoundError creates a 404-class error.
func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

// NewConflictError creates a 409-class error.
func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// NewTooManyRequestsError creates a 429-class error.
func NewTooManyRequestsError(message string) *AppError {
	return &AppError{Kind: KindTooManyRequests, Message: message}
}

// NewInternalError wraps cause behind a generic message.
func NewInternalError(message string, cause error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, cause: cause}
}

// NewTimeoutError creates a 504-class error.
func NewTimeoutError(message string, cause error) *AppError {
	return &AppError{Kind: KindTimeout, Message: message, cause: cause}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// ErrorResponse is the envelope for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// SuccessResponse is the envelope for every successful request.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Kind       Kind
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error:   string(e.Kind),
		Message: e.Message,
	}
}

// MapErrorToHTTP maps any error to an HTTP error. Unknown errors never leak
// their text.
func MapErrorToHTTP(err error) *HTTPError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &HTTPError{StatusCode: appErr.StatusCode(), Kind: appErr.Kind, Message: appErr.Message}
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return &HTTPError{
			StatusCode: echoErr.Code,
			Kind:       kindForStatus(echoErr.Code),
			Message:    fmt.Sprint(echoErr.Message),
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &HTTPError{StatusCode: http.StatusGatewayTimeout, Kind: KindTimeout, Message: "The request timed out."}
	}

	return &HTTPError{
		StatusCode: http.StatusInternalServerError,
		Kind:       KindInternal,
		Message:    "An error occurred while processing your request.",
	}
}

func kindForStatus(code int) Kind {
	for kind, status := range statusByKind {
		if status == code {
			return kind
		}
	}
	if text := http.StatusText(code); text != "" {
		return Kind(text)
	}
	return KindInternal
}
