package apperror

import (
	"errors"
	"net/http"
)

// Error is a request-level error with an HTTP status code. Handlers translate
// it into the standard JSON error body; anything that is not an *Error is
// treated as an internal server error so driver errors never leak to clients.
type Error struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(statusCode int, message string) *Error {
	return &Error{StatusCode: statusCode, Message: message}
}

// BadRequest is a 400 error for malformed or rejected input.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Conflict is a 400 error for duplicate username/email. The original API
// surfaces conflicts as 400, not 409, so clients see one failure shape.
func Conflict(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Unauthorized is a 401 error for missing or invalid session credentials.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// NotFound is a 404 error.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Server is a 500 error wrapping an infrastructure failure.
func Server(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

// From extracts an *Error from err, or wraps it as a generic server error.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Server("Something went wrong. Try again")
}
