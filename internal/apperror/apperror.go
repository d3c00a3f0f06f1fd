// Package apperror carries an error category alongside a client-facing
// message so the HTTP layer can pick a status code.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Type is the category of an error.
type Type string

const (
	// TypeValidation indicates invalid input (HTTP 400)
	TypeValidation Type = "validation"
	// TypeNotFound indicates a missing resource (HTTP 404)
	TypeNotFound Type = "not_found"
	// TypeInternal indicates a server-side failure (HTTP 500)
	TypeInternal Type = "internal"
)

// Error is an error with a category and a message safe to show clients.
type Error struct {
	Type    Type
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the category to a status code.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Validation creates a validation error (HTTP 400).
func Validation(message string) *Error {
	return &Error{Type: TypeValidation, Message: message}
}

// ValidationCause creates a validation error that keeps its cause for logs.
func ValidationCause(message string, cause error) *Error {
	return &Error{Type: TypeValidation, Message: message, Cause: cause}
}

// NotFound creates a not-found error (HTTP 404).
func NotFound(message string) *Error {
	return &Error{Type: TypeNotFound, Message: message}
}

// Internal creates an internal error (HTTP 500).
func Internal(message string, cause error) *Error {
	return &Error{Type: TypeInternal, Message: message, Cause: cause}
}

// Response is the JSON body sent to clients.
type Response struct {
	Error string `json:"error"`
}

// ToResponse drops the cause; it is for logs only.
func (e *Error) ToResponse() Response {
	return Response{Error: e.Message}
}

// As returns err as an *Error, wrapping anything else as internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal server error", err)
}
