// Package apperrors is the error taxonomy shared by services and handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeValidation   Code = "VALIDATION_FAILED"
	CodeConflict     Code = "CONFLICT"
	CodeUpstream     Code = "UPSTREAM_ERROR"
	CodeUnavailable  Code = "UNAVAILABLE"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// AppError carries a taxonomy code, a caller-safe message and the HTTP status
// it is reported with. Err is never shown to the caller.
type AppError struct {
	Code     Code   `json:"code"`
	Message  string `json:"error"`
	Details  any    `json:"details,omitempty"`
	Err      error  `json:"-"`
	HTTPCode int    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any AppError with the same code, so errors.Is(err, ErrNotFound) works
// for every resource.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func New(code Code, message string, httpCode int) *AppError {
	return &AppError{Code: code, Message: message, HTTPCode: httpCode}
}

func Wrap(err error, code Code, message string, httpCode int) *AppError {
	return &AppError{Code: code, Message: message, Err: err, HTTPCode: httpCode}
}

var (
	ErrUnauthorized = New(CodeUnauthorized, "Unauthorized: please log in", http.StatusUnauthorized)
	ErrInvalidToken = New(CodeUnauthorized, "Invalid or expired token", http.StatusUnauthorized)
	ErrForbidden    = New(CodeForbidden, "Access denied: insufficient permissions", http.StatusForbidden)
	ErrNotFound     = New(CodeNotFound, "Resource not found", http.StatusNotFound)
	ErrValidation   = New(CodeValidation, "Validation failed", http.StatusBadRequest)
	ErrConflict     = New(CodeConflict, "Conflict", http.StatusConflict)
	ErrUpstream     = New(CodeUpstream, "Upstream service failure", http.StatusBadGateway)
	ErrInternal     = New(CodeInternal, "Internal server error", http.StatusInternalServerError)
)

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, resource+" not found", http.StatusNotFound)
}

func Validation(message string, details any) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Details: details, HTTPCode: http.StatusBadRequest}
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

func Upstream(err error, message string) *AppError {
	return Wrap(err, CodeUpstream, message, http.StatusBadGateway)
}

func Unavailable(message string) *AppError {
	return New(CodeUnavailable, message, http.StatusServiceUnavailable)
}

func Internal(err error) *AppError {
	return Wrap(err, CodeInternal, "Internal server error", http.StatusInternalServerError)
}

// From returns err as an *AppError, wrapping anything unknown as Internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
