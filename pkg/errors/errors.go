// Package errors defines the typed errors every layer returns and the HTTP
// status each one maps to.
package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// Error is the error shape rendered in API responses.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Err == nil:
		return e.Message
	default:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is compares by Code, so a Clone or Wrap matches the sentinel it came from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t != nil && e.Code == t.Code
}

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap keeps err as the cause behind a client-facing code and message.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrIdentityMismatch   = New("IDENTITY_MISMATCH", http.StatusUnauthorized, "user authentication mismatch")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")

	ErrValidation     = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrReasonRequired = New("REASON_REQUIRED", http.StatusBadRequest, "rejection reason is required")
	ErrMissingEmail   = New("MISSING_EMAIL", http.StatusUnprocessableEntity, "applicant email not found in application")

	ErrNotFound        = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrProfileNotFound = New("PROFILE_NOT_FOUND", http.StatusNotFound, "user profile not found")
	ErrConflict        = New("CONFLICT", http.StatusConflict, "conflict")
	ErrRateLimited     = New("RATE_LIMITED", http.StatusTooManyRequests, "too many requests")

	ErrStore     = New("STORE_ERROR", http.StatusInternalServerError, "data store error")
	ErrTransport = New("TRANSPORT_ERROR", http.StatusBadGateway, "upstream transport error")
	ErrTimeout   = New("TIMEOUT", http.StatusGatewayTimeout, "request timed out")
	ErrInternal  = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	// ErrCacheMiss never reaches clients; cache readers use it to signal absence.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

func Store(err error, message string) *Error {
	return Wrap(err, ErrStore.Code, ErrStore.Status, message)
}

// Transport wraps a failed call to mail, storage or another outbound dependency.
func Transport(err error, message string) *Error {
	return Wrap(err, ErrTransport.Code, ErrTransport.Status, message)
}

func Validation(err error, message string) *Error {
	return Wrap(err, ErrValidation.Code, ErrValidation.Status, message)
}

// FromError converts anything into an *Error. Typed errors pass through;
// sql.ErrNoRows becomes NOT_FOUND and an expired context becomes TIMEOUT.
// Everything else is reported as INTERNAL_ERROR with the cause kept for logs.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Wrap(err, ErrNotFound.Code, ErrNotFound.Status, ErrNotFound.Message)
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrTimeout.Code, ErrTimeout.Status, ErrTimeout.Message)
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies a sentinel, optionally replacing its message.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	out := *err
	if message != "" {
		out.Message = message
	}
	return &out
}
