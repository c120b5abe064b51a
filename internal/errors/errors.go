// Package errors provides standardized domain errors with codes for the TrustWave API.
//
// Usage:
//
//	// In services - return typed errors
//	if ev.Kind != nostr.KindReaction {
//	    return errors.Validation("event is not a reaction")
//	}
//
//	// Relay rejections keep the relay's reason verbatim
//	if !accepted {
//	    return errors.Authorization(reason)
//	}
//
//	// Callers treat partial data as success with a reduced result set
//	if errors.Is(err, errors.ErrPartialData) {
//	    logger.Warn("partial result", "count", len(events))
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeValidation    Code = "VALIDATION"
	CodeConflict      Code = "CONFLICT"
	CodeInternal      Code = "INTERNAL"

	// CodeTransport means a relay or the external index could not be reached.
	CodeTransport Code = "TRANSPORT"
	// CodeAuthorization means a relay rejected a publish (signature, policy).
	CodeAuthorization Code = "AUTHORIZATION"
	// CodePartialData means some but not all batches of a multi-fetch succeeded.
	CodePartialData Code = "PARTIAL_DATA"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	case CodeTransport:
		return http.StatusBadGateway
	case CodeAuthorization:
		return http.StatusForbidden
	case CodePartialData:
		return http.StatusPartialContent
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound      = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation    = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict      = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal      = &Error{Code: CodeInternal, Message: "internal error"}
	ErrTransport     = &Error{Code: CodeTransport, Message: "transport error"}
	ErrAuthorization = &Error{Code: CodeAuthorization, Message: "publish rejected"}
	ErrPartialData   = &Error{Code: CodePartialData, Message: "partial data"}
)

// NotFound creates a not found error with a custom message.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// NotFoundf creates a not found error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error with a custom message.
func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error with a custom message.
func Internal(message string) *Error {
	return &Error{Code: CodeInternal, Message: message}
}

// Transport creates a transport error wrapping the network failure.
func Transport(message string, cause error) *Error {
	return &Error{Code: CodeTransport, Message: message, cause: cause}
}

// Transportf creates a transport error with a formatted message.
func Transportf(format string, args ...any) *Error {
	return &Error{Code: CodeTransport, Message: fmt.Sprintf(format, args...)}
}

// Authorization creates an authorization error carrying the store's rejection reason verbatim.
func Authorization(reason string) *Error {
	if reason == "" {
		reason = "publish rejected"
	}
	return &Error{Code: CodeAuthorization, Message: reason}
}

// PartialData creates a partial data error. Received is the number of records
// that did arrive and is exposed through Details.
func PartialData(message string, received int, cause error) *Error {
	return &Error{
		Code:    CodePartialData,
		Message: message,
		Details: map[string]int{"received": received},
		cause:   cause,
	}
}

// Wrap wraps an error with a domain error code and message.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// GetCode extracts the error code from an error, or returns CodeInternal if not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsRetryable reports whether the caller may retry the operation that produced err.
// Only transport failures are retryable; rejections are surfaced as-is.
func IsRetryable(err error) bool {
	return GetCode(err) == CodeTransport
}
