package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the kind of failure a call ended with
type ErrorType string

const (
	// ErrorTypeConfiguration indicates unusable endpoint settings; no request was sent
	ErrorTypeConfiguration ErrorType = "configuration_error"
	// ErrorTypeInvalidInput indicates a blank text or an unknown action
	ErrorTypeInvalidInput ErrorType = "invalid_input"
	// ErrorTypeRateLimited indicates the upstream answered 429
	ErrorTypeRateLimited ErrorType = "rate_limited"
	// ErrorTypeTransport indicates the request never produced a usable response
	ErrorTypeTransport ErrorType = "transport_error"
	// ErrorTypeHTTPStatus indicates a non-2xx status other than 429
	ErrorTypeHTTPStatus ErrorType = "http_status_error"
	// ErrorTypeProtocol indicates a 2xx response whose body has neither known shape
	ErrorTypeProtocol ErrorType = "protocol_error"
)

// ErrCancelled marks a call that was aborted by its caller. It is not a failure.
var ErrCancelled = errors.New("request cancelled")

// Error is the typed failure returned by the request client
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	// StatusCode is the upstream HTTP status, 0 when no response was received
	StatusCode int `json:"status_code,omitempty"`
	// Attempts is the number of HTTP calls made before giving up
	Attempts int `json:"attempts,omitempty"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	return msg
}

// Unwrap implements the error unwrapping interface
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt may succeed
func (e *Error) Retryable() bool {
	switch e.Type {
	case ErrorTypeRateLimited, ErrorTypeTransport, ErrorTypeHTTPStatus:
		return true
	default:
		return false
	}
}

// HTTPStatusCode returns the status a server should answer with for this error
func (e *Error) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeConfiguration, ErrorTypeInvalidInput:
		return http.StatusBadRequest
	case ErrorTypeRateLimited:
		return http.StatusServiceUnavailable
	case ErrorTypeTransport:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string, err error) *Error {
	return &Error{Type: ErrorTypeConfiguration, Message: message, Err: err}
}

// NewInvalidInputError creates an input validation error
func NewInvalidInputError(message string) *Error {
	return &Error{Type: ErrorTypeInvalidInput, Message: message}
}

// NewRateLimitedError creates a rate limit error
func NewRateLimitedError(message string) *Error {
	return &Error{Type: ErrorTypeRateLimited, Message: message, StatusCode: http.StatusTooManyRequests}
}

// NewTransportError creates a transport error
func NewTransportError(message string, err error) *Error {
	return &Error{Type: ErrorTypeTransport, Message: message, Err: err}
}

// NewHTTPStatusError creates an error for an unexpected upstream status
func NewHTTPStatusError(statusCode int, message string) *Error {
	return &Error{Type: ErrorTypeHTTPStatus, Message: message, StatusCode: statusCode}
}

// NewProtocolError creates an error for an unrecognized response body
func NewProtocolError(message string, err error) *Error {
	return &Error{Type: ErrorTypeProtocol, Message: message, Err: err}
}

// Cancelled wraps cause so that IsCancelled reports true for it
func Cancelled(cause error) error {
	if cause == nil {
		return ErrCancelled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}

// IsCancelled reports whether err is a cancellation rather than a failure
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// AsError extracts *Error from err
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsType reports whether err is an *Error of the given type
func IsType(err error, t ErrorType) bool {
	e, ok := AsError(err)
	return ok && e.Type == t
}

// IsRetryable reports whether err is a retryable *Error
func IsRetryable(err error) bool {
	e, ok := AsError(err)
	return ok && e.Retryable()
}
