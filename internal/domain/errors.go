package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation targets a booking that is not in
// the operator's current snapshot. No remote call is made in that case.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails a business rule (unknown
// status, end date not after start date, ...).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUnauthenticated is returned by session restore when no usable session
// marker is present.
var ErrUnauthenticated = errors.New("not authenticated")

// ErrConfirmationRequired is returned by a delete that was not explicitly
// confirmed by the operator.
var ErrConfirmationRequired = errors.New("confirmation required")

// AuthError reports rejected credentials or a failing login endpoint.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "auth error: " + e.Message
}

// ConnectivityError reports a transport-level failure reaching the remote
// booking API (DNS, refused connection, timeout, unreadable body).
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connectivity error: %s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// ServerRejection reports a non-success response from the remote API.
// Message is the server-provided error text when one was sent, otherwise a
// generic fallback chosen by the caller.
type ServerRejection struct {
	StatusCode int
	Message    string
}

func (e *ServerRejection) Error() string {
	return fmt.Sprintf("server rejected request (status %d): %s", e.StatusCode, e.Message)
}

// DeliveryError reports a failed email dispatch. It never rolls back the
// booking change that triggered the email.
type DeliveryError struct {
	Template string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("email delivery failed (template %q): %v", e.Template, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
