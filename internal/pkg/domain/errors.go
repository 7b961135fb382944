package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error for transport-layer mapping.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindNotFound            ErrorKind = "not_found"
	KindDriverNotFound      ErrorKind = "driver_not_found"
	KindConflict            ErrorKind = "conflict"
	KindForbidden           ErrorKind = "forbidden"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	KindInternal            ErrorKind = "internal"
)

// Error is the typed error used across the service. Handlers map its Kind to
// HTTP status codes; everything else treats it as a plain error.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// NewValidationError reports malformed or out-of-range input.
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NewNotFoundError reports an absent entity by type and identifier.
func NewNotFoundError(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", entity, id)}
}

// NewDriverNotFoundError reports that the identity service does not know the driver.
func NewDriverNotFoundError(driverID string) *Error {
	return &Error{Kind: KindDriverNotFound, Message: fmt.Sprintf("driver not found: %s", driverID)}
}

// NewConflictError reports a concurrent-modification conflict.
func NewConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NewForbiddenError reports an operation on a resource the caller does not own.
func NewForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// NewUnauthorizedError reports missing or invalid credentials.
func NewUnauthorizedError(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// NewUpstreamUnavailableError reports that a dependency could not be reached.
// Distinct from DriverNotFound: an identity-service outage must not read as
// "driver does not exist".
func NewUpstreamUnavailableError(service string, cause error) *Error {
	return &Error{
		Kind:    KindUpstreamUnavailable,
		Message: fmt.Sprintf("%s unavailable", service),
		cause:   cause,
	}
}

// KindOf extracts the ErrorKind from err, or KindInternal for untyped errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
