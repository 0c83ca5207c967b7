package shared

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a DomainError for HTTP mapping and retry policy:
// Validation, Auth, NotFound, Conflict, RateLimit, Transient, Fatal.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindAuth       ErrorKind = "auth"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindRateLimit  ErrorKind = "rate_limit"
	KindTransient  ErrorKind = "transient"
	KindFatal      ErrorKind = "fatal"
)

// DomainError is the base error type for all domain errors, carrying enough
// information for the dispatcher to map it onto an HTTP status and mirror it
// into the caller's event stream.
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// HTTPStatus maps the error kind onto the request/response envelope's status
// codes (400 validation, 403 auth, 404 not found, 409 conflict, 429 rate
// limited, 500 otherwise).
func (e *DomainError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return 400
	case KindAuth:
		return 403
	case KindNotFound:
		return 404
	case KindConflict:
		return 409
	case KindRateLimit:
		return 429
	default:
		return 500
	}
}

func NewDomainError(kind ErrorKind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

// ValidationError — malformed input, missing fields, enum violations.
type ValidationError struct {
	*DomainError
	Field string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		DomainError: NewDomainError(KindValidation, fmt.Sprintf("%s: %s", field, message)),
		Field:       field,
	}
}

func (e *ValidationError) Unwrap() error { return e.DomainError }

// AuthError — token absent, or actor/character mismatch without admin override.
type AuthError struct {
	*DomainError
}

func NewAuthError(message string) *AuthError {
	return &AuthError{DomainError: NewDomainError(KindAuth, message)}
}

func (e *AuthError) Unwrap() error { return e.DomainError }

// NotFoundError — entity absent.
type NotFoundError struct {
	*DomainError
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		DomainError: NewDomainError(KindNotFound, fmt.Sprintf("%s %s not found", entity, id)),
		Entity:      entity,
		ID:          id,
	}
}

func (e *NotFoundError) Unwrap() error { return e.DomainError }

// ConflictError — state precondition failed (in transit, encounter ended,
// insufficient resource, not in expected sector).
type ConflictError struct {
	*DomainError
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{DomainError: NewDomainError(KindConflict, message)}
}

func (e *ConflictError) Unwrap() error { return e.DomainError }

// InsufficientResourceError generalizes the teacher's InsufficientFuelError to
// any depletable resource (warp power, fighters, cargo space, credits).
type InsufficientResourceError struct {
	*ConflictError
	Resource  string
	Required  int
	Available int
}

func NewInsufficientResourceError(resource string, required, available int) *InsufficientResourceError {
	return &InsufficientResourceError{
		ConflictError: NewConflictError(fmt.Sprintf("insufficient %s: need %d, have %d", resource, required, available)),
		Resource:      resource,
		Required:      required,
		Available:     available,
	}
}

// RateLimitError — per-(character,method) rate limit exceeded.
type RateLimitError struct {
	*DomainError
	RetryAfter time.Duration
}

func NewRateLimitError(retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{
		DomainError: NewDomainError(KindRateLimit, fmt.Sprintf("rate limited, retry after %s", retryAfter)),
		RetryAfter:  retryAfter,
	}
}

func (e *RateLimitError) Unwrap() error { return e.DomainError }

// TransientError — transport or store blip, retried by the layer that owns
// the resource; only surfaced after that layer's retry budget is exhausted.
type TransientError struct {
	*DomainError
	Cause error
}

func NewTransientError(message string, cause error) *TransientError {
	return &TransientError{DomainError: NewDomainError(KindTransient, message), Cause: cause}
}

func (e *TransientError) Unwrap() error { return e.Cause }

// FatalError — an invariant was violated; the request terminates without
// further mutation.
type FatalError struct {
	*DomainError
}

func NewFatalError(message string) *FatalError {
	return &FatalError{DomainError: NewDomainError(KindFatal, message)}
}

func (e *FatalError) Unwrap() error { return e.DomainError }

// StatusOf extracts the HTTP status implied by err, defaulting to 500 for any
// error that does not carry a *DomainError in its chain.
func StatusOf(err error) int {
	var de *DomainError
	if errors.As(err, &de) {
		return de.HTTPStatus()
	}
	return 500
}

// KindOf extracts the ErrorKind of err, defaulting to Fatal when err carries
// no DomainError.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindFatal
}
