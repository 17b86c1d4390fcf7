package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code classifies an error for transport mapping and retry policy. Handlers
// never branch on error strings, only on codes.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMITED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code surfaces at the HTTP boundary. When
// DetailsAllowed is false the response carries only the public message, so
// internal failure detail never leaks to shoppers.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

// MetadataFor resolves the transport metadata for a code. Unknown codes are
// treated as internal failures.
func MetadataFor(code Code) Metadata {
	switch code {
	case CodeValidation:
		return Metadata{HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true}
	case CodeUnauthorized:
		return Metadata{HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required", DetailsAllowed: true}
	case CodeForbidden:
		return Metadata{HTTPStatus: http.StatusForbidden, PublicMessage: "access denied"}
	case CodeNotFound:
		return Metadata{HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"}
	case CodeConflict:
		return Metadata{HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected", DetailsAllowed: true}
	case CodeStateConflict:
		return Metadata{HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "state transition disallowed", DetailsAllowed: true}
	case CodeIdempotency:
		return Metadata{HTTPStatus: http.StatusConflict, PublicMessage: "idempotency key reused", DetailsAllowed: true}
	case CodeRateLimit:
		return Metadata{HTTPStatus: http.StatusTooManyRequests, Retryable: true, PublicMessage: "rate limit exceeded"}
	case CodeDependency:
		return Metadata{HTTPStatus: http.StatusServiceUnavailable, Retryable: true, PublicMessage: "dependency unavailable", DetailsAllowed: true}
	default:
		return Metadata{HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "internal server error"}
	}
}

// Error is the coded error carried through service and repository layers.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

// New builds a coded error with no cause.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and context message to an underlying error, keeping
// the cause reachable through errors.Is / errors.As.
func Wrap(code Code, cause error, message string) *Error {
	return &Error{code: code, message: message, cause: cause}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches structured detail for codes whose metadata allows
// surfacing it.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the coded error from a chain, or nil when there is none.
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
