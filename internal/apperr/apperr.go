// Package apperr defines the closed set of error kinds surfaced by the API.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	InternalError Kind = iota
	Unauthenticated
	InvalidCredential
	TenantHeaderMissing
	TenantMismatch
	Forbidden
	NotFound
	ValidationFailed
	Conflict
	RateLimited
	ClassificationUnavailable
	IngestionFailed
)

type kindInfo struct {
	code    string
	status  int
	message string
}

var kinds = map[Kind]kindInfo{
	InternalError:             {"INTERNAL_ERROR", http.StatusInternalServerError, "An internal error occurred"},
	Unauthenticated:           {"UNAUTHENTICATED", http.StatusUnauthorized, "No token provided"},
	InvalidCredential:         {"INVALID_CREDENTIAL", http.StatusUnauthorized, "Invalid token"},
	TenantHeaderMissing:       {"TENANT_HEADER_MISSING", http.StatusBadRequest, "Tenant ID is required"},
	TenantMismatch:            {"TENANT_MISMATCH", http.StatusForbidden, "Unauthorized tenant access"},
	Forbidden:                 {"FORBIDDEN", http.StatusForbidden, "Insufficient permissions"},
	NotFound:                  {"NOT_FOUND", http.StatusNotFound, "Resource not found"},
	ValidationFailed:          {"VALIDATION_FAILED", http.StatusBadRequest, "Invalid request"},
	Conflict:                  {"CONFLICT", http.StatusConflict, "Resource already exists"},
	RateLimited:               {"RATE_LIMITED", http.StatusTooManyRequests, "Rate limit exceeded"},
	ClassificationUnavailable: {"CLASSIFICATION_UNAVAILABLE", http.StatusInternalServerError, "Failed to classify email"},
	IngestionFailed:           {"INGESTION_FAILED", http.StatusInternalServerError, "Failed to create email"},
}

// Code returns the stable machine-readable code.
func (k Kind) Code() string {
	return k.info().code
}

// HTTPStatus returns the status code the kind maps to.
func (k Kind) HTTPStatus() int {
	return k.info().status
}

// DefaultMessage returns the client-facing message used when none is given.
func (k Kind) DefaultMessage() string {
	return k.info().message
}

func (k Kind) String() string {
	return k.Code()
}

func (k Kind) info() kindInfo {
	if info, ok := kinds[k]; ok {
		return info
	}
	return kinds[InternalError]
}

// Error is an error tagged with a Kind.
// Message is safe to show to clients; Err is kept for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.DefaultMessage()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// PublicMessage returns the message to send to clients.
func (e *Error) PublicMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.DefaultMessage()
}

// New returns an error of kind with a client-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap tags err with kind. The message of err is not shown to clients.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Wrapf tags err with kind and a client-facing message.
func Wrapf(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of err, or InternalError for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return InternalError
}

// As returns the first *Error in err's chain, or a generic internal error.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: InternalError, Err: err}
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthenticated     = &Error{Kind: Unauthenticated}
	ErrInvalidCredential   = &Error{Kind: InvalidCredential}
	ErrTenantHeaderMissing = &Error{Kind: TenantHeaderMissing}
	ErrTenantMismatch      = &Error{Kind: TenantMismatch}
	ErrNotFound            = &Error{Kind: NotFound}
)
