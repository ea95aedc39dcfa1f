// Package validate checks and normalizes user supplied input.
package validate

import (
	"errors"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Validation limits.
const (
	// MaxSubjectLength follows the RFC 5322 line limit.
	MaxSubjectLength = 998
	// MaxBodyLength is the largest body accepted, in bytes.
	MaxBodyLength = 512 * 1024
	// MaxAddressLength is the longest mailbox address.
	MaxAddressLength = 320
	// MaxNameLength bounds user and tenant names.
	MaxNameLength = 200
	// MaxTaskTitleLength bounds task titles.
	MaxTaskTitleLength = 500
)

// Validation errors.
var (
	ErrRequired        = errors.New("is required")
	ErrTooLong         = errors.New("exceeds maximum length")
	ErrInvalidAddress  = errors.New("is not a valid email address")
	ErrInvalidEncoding = errors.New("is not valid UTF-8")
)

// FieldError is a validation failure on one input field.
type FieldError struct {
	Field string
	Err   error
}

func (e FieldError) Error() string {
	return e.Field + " " + e.Err.Error()
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// Errors collects field errors in input order.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// Add records err for field when err is not nil.
func (e *Errors) Add(field string, err error) {
	if err != nil {
		*e = append(*e, FieldError{Field: field, Err: err})
	}
}

// Err returns nil when no errors were recorded.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Address validates a single mailbox such as "Alice <alice@example.com>"
// and returns the bare address.
func Address(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrRequired
	}
	if len(s) > MaxAddressLength {
		return "", ErrTooLong
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", ErrInvalidAddress
	}
	return addr.Address, nil
}

// OptionalAddress is Address that accepts an empty value.
func OptionalAddress(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return Address(s)
}

// Text checks that s is valid UTF-8 of at most maxLen bytes.
// required rejects empty or blank values.
func Text(s string, maxLen int, required bool) error {
	if required && strings.TrimSpace(s) == "" {
		return ErrRequired
	}
	if len(s) > maxLen {
		return ErrTooLong
	}
	if !utf8.ValidString(s) {
		return ErrInvalidEncoding
	}
	return nil
}

// Password checks the minimum length of a new password.
func Password(s string, minLen int) error {
	if s == "" {
		return ErrRequired
	}
	if utf8.RuneCountInString(s) < minLen {
		return errors.New("must be at least " + strconv.Itoa(minLen) + " characters")
	}
	return nil
}
