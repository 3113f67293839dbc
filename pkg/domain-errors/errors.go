// Package domainerrors provides code-classified errors for domain and
// service layers. Handlers translate codes to HTTP statuses at the boundary;
// services and stores only ever deal in codes.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for boundary translation and retry policy.
type Code string

const (
	// Generic codes shared across domains.
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeInvariantViolation Code = "invariant_violation"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeInternal           Code = "internal_error"

	// Payment domain codes. Propagation policy: the caller may recover from
	// payment_in_progress, stale_installment and stale_quote by re-fetching
	// the schedule or quote; the service never retries on its own.
	CodeInvalidSchedule   Code = "invalid_schedule"
	CodeUnauthorizedState Code = "unauthorized_state"
	CodePaymentInProgress Code = "payment_in_progress"
	CodeStaleInstallment  Code = "stale_installment"
	CodeStaleQuote        Code = "stale_quote"
	CodePaymentGateway    Code = "payment_gateway_error"
)

// Error is a domain error carrying a classification code. The message is
// safe to return to callers except for CodeInternal, which boundaries must
// redact.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is lets errors.Is match domain errors by code (and message, when the
// target specifies one) instead of pointer identity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Code != t.Code {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/As inspection.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unclassified errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-safe message from err. Unclassified and
// internal errors yield an empty message so boundaries never leak details.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Code != CodeInternal {
		return de.Message
	}
	return ""
}
