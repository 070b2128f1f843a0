// Package dtoerr defines the tagged error type shared by services and the
// HTTP edge. Services never choose an HTTP status directly; they return a
// *Error carrying a Kind, and internal/httpapi maps Kind to status once.
package dtoerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport-layer mapping.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindRateLimit      Kind = "rate_limit"
	KindConflict       Kind = "conflict"
	KindInfrastructure Kind = "infrastructure"
)

// Error is the tagged domain error. Code is a stable machine-readable
// constant (e.g. "EXCEEDED_SEND_LIMIT"); Message is safe to return verbatim
// to a caller.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds a tagged error with Code used as both code and message.
func New(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code, Message: code}
}

// Wrap tags an existing error with a kind and stable code, preserving it as
// Cause for %w-style unwrapping and logging.
func Wrap(err error, kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code, Message: code, Cause: err}
}

// As extracts a *Error from err, if present.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err if it (or something it wraps) is a *Error,
// otherwise KindInfrastructure — unclassified errors are treated as
// infrastructure failures and mapped to 500 without leaking internal text.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInfrastructure
}

// Common validation/auth codes referenced by spec.md §7.
const (
	CodeInvalidPredictionFormat = "INVALID_PREDICTION_FORMAT"
	CodeInvalidPhone            = "INVALID_PHONE_NUMBER"
	CodeInvalidCode             = "INVALID_CODE_FORMAT"

	CodeMissingAccessToken  = "MISSING_ACCESS_TOKEN"
	CodeInvalidOrExpired    = "INVALID_OR_EXPIRED_TOKEN"
	CodeSessionIPMismatch   = "SESSION_IP_MISMATCH"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"

	CodeForbiddenAdminOnly       = "ADMIN_ONLY"
	CodeForbiddenNotSessionOwner = "SESSION_NOT_OWNED"

	CodeExceededSendLimit     = "EXCEEDED_SEND_LIMIT"
	CodePleaseWaitBeforeNext  = "PLEASE_WAIT_BEFORE_NEXT_REQUEST"
	CodeExceededVerifyAttempt = "EXCEEDED_VERIFICATION_ATTEMPTS"

	CodeOTPExpired          = "OTP_EXPIRED"
	CodeOTPNotFoundExpired  = "OTP_NOT_FOUND_OR_EXPIRED"
	CodeOTPInvalidCode      = "INVALID_OTP_CODE"
	CodeInternal            = "INTERNAL_ERROR"
)
