// Package apperr defines the error kinds surfaced to API callers.
//
// Business-rule rejections are expected outcomes, not faults. Handlers map
// them to a stable reason code and HTTP status and must not log them as errors.
package apperr

import (
	"errors"
	"net/http"
	"time"
)

type Kind string

const (
	KindValidation       Kind = "VALIDATION"
	KindNotFound         Kind = "NOT_FOUND"
	KindOutsideHours     Kind = "OUTSIDE_HOURS"
	KindSlotTaken        Kind = "SLOT_TAKEN"
	KindInvalidSubOption Kind = "INVALID_SUBOPTION"
	KindUnverifiedPhone  Kind = "UNVERIFIED_PHONE"
	KindRateLimited      Kind = "RATE_LIMITED"
	KindGatewayFailure   Kind = "GATEWAY_FAILURE"
	KindUnauthorized     Kind = "UNAUTHORIZED"
	KindForbidden        Kind = "FORBIDDEN"
	KindInternal         Kind = "INTERNAL"
)

// Error is a classified error with a caller-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	// RetryAfter tells a rate-limited caller how long to wait; zero when unknown.
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// RateLimited is a RATE_LIMITED rejection that clears after retryAfter.
func RateLimited(msg string, retryAfter time.Duration) error {
	return &Error{Kind: KindRateLimited, Message: msg, RetryAfter: retryAfter}
}

// RetryAfter returns the wait carried by err, if it carries one.
func RetryAfter(err error) (time.Duration, bool) {
	var e *Error
	if errors.As(err, &e) && e.RetryAfter > 0 {
		return e.RetryAfter, true
	}
	return 0, false
}

// Wrap classifies err under kind. The message is what callers see; err is kept for logs.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, INTERNAL otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-safe message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps an error kind to the status code returned by the API.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindOutsideHours, KindInvalidSubOption, KindUnverifiedPhone:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindSlotTaken:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindGatewayFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Expected reports whether kind is a business outcome rather than a fault.
func Expected(kind Kind) bool {
	switch kind {
	case KindInternal, KindGatewayFailure:
		return false
	default:
		return true
	}
}
