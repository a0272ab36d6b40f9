package ssotoken

import (
	"errors"
	"fmt"
)

// Kind categorizes token codec failures. The set is closed: callers decide
// behavior by matching kinds with errors.As, never by message substring.
type Kind string

const (
	// KindConfiguration indicates the shared secret is missing or empty.
	// This is a fatal startup condition, not a per-request error.
	KindConfiguration Kind = "configuration"
	// KindInvalidInput indicates an issuance request missing required fields.
	KindInvalidInput Kind = "invalid_input"
	// KindMalformedToken indicates input that is not decodable as the
	// expected byte layout (bad base64, wrong length, bad padding).
	KindMalformedToken Kind = "malformed_token"
	// KindAuthenticationFailure indicates the MAC check failed: the token
	// was tampered with, corrupted, or sealed under a different secret.
	KindAuthenticationFailure Kind = "authentication_failure"
	// KindMalformedClaim indicates decryption succeeded but the plaintext
	// does not parse as a valid claim.
	KindMalformedClaim Kind = "malformed_claim"
	// KindTokenExpired indicates the claim parsed but its issue time is
	// outside the acceptable window (too old, or implausibly in the future).
	KindTokenExpired Kind = "token_expired"
)

// Error is a codec failure tagged with a Kind. It supports error wrapping
// for use with errors.Is and errors.As.
type Error struct {
	// Kind categorizes the failure
	Kind Kind
	// Message is a human-readable description for logs; it is never shown
	// to end users (the HTTP boundary collapses all rejections to one
	// opaque outcome to avoid oracle leakage).
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: err}
}

// KindOf returns the Kind carried by err, or the empty Kind when err is not
// a codec error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func isKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsConfiguration checks if an error is a configuration error.
func IsConfiguration(err error) bool { return isKind(err, KindConfiguration) }

// IsInvalidInput checks if an error is an invalid input error.
func IsInvalidInput(err error) bool { return isKind(err, KindInvalidInput) }

// IsMalformedToken checks if an error is a malformed token error.
func IsMalformedToken(err error) bool { return isKind(err, KindMalformedToken) }

// IsAuthenticationFailure checks if an error is an authentication failure.
func IsAuthenticationFailure(err error) bool { return isKind(err, KindAuthenticationFailure) }

// IsMalformedClaim checks if an error is a malformed claim error.
func IsMalformedClaim(err error) bool { return isKind(err, KindMalformedClaim) }

// IsTokenExpired checks if an error is a token expiry error.
func IsTokenExpired(err error) bool { return isKind(err, KindTokenExpired) }

// IsRejection reports whether err is any recoverable verification failure.
// Configuration errors are excluded: they are fatal, not per-token outcomes.
func IsRejection(err error) bool {
	switch KindOf(err) {
	case KindMalformedToken, KindAuthenticationFailure, KindMalformedClaim, KindTokenExpired:
		return true
	case KindConfiguration, KindInvalidInput:
		return false
	}
	return false
}
