package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a provider failure.
type Kind string

const (
	// KindTimeout covers deadline expiry on a send.
	KindTimeout Kind = "timeout"
	// KindUnauthorized covers rejected credentials.
	KindUnauthorized Kind = "unauthorized"
	// KindUnavailable covers missing configuration, connection
	// failures, rate limiting, and server-side errors.
	KindUnavailable Kind = "unavailable"
	// KindMalformedResponse covers replies that do not validate into a
	// Response.
	KindMalformedResponse Kind = "malformed_response"
)

// Error wraps a provider failure with its classification and the
// provider it came from.
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NotConfigured returns the Unavailable error for a provider that has
// no credentials or endpoint configured.
func NotConfigured(providerName string) *Error {
	return &Error{
		Kind:     KindUnavailable,
		Provider: providerName,
		Err:      errors.New("no API key or endpoint configured"),
	}
}

// Malformed wraps a reply validation failure.
func Malformed(providerName string, err error) *Error {
	return &Error{Kind: KindMalformedResponse, Provider: providerName, Err: err}
}

// Classify maps an arbitrary send error onto a provider Error. Context
// expiry becomes Timeout, cancellation stays Unavailable so a caller
// abort is never retried as if the provider timed out on its own.
func Classify(providerName string, err error) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Provider: providerName, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Provider: providerName, Err: err}
	}
	return &Error{Kind: KindUnavailable, Provider: providerName, Err: err}
}

// ClassifyStatus maps an HTTP status code onto a provider Error.
func ClassifyStatus(providerName string, status int, err error) *Error {
	kind := KindUnavailable
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindUnauthorized
	case status == http.StatusRequestTimeout:
		kind = KindTimeout
	}
	return &Error{Kind: kind, Provider: providerName, Err: err}
}

// IsRetryable reports whether a failure is worth retrying against the
// same provider. Credentials do not heal between attempts; malformed
// replies might, since the reasoning service is not deterministic.
func IsRetryable(err error) bool {
	var perr *Error
	if !errors.As(err, &perr) {
		return false
	}
	switch perr.Kind {
	case KindTimeout, KindUnavailable, KindMalformedResponse:
		return true
	}
	return false
}
