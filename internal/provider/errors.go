package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Kind discriminates provider call failures. The orchestrator turns each
// kind into result data rather than letting it escape the fan-out boundary.
type Kind string

const (
	// KindAuth is an authentication or configuration failure. Fatal for the
	// provider, never retryable.
	KindAuth Kind = "auth"
	// KindTimeout means the call exceeded its budget. Retryable.
	KindTimeout Kind = "timeout"
	// KindMalformed means the provider answered but the reply could not be
	// turned into a candidate. Non-retryable.
	KindMalformed Kind = "malformed"
	// KindUnavailable covers transient network and server-side failures.
	// Retryable.
	KindUnavailable Kind = "unavailable"
)

// Error is the discriminated failure of one provider call.
type Error struct {
	Provider string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err as a provider failure of the given kind.
func NewError(provider string, kind Kind, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Err: err}
}

// KindOf extracts the failure kind from an error chain, or "" when the
// error did not originate from a provider call.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// Retryable reports whether the failure is safe to retry.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindUnavailable:
		return true
	}
	return false
}

// authPatterns mark credential and permission failures in wrapped HTTP/SDK
// errors.
var authPatterns = []string{
	"authentication",
	"invalid api key",
	"invalid x-api-key",
	"unauthorized",
	"permission denied",
	"status 401",
	"status 403",
}

// transientPatterns mark network-level failures worth retrying.
var transientPatterns = []string{
	"connection reset by peer",
	"connection refused",
	"broken pipe",
	"temporary failure in name resolution",
	"no such host",
	"tls handshake timeout",
	"i/o timeout",
	"status 429",
	"status 500",
	"status 502",
	"status 503",
	"status 529",
}

// Classify maps an arbitrary call failure to a discriminated provider
// Error. Already-classified errors pass through unchanged.
func Classify(provider string, err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(provider, KindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(provider, KindTimeout, err)
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return NewError(provider, KindUnavailable, err)
	}

	msg := strings.ToLower(err.Error())
	for _, p := range authPatterns {
		if strings.Contains(msg, p) {
			return NewError(provider, KindAuth, err)
		}
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return NewError(provider, KindUnavailable, err)
		}
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return NewError(provider, KindTimeout, err)
	}

	return NewError(provider, KindUnavailable, err)
}
