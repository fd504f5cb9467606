package flow

import (
	"errors"
	"fmt"
)

// ErrorKind classifies authentication flow failures.
type ErrorKind string

const (
	// KindEndpointNotFound means the provider has no registered endpoint.
	KindEndpointNotFound ErrorKind = "endpoint_not_found"
	// KindRedirectInProgress is informational: the current page is being
	// navigated to the provider's login URL and execution is abandoned.
	KindRedirectInProgress ErrorKind = "redirect_in_progress"
	// KindNoTokenParsed means the redirect payload carried none of
	// access_token, code, or error.
	KindNoTokenParsed ErrorKind = "no_token_parsed"
	// KindExchangeFailed means the code exchange returned a non-200 status
	// or a malformed response.
	KindExchangeFailed ErrorKind = "exchange_failed"
	// KindProviderError means the provider returned an explicit error payload.
	KindProviderError ErrorKind = "provider_error"
	// KindSurfaceFailure means the interactive surface could not be opened
	// or crashed before delivering a result.
	KindSurfaceFailure ErrorKind = "surface_failure"
	// KindTimeout means no result arrived within the configured timeout.
	KindTimeout ErrorKind = "timeout"
)

// Error is a classified authentication flow failure. Failures are never
// retried automatically; re-authentication only happens when the caller
// passes force or the cached token has expired.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrKind extracts the ErrorKind from err. Returns false when err is not a
// flow error.
func ErrKind(err error) (ErrorKind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// IsKind reports whether err is a flow error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := ErrKind(err)
	return ok && k == kind
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}
