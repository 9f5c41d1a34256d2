package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failure surfaced to callers wraps exactly one of these.
var (
	// ErrBadRequest signals an invalid parameter, field or facet token.
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized signals a missing or unknown API key.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimitExceeded signals that the caller exhausted its request budget.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrNotFound signals a fetch-by-id miss.
	ErrNotFound = errors.New("not found")
	// ErrNotAcceptable signals that no acceptable representation can be produced.
	ErrNotAcceptable = errors.New("not acceptable")
	// ErrInternalServer is the catch-all for unexpected failures.
	ErrInternalServer = errors.New("internal server error")
	// ErrServiceUnavailable signals that the search engine cannot be reached.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// SearchError carries a taxonomy sentinel together with a client-facing message.
type SearchError struct {
	Kind    error
	Message string
}

func (e *SearchError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *SearchError) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &SearchError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// BadRequest creates an ErrBadRequest error with a formatted message.
func BadRequest(format string, args ...any) error {
	return newError(ErrBadRequest, format, args...)
}

// NotFound creates an ErrNotFound error with a formatted message.
func NotFound(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

// Unauthorized creates an ErrUnauthorized error with a formatted message.
func Unauthorized(format string, args ...any) error {
	return newError(ErrUnauthorized, format, args...)
}

// RateLimitExceeded creates an ErrRateLimitExceeded error with a formatted message.
func RateLimitExceeded(format string, args ...any) error {
	return newError(ErrRateLimitExceeded, format, args...)
}

// NotAcceptable creates an ErrNotAcceptable error with a formatted message.
func NotAcceptable(format string, args ...any) error {
	return newError(ErrNotAcceptable, format, args...)
}

// ServiceUnavailable wraps cause as ErrServiceUnavailable, keeping cause in the chain.
func ServiceUnavailable(cause error) error {
	return fmt.Errorf("%w: %w", ErrServiceUnavailable, cause)
}

// Message returns the client-facing message of err.
// Errors outside the taxonomy never leak their text.
func Message(err error) string {
	var se *SearchError
	if errors.As(err, &se) {
		return se.Error()
	}
	for _, s := range []error{
		ErrBadRequest, ErrUnauthorized, ErrRateLimitExceeded, ErrNotFound,
		ErrNotAcceptable, ErrServiceUnavailable,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return ErrInternalServer.Error()
}
