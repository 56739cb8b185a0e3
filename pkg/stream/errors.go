package stream

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes why an exchange failed.
type ErrorKind int

const (
	// APIKeyMissing means no credential was available for the provider.
	APIKeyMissing ErrorKind = iota + 1

	// InvalidRequestTarget means the endpoint URL could not be constructed.
	InvalidRequestTarget

	// RequestSerializationError means the request body could not be encoded.
	RequestSerializationError

	// DecodeError means an inbound chunk was not valid text.
	DecodeError

	// StreamingError means a decoder found a malformed or error-bearing
	// payload.
	StreamingError

	// APIError means the response status was outside the 2xx range.
	APIError

	// NetworkError means the transport failed for a reason unrelated to
	// the HTTP status.
	NetworkError

	// Cancelled means the caller cancelled the exchange.
	Cancelled
)

func (k ErrorKind) String() string {
	switch k {
	case APIKeyMissing:
		return "missing API key"
	case InvalidRequestTarget:
		return "invalid request target"
	case RequestSerializationError:
		return "request serialization failed"
	case DecodeError:
		return "decode error"
	case StreamingError:
		return "streaming error"
	case APIError:
		return "API error"
	case NetworkError:
		return "network error"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown error"
	}
}

// Error is the failure reported for an exchange.
type Error struct {
	Kind    ErrorKind
	Message string

	// StatusCode is set for APIError.
	StatusCode int

	// Code is the provider-reported error code, when there is one.
	Code string

	Cause error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	if e.Kind == APIError && e.StatusCode != 0 && e.Message != statusMessage(e.StatusCode) {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrAPIKeyMissing             = &Error{Kind: APIKeyMissing}
	ErrInvalidRequestTarget      = &Error{Kind: InvalidRequestTarget}
	ErrRequestSerializationError = &Error{Kind: RequestSerializationError}
	ErrDecode                    = &Error{Kind: DecodeError}
	ErrStreaming                 = &Error{Kind: StreamingError}
	ErrAPI                       = &Error{Kind: APIError}
	ErrNetwork                   = &Error{Kind: NetworkError}
	ErrCancelled                 = &Error{Kind: Cancelled}
)

// Error constructors

func newError(kind ErrorKind, message string, cause error) *Error {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func newAPIError(status int, message, code string) *Error {
	if message == "" {
		message = statusMessage(status)
	}
	return &Error{Kind: APIError, Message: message, StatusCode: status, Code: code}
}

func newStreamingError(message, code string) *Error {
	return &Error{Kind: StreamingError, Message: message, Code: code}
}

func statusMessage(status int) string {
	return fmt.Sprintf("status %d", status)
}

// Helper functions

// IsAPIKeyMissing reports whether err means the provider has no credential.
// Callers use it to route the user to credential setup.
func IsAPIKeyMissing(err error) bool {
	if e, ok := err.(*Error); ok && e == nil {
		return false
	}
	return errors.Is(err, ErrAPIKeyMissing)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
