package tink

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a caller supplies an invalid
	// combination of arguments, e.g. both or neither of the mutually
	// exclusive user identifiers.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClosed is returned by any operation attempted after Close.
	ErrClosed = errors.New("client is closed")
)

// AuthError indicates that the API rejected credentials, an authorization
// code or a token with 401. It is not retried beyond the single retry
// performed by the client.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// APIError covers every other request failure: a non-2xx status other than
// 401, or a transport-level error, in which case Err carries the cause and
// StatusCode is zero.
type APIError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request failed: %v", e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// transportError wraps a transport-level failure into an APIError.
func transportError(err error) *APIError {
	return &APIError{Err: err}
}
