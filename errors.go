package pear

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when the client lacks the private key or
	// wallet address an operation needs, or was given malformed ones
	ErrConfiguration = errors.New("client configuration error")

	// ErrEncoding is returned when a challenge or token response does not
	// match any supported shape
	ErrEncoding = errors.New("encoding error")

	// ErrTransport is returned when the API is unreachable or answers with a
	// non-2xx status
	ErrTransport = errors.New("transport error")

	// ErrPrecondition is returned when an operation needs a token that is not held
	ErrPrecondition = errors.New("precondition failed")
)

// TransportError describes a failed HTTP exchange. StatusCode is zero when no
// response was received.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, string(e.Body))
}

// Unwrap lets errors.Is match both ErrTransport and the underlying network error.
func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}
