package api

import (
	"errors"
	"fmt"
)

// ErrAuthRequired signals that no valid session could be established and
// the caller must route the user back to the authentication entry point.
var ErrAuthRequired = errors.New("authentication required")

// StatusError is a non-2xx response from the server.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d", e.Status)
}

// NetworkError is a transport-level failure before any response arrived.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure calling %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError is a request that exceeded its deadline.
type TimeoutError struct {
	URL string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout calling %s: %v", e.URL, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
