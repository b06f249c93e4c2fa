package remote

import (
	"errors"
	"fmt"
)

// UnreachableError means no response arrived at all: connection refused,
// DNS failure, timeout. Callers treat it as transient and fall back to
// local state.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("network unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// RejectionError means the server answered with a non-2xx status. The
// message is the server-supplied one and is surfaced to the user verbatim.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("server rejected request (%d): %s", e.StatusCode, e.Message)
}

// IsUnreachable reports whether err classifies as a network-unreachable
// failure.
func IsUnreachable(err error) bool {
	var ue *UnreachableError
	return errors.As(err, &ue)
}

// IsRejection reports whether err classifies as a server rejection.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}
