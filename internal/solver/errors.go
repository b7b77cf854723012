package solver

import (
	"errors"
	"fmt"
)

var (
	// ErrCacheMiss reports a cached-code response that did not carry the
	// success marker, regardless of HTTP status or code presence.
	ErrCacheMiss = errors.New("cached solution unavailable")

	// ErrDuplicateOrRejected is the reason attached to a failed add.
	ErrDuplicateOrRejected = errors.New("problem already queued or rejected")

	// ErrNotFoundOrRejected is the reason attached to a failed delete.
	ErrNotFoundOrRejected = errors.New("problem not found or rejected")
)

// TransportError covers network failures, non-2xx responses and bodies that
// could not be decoded.
type TransportError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: http %d", e.Op, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RejectedError reports a queue mutation the backend refused. Reason is one of
// ErrDuplicateOrRejected or ErrNotFoundOrRejected.
type RejectedError struct {
	Op         string
	ProblemID  string
	StatusCode int
	Message    string
	Reason     error
}

func (e *RejectedError) Error() string {
	msg := fmt.Sprintf("%s %s: %v (http %d", e.Op, e.ProblemID, e.Reason, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg + ")"
}

func (e *RejectedError) Unwrap() error {
	return e.Reason
}

// DataError is a well-formed 2xx response whose body carries a logical error.
// Error returns the backend message verbatim.
type DataError struct {
	ProblemID string
	Message   string
}

func (e *DataError) Error() string {
	return e.Message
}

// IsTransport reports whether err is, or wraps, a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
