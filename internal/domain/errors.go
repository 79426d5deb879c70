package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Check with errors.Is.
var (
	// ErrUsage is returned when the forward-only cursor contract is violated.
	ErrUsage = errors.New("npss: sample accessed out of order")

	// ErrIO is returned for stream open/read/close failures and for
	// aggregation finalize failures.
	ErrIO = errors.New("npss: i/o failure")

	// ErrNoData is returned when an aggregate is finalized without samples.
	ErrNoData = errors.New("npss: no data available")

	// ErrBadFormat is returned when a sample file cannot be decoded.
	ErrBadFormat = errors.New("npss: malformed sample file")
)

// UsageError reports a request for a sample the cursor cannot serve.
type UsageError struct {
	Op        string
	Current   int
	Requested int
	Count     int
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("npss: %s: current sample %d, requested sample %d (count %d)",
		e.Op, e.Current, e.Requested, e.Count)
}

// Is matches ErrUsage.
func (e *UsageError) Is(target error) bool {
	return target == ErrUsage
}

// IOError wraps an I/O class failure with the operation that hit it.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return "npss: " + e.Op + ": " + e.Err.Error()
}

// Is matches ErrIO.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// WrapIO returns nil for a nil err, err itself when it already is an
// I/O class error, and an *IOError otherwise.
func WrapIO(op string, err error) error {
	if err == nil {
		return nil
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &IOError{Op: op, Err: err}
}
