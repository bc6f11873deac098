package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("pipeline not found")
	// ErrMalformedSample is matched by every MalformedSampleError.
	ErrMalformedSample = errors.New("malformed sample")
	// ErrStaleVersion is returned by Restore for a config older than the
	// registered one.
	ErrStaleVersion = errors.New("stale pipeline version")
)

// NotFoundError reports an unknown pipeline id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("pipeline %s not found", e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// MalformedSampleError reports a sample that is not a JSON document.
type MalformedSampleError struct {
	// Sample is "input" or "output".
	Sample string
	Reason string
	Err    error
}

func (e *MalformedSampleError) Error() string {
	return fmt.Sprintf("malformed %s sample: %s", e.Sample, e.Reason)
}

func (e *MalformedSampleError) Unwrap() error {
	return e.Err
}

// Is matches ErrMalformedSample.
func (e *MalformedSampleError) Is(target error) bool {
	return target == ErrMalformedSample
}
