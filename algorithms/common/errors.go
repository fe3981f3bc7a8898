package common

import "errors"

// Validation failures shared across the analysis packages. Call sites wrap
// these with context via fmt.Errorf("...: %w", ...) so callers can match
// with errors.Is.
var (
	// ErrInvalidArgument reports an out-of-range size, band index or threshold.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyInput reports an empty frame or magnitude spectrum.
	ErrEmptyInput = errors.New("empty input")

	// ErrDimensionMismatch reports a buffer whose length differs from the
	// one a stateful detector recorded on a previous call.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrNotConfigured reports use of a transform or pipeline before
	// preparation or after release.
	ErrNotConfigured = errors.New("not configured")

	// ErrBufferMismatch reports an input whose length differs from the
	// prepared transform plan.
	ErrBufferMismatch = errors.New("buffer length mismatch")

	// ErrIndexOutOfRange reports a sub-band index query outside the
	// configured sub-band count.
	ErrIndexOutOfRange = errors.New("index out of range")
)
