package clutter

import "errors"

var (
	// ErrNoMatch is returned when a ray does not map to any accumulator.
	ErrNoMatch = errors.New("no matching accumulator")
	// ErrGeometryMismatch is returned when a ray's range geometry differs
	// from the accumulator it maps to.
	ErrGeometryMismatch = errors.New("ray geometry does not match accumulator")
	// ErrMissingField is returned when a ray lacks the configured input field.
	ErrMissingField = errors.New("input field missing from ray")
	// ErrNotConverged is returned by the first pass when the stream ends
	// before convergence.
	ErrNotConverged = errors.New("first pass did not converge")
	// ErrFinalTimeNotReached is returned by the second pass when the stream
	// ends before the first pass's final volume time.
	ErrFinalTimeNotReached = errors.New("second pass did not reach final time")
)
