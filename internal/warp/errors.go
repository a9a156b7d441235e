package warp

import "errors"

var (
	// ErrNonMonotonic is returned when resolved event positions decrease
	// from one event to the next.
	ErrNonMonotonic = errors.New("event positions are not monotonically non-decreasing")

	// ErrAlreadyBootstrapped is returned when the bootstrap shift is requested
	// a second time on the same scene.
	ErrAlreadyBootstrapped = errors.New("scene margin already bootstrapped")

	// ErrNoResolvedSamples is returned when no event in the active range
	// resolves to a scene element.
	ErrNoResolvedSamples = errors.New("no alignment identifier resolved to a scene element")
)
