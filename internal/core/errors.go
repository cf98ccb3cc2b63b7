package core

import "errors"

// Errors surfaced by the simulation core.
var (
	// ErrInvalidConfiguration indicates inconsistent setup parameters.
	// Configuration errors are fatal and reported before any stepping begins.
	ErrInvalidConfiguration = errors.New("ionsim: invalid configuration")

	// ErrOutsideDomain indicates a particle position outside the valid
	// domain of a field or collision model.
	ErrOutsideDomain = errors.New("ionsim: particle outside of simulation domain")

	// ErrNotRunnable indicates an integrator that was already finalized.
	ErrNotRunnable = errors.New("ionsim: integrator is finalized")
)
