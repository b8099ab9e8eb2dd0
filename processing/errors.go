package processing

import "errors"

var (
	// ErrNotFound is returned for an unknown trip or before any run has completed
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when trip data is rejected before computation
	ErrInvalidInput = errors.New("invalid input")

	// ErrSimulationDisabled is returned by Tamper unless simulation is enabled
	ErrSimulationDisabled = errors.New("tamper simulation is disabled")

	// ErrUnknownField is returned by Tamper for a field outside the protected list
	ErrUnknownField = errors.New("unknown or unprotected field")

	// ErrAnchoringDisabled is returned by anchor lookups when no chain is configured
	ErrAnchoringDisabled = errors.New("anchoring is not configured")
)
