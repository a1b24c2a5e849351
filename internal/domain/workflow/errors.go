package workflow

import "errors"

var (
	// ErrNoTransition is returned when no transition exists for a
	// (status, event) pair
	ErrNoTransition = errors.New("no valid transition")

	// ErrGuardRejected is returned when a transition exists but its guard
	// condition fails
	ErrGuardRejected = errors.New("guard condition failed")

	// ErrInvalidState is returned when a status is not a valid lifecycle state
	ErrInvalidState = errors.New("invalid state")
)
