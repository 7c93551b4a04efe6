package domain

import "errors"

var (
	// ErrInvalidInput is returned for malformed or out-of-domain split requests.
	ErrInvalidInput = errors.New("invalid input")

	// Order errors
	ErrOrderNotFound       = errors.New("order not found")
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrPersistenceFailure wraps storage errors that are not domain conditions.
	ErrPersistenceFailure = errors.New("persistence failure")

	ErrCacheMiss = errors.New("cache miss")
)
