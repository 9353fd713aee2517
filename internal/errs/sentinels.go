// Package errs contains sentinel and typed errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across client/service layers.
var (
	// ErrValidation indicates local form validation failed; nothing was sent.
	ErrValidation = errors.New("validation")

	// ErrAPI indicates the backend answered with a failure status.
	ErrAPI = errors.New("api error")

	// ErrNetwork indicates a transport failure; no response was received.
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized indicates a missing or unusable session token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBusy indicates the same submission is already in flight.
	ErrBusy = errors.New("submission in progress")

	// ErrNoSession indicates no (unexpired) session token is stored.
	ErrNoSession = errors.New("no session")

	// ErrInvalidRole indicates a role with no configured identifier or collection.
	ErrInvalidRole = errors.New("invalid role")

	// ErrPartialSignup indicates the user account exists but its role record does not.
	ErrPartialSignup = errors.New("partial signup")
)
