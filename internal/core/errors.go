package core

import "errors"

// Client-facing outcomes of the service. Handlers match these with
// errors.Is to pick status codes.
var (
	// ErrInvalidTarget means the destination URL failed validation.
	ErrInvalidTarget = errors.New("invalid target url")
	// ErrInvalidAlias means the custom alias has bad characters or length.
	ErrInvalidAlias = errors.New("invalid custom alias")
	// ErrAliasTaken means a live mapping already owns the requested alias.
	ErrAliasTaken = errors.New("custom alias already taken")
	// ErrCodeSpaceExhausted means every generated candidate collided. This is
	// a capacity problem (alphabet/length too small for occupancy), not a
	// client mistake.
	ErrCodeSpaceExhausted = errors.New("could not generate a unique code")
	// ErrNotFound covers both absent and expired codes, so expiry leaks no
	// information to callers.
	ErrNotFound = errors.New("short code not found")
)
