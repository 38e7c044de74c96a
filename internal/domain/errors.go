package domain

import "errors"

var (
	// ErrInvalidPoolState indicates malformed pool reserves or fee parameters.
	// Fatal to the pricing call; the cycle aborts gracefully.
	ErrInvalidPoolState = errors.New("invalid pool state")

	// ErrInsufficientDepth indicates the requested size exceeds the visible
	// book depth. Callers treat it as "no opportunity this cycle".
	ErrInsufficientDepth = errors.New("insufficient book depth")

	// ErrVenueUnavailable indicates a failure reaching a venue collaborator.
	ErrVenueUnavailable = errors.New("venue unavailable")

	// ErrLegFailed indicates a buy/sell submission failed after the opposite
	// leg may already have been submitted. No automatic rollback is attempted.
	ErrLegFailed = errors.New("execution leg failed")

	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("not found")
)
