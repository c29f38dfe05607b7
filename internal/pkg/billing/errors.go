package billing

import "errors"

// Sentinel errors the HTTP layer maps onto status codes. Wrap with %w and
// test with errors.Is.
var (
	// ErrValidation covers missing or malformed caller input (400).
	ErrValidation = errors.New("validation error")
	// ErrNotFound covers missing plans, users and transactions (404).
	ErrNotFound = errors.New("not found")
	// ErrProcessor covers checkout failures reported by the payment
	// processor; the pending rows created for the intent have already been
	// compensated away when this is returned (500/502 at the boundary).
	ErrProcessor = errors.New("payment processor error")
	// ErrConflict covers invalid state transitions, e.g. a declined
	// confirmation arriving for an approved transaction (409).
	ErrConflict = errors.New("conflicting state transition")
)
