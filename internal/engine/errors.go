// Package engine contains the operational core: the reservation and
// order state machines and the guest token resolver.  Engines mutate
// state through store interfaces, always as a single atomic
// conditional update, and publish events to the fan-out hub after a
// successful commit.  Hub delivery is best-effort and never affects an
// engine result.
package engine

import "errors"

// Sentinel errors forming the engine error taxonomy.  Callers match
// with errors.Is; engines wrap these with detail via fmt.Errorf and
// %w.  The boundary layer maps each kind to a stable HTTP code.
var (
	// ErrValidation marks malformed or missing input.  No mutation
	// was attempted.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced entity id that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition marks a state-machine rejection, including
	// the case where a concurrent writer won the conditional update.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidToken marks a guest token that failed to resolve.  The
	// resolver never distinguishes malformed from unknown tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrConflict marks a unique-key violation on upsert-able fields.
	ErrConflict = errors.New("conflict")
)
