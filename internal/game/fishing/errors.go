package fishing

import (
	"errors"
	"fmt"
)

// Error taxonomy of the fishing core. All errors are local, synchronous and
// non-retryable; the transport layer maps them to response codes with
// errors.Is. Tick-time housekeeping (expired bites, lapsed groundbait)
// self-heals instead of raising.
var (
	// ErrNotFound: session, rod, species, bait or groundbait is absent or
	// not owned by the caller.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState: the action is not permitted in the session's
	// current state.
	ErrInvalidState = errors.New("invalid session state")

	// ErrPreconditionFailed: a validation outside the state machine failed
	// (no location, rod not ready, slot limit, concurrent fight, missing
	// inventory).
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrExpired: the bite window lapsed before the strike landed.
	ErrExpired = errors.New("fish got away")
)

func invalidState(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidState)
}

func precondition(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrPreconditionFailed)
}
