package model

import "time"

// SessionState describes the lifecycle phase of a cast rod.
type SessionState string

// Session states. A session is created on cast (Waiting) and destroyed on
// retrieve, keep, release, or a terminal fight outcome.
const (
	StateIdle     SessionState = "idle"
	StateWaiting  SessionState = "waiting"
	StateNibble   SessionState = "nibble"
	StateBite     SessionState = "bite"
	StateFighting SessionState = "fighting"
	StateCaught   SessionState = "caught"
)

// Active reports whether the state counts against the player's rod limit.
func (s SessionState) Active() bool {
	switch s {
	case StateWaiting, StateNibble, StateBite, StateFighting, StateCaught:
		return true
	}
	return false
}

// HookedFish is the fish sampled when a bite roll succeeds. Present from
// NIBBLE until the session leaves BITE/FIGHTING/CAUGHT or the window lapses.
type HookedFish struct {
	SpeciesID int64
	Weight    float64 // kg
	Length    float64 // cm
}

// PhaseWindow is a timed phase (nibble forewarning or strikeable bite).
// Elapsed time is measured against wall-clock, not tick count, so coarse
// polling can miss a window but never double-apply it.
type PhaseWindow struct {
	Start    time.Time
	Duration float64 // seconds
}

// Expired reports whether the window has lapsed at the given instant.
func (w PhaseWindow) Expired(now time.Time) bool {
	return now.Sub(w.Start).Seconds() > w.Duration
}

// FishingSession is one cast rod of one player.
//
// Invariants (enforced by the engine):
//   - at most one session per (player, rod) pair
//   - slot indices are unique within a player's sessions
//   - at most one session per player is in StateFighting
//   - Hooked/Nibble/Bite are non-nil only in the phases that use them
type FishingSession struct {
	ID         int64
	PlayerID   int64
	LocationID int64
	RodID      int64
	Slot       int // 1..MaxActiveRods
	State      SessionState

	CastX    float64
	CastY    float64
	CastTime time.Time

	// Spinning retrieval. Progress runs 0..1; the lure reaches the shore
	// at 1.0 and the session is auto-retrieved.
	Retrieving       bool
	RetrieveProgress float64

	Hooked *HookedFish
	Nibble *PhaseWindow
	Bite   *PhaseWindow
}

// ClearHooked drops the hooked fish and both phase windows. Used when a
// bite window lapses and the session falls back to WAITING.
func (s *FishingSession) ClearHooked() {
	s.Hooked = nil
	s.Nibble = nil
	s.Bite = nil
}
