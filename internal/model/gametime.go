package model

import "fmt"

// TimeOfDay is the derived bucket of the current game hour.
type TimeOfDay string

const (
	Morning TimeOfDay = "morning" // 05:00-09:59
	Day     TimeOfDay = "day"     // 10:00-17:59
	Evening TimeOfDay = "evening" // 18:00-21:59
	Night   TimeOfDay = "night"   // 22:00-04:59
)

// GameTime is a snapshot of the process-wide game clock. The clock service
// advances the persisted singleton on a fixed wall-clock cadence; the core
// only ever reads an immutable copy taken at the start of an operation.
type GameTime struct {
	Hour int // 0-23
	Day  int // monotonic counter
}

// TimeOfDay returns the bucket for the current hour.
func (gt GameTime) TimeOfDay() TimeOfDay {
	switch {
	case gt.Hour >= 5 && gt.Hour < 10:
		return Morning
	case gt.Hour >= 10 && gt.Hour < 18:
		return Day
	case gt.Hour >= 18 && gt.Hour < 22:
		return Evening
	default:
		return Night
	}
}

// AddHours returns the game time h hours ahead, carrying into the day.
func (gt GameTime) AddHours(h int) GameTime {
	total := gt.Hour + h
	return GameTime{Hour: total % 24, Day: gt.Day + total/24}
}

// Before reports whether gt is strictly earlier than other.
func (gt GameTime) Before(other GameTime) bool {
	if gt.Day != other.Day {
		return gt.Day < other.Day
	}
	return gt.Hour < other.Hour
}

func (gt GameTime) String() string {
	return fmt.Sprintf("day %d, %02d:00", gt.Day, gt.Hour)
}
