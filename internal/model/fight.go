package model

import "time"

// FightState is the numeric state of an active fight. It exists iff the
// parent session is in StateFighting and is destroyed together with the
// transition out of that state.
type FightState struct {
	SessionID     int64
	FishStrength  float64 // normalized 1..10, decays as the fish tires
	LineTension   float64 // cumulative stress, checked against line limit
	Distance      float64 // meters to shore; 0 means landed
	RodDurability float64 // snapshot taken on strike
	LastAction    time.Time
}
