package model

import "time"

// CaughtFish is a kept catch in the player's creel.
type CaughtFish struct {
	ID         int64
	PlayerID   int64
	SpeciesID  int64
	Weight     float64
	Length     float64
	LocationID int64
	CaughtAt   time.Time
	IsRecord   bool
}

// ExperienceReward is the XP granted for keeping the fish.
func ExperienceReward(species *FishSpecies, weight float64) int {
	return int(float64(species.ExperiencePerKg) * weight)
}
