package model

// Rarity tiers of fish species.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityTrophy    Rarity = "trophy"
	RarityLegendary Rarity = "legendary"
)

// StrengthMultiplier is the rarity factor used when normalizing fish
// strength at fight creation.
func (r Rarity) StrengthMultiplier() float64 {
	switch r {
	case RarityUncommon:
		return 1.2
	case RarityRare:
		return 1.5
	case RarityTrophy:
		return 2.0
	case RarityLegendary:
		return 3.0
	default:
		return 1.0
	}
}

// Boostable reports whether rarity-boost buffs apply to this tier.
func (r Rarity) Boostable() bool {
	return r == RarityRare || r == RarityTrophy || r == RarityLegendary
}

// FishSpecies is static content data for one species.
type FishSpecies struct {
	ID        int64
	Name      string
	Rarity    Rarity
	WeightMin float64 // kg
	WeightMax float64
	LengthMin float64 // cm
	LengthMax float64

	// ActiveTime maps a time-of-day bucket to the species' activity weight.
	// Missing buckets default to 0.5.
	ActiveTime map[TimeOfDay]float64

	PreferredDepthMin float64 // m
	PreferredDepthMax float64

	SellPricePerKg   float64
	ExperiencePerKg  int
}

// ActivityAt returns the configured activity weight for the bucket.
func (f *FishSpecies) ActivityAt(tod TimeOfDay) float64 {
	if v, ok := f.ActiveTime[tod]; ok {
		return v
	}
	return 0.5
}

// InDepthBand reports whether depth falls in the preferred band.
func (f *FishSpecies) InDepthBand(depth float64) bool {
	return depth >= f.PreferredDepthMin && depth <= f.PreferredDepthMax
}

// Stocking binds a species to a location with its relative spawn weight.
type Stocking struct {
	LocationID  int64
	Species     *FishSpecies
	SpawnWeight float64
}

// Location is a fishing spot. Only the fields the core reads are modeled;
// travel, tickets and imagery live in the surrounding CRUD layer.
type Location struct {
	ID      int64
	Name    string
	MinRank int
}
