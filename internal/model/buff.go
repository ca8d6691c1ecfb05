package model

// BuffEffect identifies a consumable effect (potion or brew) the bite and
// selection models read.
type BuffEffect string

const (
	EffectLuck      BuffEffect = "luck"       // bite chance x1.3; brewed variant boosts rare species weight
	EffectTrophy    BuffEffect = "trophy"     // bite chance x1.1, weight sampling shifts to Beta(3,3)
	EffectRarity    BuffEffect = "rarity"     // selection weight multiplier on rare+ species
	EffectBiteBoost BuffEffect = "bite_boost" // bite chance x(1+value)
)

// ActiveBuff is a consumed potion/brew effect with a game-time expiry.
type ActiveBuff struct {
	PlayerID int64
	Effect   BuffEffect
	Value    float64
	Expires  GameTime
}

// Active reports whether the buff is still running at the given game time.
func (b *ActiveBuff) Active(gt GameTime) bool {
	return gt.Before(b.Expires)
}

// GroundbaitSpot is an ephemeral per (player, location) boost. Expiry is
// expressed in game time, not wall-clock; a periodic sweep deletes lapsed
// spots, and readers double-check Active before applying the bonus.
type GroundbaitSpot struct {
	ID         int64
	PlayerID   int64
	LocationID int64
	Groundbait *Groundbait
	Flavoring  *Flavoring
	Expires    GameTime
}

// Active reports whether the spot has not yet expired.
func (s *GroundbaitSpot) Active(gt GameTime) bool {
	return gt.Before(s.Expires)
}

// TargetsSpecies reports whether the spot's groundbait targets the species.
func (s *GroundbaitSpot) TargetsSpecies(speciesID int64) bool {
	if s.Groundbait == nil {
		return false
	}
	for _, id := range s.Groundbait.TargetSpecies {
		if id == speciesID {
			return true
		}
	}
	return false
}
