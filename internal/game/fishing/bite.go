package fishing

import (
	"math"

	"github.com/klevoclub/klevo/internal/model"
)

const (
	baseBiteChance = 0.05
	maxBiteChance  = 0.5
)

// Buffs are the active consumable effects resolved for a player at the
// current game time. Presence of a key means the effect is running.
type Buffs map[model.BuffEffect]float64

// Has reports whether the effect is active.
func (b Buffs) Has(e model.BuffEffect) bool {
	_, ok := b[e]
	return ok
}

// Value returns the effect's configured value if active.
func (b Buffs) Value(e model.BuffEffect) (float64, bool) {
	v, ok := b[e]
	return v, ok
}

// BiteEnv is everything one bite roll depends on, resolved by the engine
// before the call. The calculator itself touches no storage.
type BiteEnv struct {
	Player   *model.Player
	Rod      *model.Rod
	Stocking []model.Stocking
	Spot     *model.GroundbaitSpot // nil when no groundbait is down
	Time     model.GameTime
	Buffs    Buffs
}

// BiteCalculator computes the per-tick bite probability. Pure except for
// the final random draw in TryBite.
type BiteCalculator struct {
	roll func(p float64) bool
}

// NewBiteCalculator returns a calculator with the production RNG.
func NewBiteCalculator() *BiteCalculator {
	return &BiteCalculator{roll: chance}
}

// Chance returns the bite probability for one tick, always in
// [0, maxBiteChance]. Modifiers are multiplicative; the order below only
// matters for test reproducibility.
func (c *BiteCalculator) Chance(env BiteEnv) float64 {
	mod := 1.0

	// Time-of-day: average activity of everything stocked here.
	if len(env.Stocking) > 0 {
		tod := env.Time.TimeOfDay()
		sum := 0.0
		for _, st := range env.Stocking {
			sum += st.Species.ActivityAt(tod)
		}
		mod *= sum / float64(len(env.Stocking))
	}

	// Tackle match: the equipped bait/lure targets something stocked here.
	match := false
	for _, st := range env.Stocking {
		if env.Rod.TargetsSpecies(st.Species.ID) {
			match = true
			break
		}
	}
	if match {
		mod *= 1.5
	} else {
		mod *= 0.7
	}

	// Player rank, capped at +30%.
	mod *= 1.0 + math.Min(float64(env.Player.Rank), 100)*0.003

	// Karma: up to +20% above zero, floored at -20% below.
	if env.Player.Karma > 0 {
		mod *= 1.0 + math.Min(float64(env.Player.Karma), 1000)*0.0002
	} else {
		mod *= math.Max(0.8, 1.0+float64(env.Player.Karma)*0.0002)
	}

	// Hunger: 0.7 when starving, 1.0 when full.
	mod *= 0.7 + float64(env.Player.Hunger)/100*0.3

	// Groundbait spot, first active one only.
	if env.Spot != nil && env.Spot.Active(env.Time) && env.Spot.Groundbait != nil {
		mod *= 1.0 + float64(env.Spot.Groundbait.Effectiveness)*0.05
		if env.Spot.Flavoring != nil {
			mod *= env.Spot.Flavoring.BonusMultiplier
		}
	}

	// Consumable buffs, each applied independently.
	if env.Buffs.Has(model.EffectLuck) {
		mod *= 1.3
	}
	if env.Buffs.Has(model.EffectTrophy) {
		mod *= 1.1
	}
	if v, ok := env.Buffs.Value(model.EffectBiteBoost); ok {
		mod *= 1.0 + v
	}

	return math.Min(baseBiteChance*mod, maxBiteChance)
}

// TryBite rolls one tick. Returns true when the fish bites.
func (c *BiteCalculator) TryBite(env BiteEnv) bool {
	return c.roll(c.Chance(env))
}
