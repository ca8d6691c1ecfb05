package fishing

import (
	"math"

	"github.com/klevoclub/klevo/internal/model"
)

// SpeciesSelector picks the species for a successful bite and samples its
// weight and length. All selection inputs arrive resolved in a PickEnv.
type SpeciesSelector struct {
	uniform func(lo, hi float64) float64
	beta    func(alpha, beta float64) float64
}

// NewSpeciesSelector returns a selector with the production RNG.
func NewSpeciesSelector() *SpeciesSelector {
	return &SpeciesSelector{uniform: uniform, beta: betaVariate}
}

// PickEnv shares the shape of BiteEnv minus the player attributes the
// selection does not read.
type PickEnv struct {
	Rod      *model.Rod
	Stocking []model.Stocking
	Spot     *model.GroundbaitSpot
	Time     model.GameTime
	Buffs    Buffs
}

// Pick runs the weighted random choice over the location's stocking.
// Returns nil when nothing has positive weight.
func (s *SpeciesSelector) Pick(env PickEnv) *model.FishSpecies {
	tod := env.Time.TimeOfDay()
	depth := env.Rod.EffectiveDepth()

	spotActive := env.Spot != nil && env.Spot.Active(env.Time)
	rarityBoost, hasRarityBoost := env.Buffs.Value(model.EffectRarity)

	type candidate struct {
		species *model.FishSpecies
		weight  float64
	}
	var (
		candidates []candidate
		total      float64
	)
	for _, st := range env.Stocking {
		sp := st.Species
		w := st.SpawnWeight

		w *= sp.ActivityAt(tod)

		if env.Rod.TargetsSpecies(sp.ID) {
			w *= 2.0
		}

		if sp.InDepthBand(depth) {
			w *= 1.5
		} else {
			w *= 0.3
		}

		if spotActive && env.Spot.TargetsSpecies(sp.ID) {
			w *= 1.8
		}

		if hasRarityBoost && sp.Rarity.Boostable() {
			w *= rarityBoost
		}

		if w > 0 {
			candidates = append(candidates, candidate{species: sp, weight: w})
			total += w
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	// Single draw over the cumulative weights.
	r := s.uniform(0, total)
	for _, c := range candidates {
		if r < c.weight {
			return c.species
		}
		r -= c.weight
	}
	return candidates[len(candidates)-1].species
}

// SampleWeight draws a specimen weight in kg from the species range.
// Beta(2,5) biases toward small fish; an active trophy buff shifts the
// distribution to Beta(3,3), favouring larger specimens.
func (s *SpeciesSelector) SampleWeight(sp *model.FishSpecies, trophyBuff bool) float64 {
	alpha, beta := 2.0, 5.0
	if trophyBuff {
		alpha, beta = 3.0, 3.0
	}
	raw := s.beta(alpha, beta)
	w := sp.WeightMin + (sp.WeightMax-sp.WeightMin)*raw
	return math.Round(w*1000) / 1000
}

// SampleLength derives a length in cm from the weight's position inside
// the species' own weight range, with a ±10% jitter, clamped back into the
// species bounds.
func (s *SpeciesSelector) SampleLength(sp *model.FishSpecies, weight float64) float64 {
	ratio := (weight - sp.WeightMin) / math.Max(sp.WeightMax-sp.WeightMin, 0.01)
	length := sp.LengthMin + (sp.LengthMax-sp.LengthMin)*ratio
	length *= s.uniform(0.9, 1.1)
	length = math.Max(sp.LengthMin, math.Min(sp.LengthMax, length))
	return math.Round(length*10) / 10
}
