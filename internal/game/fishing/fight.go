package fishing

import (
	"math"
	"time"

	"github.com/klevoclub/klevo/internal/model"
)

// FightAction is a player move during a fight.
type FightAction int

const (
	// ActionReel pulls the fish toward the shore with moderate tension.
	ActionReel FightAction = iota
	// ActionPull is the stronger rod pull; wears the rod by one point.
	ActionPull
	// ActionWait lets the tension drain without pulling.
	ActionWait
)

// Outcome of one fight step.
type Outcome string

const (
	OutcomeFighting  Outcome = "fighting"
	OutcomeCaught    Outcome = "caught"
	OutcomeLineBreak Outcome = "line_break"
	OutcomeRodBreak  Outcome = "rod_break"
)

// Terminal reports whether the outcome ends the fight.
func (o Outcome) Terminal() bool { return o != OutcomeFighting }

const (
	initialTension = 20.0
	// Break threshold without a line mounted (bare-hands fallback).
	defaultLineLimit = 100.0
)

// FightSimulator mutates FightState for player actions and runs the
// automatic fish-resistance step after each one. The state machine is
// implicit in the numeric fields; outcomes are decided by threshold checks
// in a fixed priority order.
type FightSimulator struct {
	uniform func(lo, hi float64) float64
	chance  func(p float64) bool
}

// NewFightSimulator returns a simulator with the production RNG.
func NewFightSimulator() *FightSimulator {
	return &FightSimulator{uniform: uniform, chance: chance}
}

// NormalizedStrength maps weight x rarity onto the 1..10 scale via
// log1p, so a 30 kg legendary and a 0.3 kg roach land on the same axis.
func NormalizedStrength(weight float64, rarity model.Rarity) float64 {
	raw := weight * rarity.StrengthMultiplier()
	return math.Min(math.Max(1.0+math.Log1p(raw)*2.0, 1.0), 10.0)
}

// NewFight builds the initial fight state on a successful strike.
func (s *FightSimulator) NewFight(sessionID int64, weight float64, rarity model.Rarity, rodDurability int, now time.Time) *model.FightState {
	return &model.FightState{
		SessionID:     sessionID,
		FishStrength:  NormalizedStrength(weight, rarity),
		LineTension:   initialTension,
		Distance:      s.uniform(10, 30),
		RodDurability: float64(rodDurability),
		LastAction:    now,
	}
}

// Apply mutates the fight for one player action, runs the resistance step
// and returns the outcome. Tension and distance never go negative.
func (s *FightSimulator) Apply(f *model.FightState, action FightAction, rod *model.Rod, now time.Time) Outcome {
	switch action {
	case ActionReel:
		pull := rod.DragPower() / 6 * s.uniform(0.8, 1.8)
		f.Distance = math.Max(0, f.Distance-pull)
		f.LineTension += 1 + f.FishStrength*s.uniform(0.1, 0.5)
	case ActionPull:
		pull := rod.DragPower() / 6 * s.uniform(1.5, 3.0)
		f.Distance = math.Max(0, f.Distance-pull)
		f.LineTension += 2 + f.FishStrength*s.uniform(0.2, 0.7)
		f.RodDurability--
	case ActionWait:
		f.LineTension = math.Max(0, f.LineTension-8)
	}

	s.resist(f)
	f.LastAction = now
	return s.outcome(f, rod)
}

// resist is the automatic fish step after every action: an occasional
// surge, flat tension decay, and multiplicative fatigue floored at 1.
func (s *FightSimulator) resist(f *model.FightState) {
	if s.chance(0.2) {
		f.Distance += s.uniform(0.3, 0.8) + f.FishStrength*0.15
		f.LineTension += s.uniform(1.5, 3.5) + f.FishStrength*0.2
	}
	f.LineTension = math.Max(0, f.LineTension-2)
	f.FishStrength = math.Max(f.FishStrength*0.97, 1.0)
}

// outcome checks terminal conditions in priority order: line break first,
// then landed, then rod break.
func (s *FightSimulator) outcome(f *model.FightState, rod *model.Rod) Outcome {
	limit := defaultLineLimit
	if rod.Line != nil {
		limit = 70 + rod.Line.BreakingStrength*6
	}
	if f.LineTension >= limit {
		return OutcomeLineBreak
	}
	if f.Distance <= 0 {
		return OutcomeCaught
	}
	if f.RodDurability <= 0 {
		return OutcomeRodBreak
	}
	return OutcomeFighting
}
