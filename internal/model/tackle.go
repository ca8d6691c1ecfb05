package model

// RodClass is the tackle discipline of a rod. Readiness rules and depth
// behaviour dispatch on it (tagged variant, no inheritance).
type RodClass string

const (
	ClassFloat    RodClass = "float"
	ClassBottom   RodClass = "bottom"
	ClassSpinning RodClass = "spinning"
)

// RodType is static content data for a rod blank.
type RodType struct {
	ID            int64
	Name          string
	Class         RodClass
	TestMin       float64 // kg
	TestMax       float64
	DurabilityMax int
	MinRank       int
}

// Reel with its drag power in kg. Drag power drives pull distance in fights.
type Reel struct {
	ID        int64
	Name      string
	DragPower float64
}

// Line with breaking strength in kg. The fight's tension limit derives
// from it: 70 + strength*6.
type Line struct {
	ID               int64
	Name             string
	BreakingStrength float64
}

// Hook for baited classes.
type Hook struct {
	ID   int64
	Name string
	Size int
}

// FloatTackle is the float for ClassFloat rods.
type FloatTackle struct {
	ID       int64
	Name     string
	Capacity float64 // g
}

// Lure is the artificial bait for spinning rods. Running depth depends on
// retrieve speed between DepthMin and DepthMax.
type Lure struct {
	ID            int64
	Name          string
	DepthMin      float64
	DepthMax      float64
	TargetSpecies []int64
}

// Bait is consumable natural bait with a target-species list.
type Bait struct {
	ID              int64
	Name            string
	TargetSpecies   []int64
	QuantityPerPack int
}

// Targets reports whether the bait explicitly targets the species.
func (b *Bait) Targets(speciesID int64) bool {
	for _, id := range b.TargetSpecies {
		if id == speciesID {
			return true
		}
	}
	return false
}

// Targets reports whether the lure explicitly targets the species.
func (l *Lure) Targets(speciesID int64) bool {
	for _, id := range l.TargetSpecies {
		if id == speciesID {
			return true
		}
	}
	return false
}

// Groundbait chums a spot for a number of game hours.
type Groundbait struct {
	ID            int64
	Name          string
	Effectiveness int // 1-10
	TargetSpecies []int64
	DurationHours int
}

// Flavoring is an additive applied together with groundbait.
type Flavoring struct {
	ID              int64
	Name            string
	BonusMultiplier float64
}

// MaxRetrieveSpeed is the top spinning retrieve speed. Speed is a 1..10
// knob; progress per tick is speed*0.005.
const MaxRetrieveSpeed = 10.0

// Rod is a player's assembled tackle. The core treats it as an immutable
// snapshot per tick; component swaps are only allowed while the session
// is WAITING.
type Rod struct {
	ID       int64
	PlayerID int64
	Type     *RodType

	Reel          *Reel
	Line          *Line
	Hook          *Hook
	Float         *FloatTackle
	Lure          *Lure
	Bait          *Bait
	BaitRemaining int

	DurabilityCurrent int
	DepthSetting      float64 // m, static depth for float/bottom gear
	RetrieveSpeed     float64 // 1..10, spinning only
}

// IsReady reports whether the rod is fully assembled for its class with
// non-empty consumables.
func (r *Rod) IsReady() bool {
	if r.Type == nil || r.Line == nil {
		return false
	}
	switch r.Type.Class {
	case ClassFloat:
		return r.Hook != nil && r.Float != nil && r.Bait != nil && r.BaitRemaining > 0
	case ClassBottom:
		return r.Hook != nil && r.Bait != nil && r.BaitRemaining > 0
	case ClassSpinning:
		return r.Lure != nil
	}
	return false
}

// EffectiveDepth is the depth the tackle actually fishes at. Passive gear
// uses the static depth setting; spinning gear interpolates the lure's
// running band by retrieve speed (faster retrieve runs shallower).
func (r *Rod) EffectiveDepth() float64 {
	if r.Type != nil && r.Type.Class == ClassSpinning && r.Lure != nil {
		frac := r.RetrieveSpeed / MaxRetrieveSpeed
		if frac < 0 {
			frac = 0
		} else if frac > 1 {
			frac = 1
		}
		return r.Lure.DepthMax - (r.Lure.DepthMax-r.Lure.DepthMin)*frac
	}
	return r.DepthSetting
}

// DragPower returns the reel's drag, with the bare-hands fallback used by
// the fight simulator when no reel is mounted.
func (r *Rod) DragPower() float64 {
	if r.Reel != nil {
		return r.Reel.DragPower
	}
	return 2.0
}

// TargetsSpecies reports whether the equipped bait or lure targets the
// species.
func (r *Rod) TargetsSpecies(speciesID int64) bool {
	if r.Bait != nil && r.Bait.Targets(speciesID) {
		return true
	}
	if r.Lure != nil && r.Lure.Targets(speciesID) {
		return true
	}
	return false
}

// TargetSpeciesIDs returns the union of bait and lure target lists.
func (r *Rod) TargetSpeciesIDs() []int64 {
	var ids []int64
	if r.Bait != nil {
		ids = append(ids, r.Bait.TargetSpecies...)
	}
	if r.Lure != nil {
		ids = append(ids, r.Lure.TargetSpecies...)
	}
	return ids
}
