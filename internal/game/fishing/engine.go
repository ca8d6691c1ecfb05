// Package fishing implements the fishing session engine: the per-player,
// per-rod state machine driving cast, nibble, bite, strike, fight and
// resolution, together with the bite-probability calculator, the species
// selector and the fight simulator.
//
// The engine itself is synchronous and holds no game state between calls;
// everything lives in the injected Store. Operations serialize per player,
// so a concurrent tick and a player action on the same session never
// interleave.
package fishing

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/klevoclub/klevo/internal/model"
)

// Phase windows and retrieval pacing.
const (
	nibbleDurationMin = 1.0 // seconds
	nibbleDurationMax = 3.0
	biteDurationMin   = 2.0
	biteDurationMax   = 4.0
	retrieveStep      = 0.005 // progress per tick per unit of retrieve speed
)

// Store persists sessions, fights and groundbait spots. Each method is
// atomic: single statements, or a transaction where a state transition
// touches both the session and its fight row. A fight row exists exactly
// while its session is FIGHTING, including across crashes.
type Store interface {
	SessionsByPlayer(ctx context.Context, playerID int64) ([]*model.FishingSession, error)
	SessionByID(ctx context.Context, playerID, sessionID int64) (*model.FishingSession, error)
	SessionForRodExists(ctx context.Context, playerID, rodID int64) (bool, error)
	CreateSession(ctx context.Context, s *model.FishingSession) error
	SaveSession(ctx context.Context, s *model.FishingSession) error
	// DeleteSession removes the session and, via the schema, its fight.
	DeleteSession(ctx context.Context, sessionID int64) error

	FightBySession(ctx context.Context, sessionID int64) (*model.FightState, error)
	// StartFight saves the session (now FIGHTING) and inserts the fight
	// in one transaction.
	StartFight(ctx context.Context, s *model.FishingSession, f *model.FightState) error
	SaveFight(ctx context.Context, f *model.FightState) error
	// EndFight saves the session (out of FIGHTING) and deletes the fight
	// in one transaction.
	EndFight(ctx context.Context, s *model.FishingSession) error

	// ActiveSpot returns the first groundbait spot for (player, location),
	// or nil when none exists. Expiry is checked by the caller.
	ActiveSpot(ctx context.Context, playerID, locationID int64) (*model.GroundbaitSpot, error)
	CreateSpot(ctx context.Context, s *model.GroundbaitSpot) error
}

// PlayerStore exposes the player attributes, rods, inventory and creel the
// engine reads and writes. It belongs to the surrounding CRUD layer.
type PlayerStore interface {
	Player(ctx context.Context, playerID int64) (*model.Player, error)

	Rod(ctx context.Context, playerID, rodID int64) (*model.Rod, error)
	SaveRod(ctx context.Context, r *model.Rod) error

	CreelCount(ctx context.Context, playerID int64) (int, error)
	// RecordCatch books the kept fish, grants experience, spends one unit
	// of the rod's bait and deletes the session, all in one transaction.
	// Retrying after a failure never duplicates the catch.
	RecordCatch(ctx context.Context, fish *model.CaughtFish, exp int, rodID, sessionID int64) error
	// RecordRelease grants karma and experience, spends one unit of the
	// rod's bait and deletes the session, all in one transaction. Returns
	// the player's karma total.
	RecordRelease(ctx context.Context, playerID int64, karma, exp int, rodID, sessionID int64) (total int, err error)

	InventoryCount(ctx context.Context, playerID int64, kind model.ItemKind, itemID int64) (int, error)
	ConsumeItem(ctx context.Context, playerID int64, kind model.ItemKind, itemID int64, n int) error
	AddItem(ctx context.Context, playerID int64, kind model.ItemKind, itemID int64, n int) error
}

// Catalog is read-only content data: locations, stocking, species, tackle.
type Catalog interface {
	Location(ctx context.Context, id int64) (*model.Location, error)
	Stocking(ctx context.Context, locationID int64) ([]model.Stocking, error)
	Species(ctx context.Context, id int64) (*model.FishSpecies, error)
	Bait(ctx context.Context, id int64) (*model.Bait, error)
	Groundbait(ctx context.Context, id int64) (*model.Groundbait, error)
	Flavoring(ctx context.Context, id int64) (*model.Flavoring, error)
}

// BuffSource resolves the player's active consumable effects at a game
// time.
type BuffSource interface {
	ActiveEffects(ctx context.Context, playerID int64, gt model.GameTime) (Buffs, error)
}

// Clock provides the game-time snapshot read at the start of an operation.
type Clock interface {
	Snapshot(ctx context.Context) (model.GameTime, error)
}

// KeepSideEffects is what the external record/quest/achievement services
// report back when a fish is kept.
type KeepSideEffects struct {
	NewRecord       bool
	CompletedQuests []string
	NewAchievements []string
}

// Rewards receives keep events. The engine tolerates a nil Rewards.
type Rewards interface {
	FishKept(ctx context.Context, player *model.Player, fish *model.CaughtFish, species *model.FishSpecies) (KeepSideEffects, error)
}

// Config are the tunables of the engine.
type Config struct {
	MaxActiveRods int
	MaxCreelSize  int
	// ReturnReplacedBait controls whether ChangeBait puts the previously
	// equipped bait back into the player's inventory.
	ReturnReplacedBait bool
}

// DefaultConfig matches the original game settings.
func DefaultConfig() Config {
	return Config{MaxActiveRods: 3, MaxCreelSize: 25}
}

// Deps are the engine's injected collaborators.
type Deps struct {
	Store   Store
	Players PlayerStore
	Catalog Catalog
	Buffs   BuffSource
	Clock   Clock
	Rewards Rewards // optional
}

// Engine orchestrates the per-rod session state machines.
type Engine struct {
	cfg Config

	store   Store
	players PlayerStore
	catalog Catalog
	buffs   BuffSource
	clock   Clock
	rewards Rewards

	bite     *BiteCalculator
	selector *SpeciesSelector
	sim      *FightSimulator

	now func() time.Time

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewEngine wires the engine with its collaborators.
func NewEngine(cfg Config, deps Deps) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    deps.Store,
		players:  deps.Players,
		catalog:  deps.Catalog,
		buffs:    deps.Buffs,
		clock:    deps.Clock,
		rewards:  deps.Rewards,
		bite:     NewBiteCalculator(),
		selector: NewSpeciesSelector(),
		sim:      NewFightSimulator(),
		now:      time.Now,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// lockPlayer serializes all operations for one player. Returns the unlock.
func (e *Engine) lockPlayer(playerID int64) func() {
	e.mu.Lock()
	l, ok := e.locks[playerID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[playerID] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// CastResult is the outcome of a successful cast.
type CastResult struct {
	SessionID int64
	Slot      int
}

// Cast validates the rod and the player's slot budget and creates a new
// WAITING session on the lowest free slot. Never partially applies.
func (e *Engine) Cast(ctx context.Context, playerID, rodID int64, x, y float64) (CastResult, error) {
	defer e.lockPlayer(playerID)()

	player, err := e.players.Player(ctx, playerID)
	if err != nil {
		return CastResult{}, err
	}
	if !player.AtLocation() {
		return CastResult{}, precondition("player %d is not at a location", playerID)
	}

	rod, err := e.players.Rod(ctx, playerID, rodID)
	if err != nil {
		return CastResult{}, err
	}
	if !rod.IsReady() {
		return CastResult{}, precondition("rod %d is not fully assembled", rodID)
	}
	if rod.DurabilityCurrent <= 0 {
		return CastResult{}, precondition("rod %d is broken", rodID)
	}
	if !player.HasEquipped(rodID) {
		return CastResult{}, precondition("rod %d is not equipped into a slot", rodID)
	}

	exists, err := e.store.SessionForRodExists(ctx, playerID, rodID)
	if err != nil {
		return CastResult{}, err
	}
	if exists {
		return CastResult{}, precondition("rod %d is already cast", rodID)
	}

	sessions, err := e.store.SessionsByPlayer(ctx, playerID)
	if err != nil {
		return CastResult{}, err
	}
	active := 0
	used := make(map[int]bool, len(sessions))
	for _, s := range sessions {
		if s.State.Active() {
			active++
		}
		// CAUGHT sessions still hold their slot until resolved.
		used[s.Slot] = true
	}
	if active >= e.cfg.MaxActiveRods {
		return CastResult{}, precondition("at most %d rods may be active", e.cfg.MaxActiveRods)
	}
	slot := 0
	for i := 1; i <= e.cfg.MaxActiveRods; i++ {
		if !used[i] {
			slot = i
			break
		}
	}
	if slot == 0 {
		return CastResult{}, precondition("no free rod slot")
	}

	session := &model.FishingSession{
		PlayerID:   playerID,
		LocationID: player.LocationID,
		RodID:      rodID,
		Slot:       slot,
		State:      model.StateWaiting,
		CastX:      x,
		CastY:      y,
		CastTime:   e.now(),
	}
	if err := e.store.CreateSession(ctx, session); err != nil {
		return CastResult{}, err
	}

	slog.Debug("rod cast", "player", playerID, "rod", rodID, "slot", slot)
	return CastResult{SessionID: session.ID, Slot: slot}, nil
}

// TickResult is the full per-player snapshot returned by Tick.
type TickResult struct {
	Sessions []*model.FishingSession
	Fights   map[int64]*model.FightState
	GameTime model.GameTime
}

// Tick processes timers for all of the player's sessions. Safe to call at
// any cadence: each phase check is idempotent against elapsed wall-clock
// time. Phase order per call: expire BITE, promote NIBBLE, advance WAITING.
// The ordering keeps a session from skipping states within one tick.
func (e *Engine) Tick(ctx context.Context, playerID int64) (TickResult, error) {
	defer e.lockPlayer(playerID)()

	gt, err := e.clock.Snapshot(ctx)
	if err != nil {
		return TickResult{}, err
	}
	sessions, err := e.store.SessionsByPlayer(ctx, playerID)
	if err != nil {
		return TickResult{}, err
	}
	res := TickResult{Fights: map[int64]*model.FightState{}, GameTime: gt}
	if len(sessions) == 0 {
		return res, nil
	}

	now := e.now()

	// (a) Expired bite windows fall back to WAITING. Self-healing, no error.
	for _, s := range sessions {
		if s.State == model.StateBite && s.Bite != nil && s.Bite.Expired(now) {
			s.State = model.StateWaiting
			s.ClearHooked()
			if err := e.store.SaveSession(ctx, s); err != nil {
				return TickResult{}, err
			}
		}
	}

	// (b) Elapsed nibbles become strikeable bites.
	for _, s := range sessions {
		if s.State == model.StateNibble && s.Nibble != nil && s.Nibble.Expired(now) {
			s.State = model.StateBite
			s.Nibble = nil
			s.Bite = &model.PhaseWindow{Start: now, Duration: uniform(biteDurationMin, biteDurationMax)}
			if err := e.store.SaveSession(ctx, s); err != nil {
				return TickResult{}, err
			}
		}
	}

	// (c) WAITING sessions advance retrieval and roll for nibbles.
	player, err := e.players.Player(ctx, playerID)
	if err != nil {
		return TickResult{}, err
	}
	buffs, err := e.buffs.ActiveEffects(ctx, playerID, gt)
	if err != nil {
		return TickResult{}, err
	}
	stockingByLoc := map[int64][]model.Stocking{}
	spotByLoc := map[int64]*model.GroundbaitSpot{}

	kept := sessions[:0]
	for _, s := range sessions {
		if s.State != model.StateWaiting {
			kept = append(kept, s)
			continue
		}
		rod, err := e.players.Rod(ctx, playerID, s.RodID)
		if err != nil {
			return TickResult{}, err
		}

		if rod.Type != nil && rod.Type.Class == model.ClassSpinning && s.Retrieving {
			s.RetrieveProgress = math.Min(1.0, s.RetrieveProgress+rod.RetrieveSpeed*retrieveStep)
			if s.RetrieveProgress >= 1.0 {
				// Lure reached the shore: auto-retrieve.
				if err := e.store.DeleteSession(ctx, s.ID); err != nil {
					return TickResult{}, err
				}
				continue
			}
			if err := e.store.SaveSession(ctx, s); err != nil {
				return TickResult{}, err
			}
		}

		stocking, ok := stockingByLoc[s.LocationID]
		if !ok {
			if stocking, err = e.catalog.Stocking(ctx, s.LocationID); err != nil {
				return TickResult{}, err
			}
			stockingByLoc[s.LocationID] = stocking
			spot, err := e.store.ActiveSpot(ctx, playerID, s.LocationID)
			if err != nil {
				return TickResult{}, err
			}
			spotByLoc[s.LocationID] = spot
		}
		spot := spotByLoc[s.LocationID]

		env := BiteEnv{Player: player, Rod: rod, Stocking: stocking, Spot: spot, Time: gt, Buffs: buffs}
		if e.bite.TryBite(env) {
			sp := e.selector.Pick(PickEnv{Rod: rod, Stocking: stocking, Spot: spot, Time: gt, Buffs: buffs})
			if sp != nil {
				w := e.selector.SampleWeight(sp, buffs.Has(model.EffectTrophy))
				s.Hooked = &model.HookedFish{SpeciesID: sp.ID, Weight: w, Length: e.selector.SampleLength(sp, w)}
				s.State = model.StateNibble
				s.Nibble = &model.PhaseWindow{Start: now, Duration: uniform(nibbleDurationMin, nibbleDurationMax)}
				if err := e.store.SaveSession(ctx, s); err != nil {
					return TickResult{}, err
				}
				slog.Debug("nibble", "player", playerID, "session", s.ID, "species", sp.ID, "weight", w)
			}
		}
		kept = append(kept, s)
	}

	for _, s := range kept {
		if s.State == model.StateFighting {
			fight, err := e.store.FightBySession(ctx, s.ID)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return TickResult{}, err
			}
			res.Fights[s.ID] = fight
		}
	}
	res.Sessions = kept
	return res, nil
}

// StrikeResult describes the freshly started fight.
type StrikeResult struct {
	SessionID int64
	FishName  string
	SpeciesID int64
	Tension   float64
	Distance  float64
}

// Strike converts a pending bite into a fight. Rejected while another of
// the player's sessions is already fighting; a late strike resets the
// session to WAITING and returns ErrExpired.
func (e *Engine) Strike(ctx context.Context, playerID, sessionID int64) (StrikeResult, error) {
	defer e.lockPlayer(playerID)()

	session, err := e.store.SessionByID(ctx, playerID, sessionID)
	if err != nil {
		return StrikeResult{}, err
	}
	if session.State != model.StateBite {
		return StrikeResult{}, invalidState("cannot strike from state %q", session.State)
	}

	sessions, err := e.store.SessionsByPlayer(ctx, playerID)
	if err != nil {
		return StrikeResult{}, err
	}
	for _, s := range sessions {
		if s.ID != session.ID && s.State == model.StateFighting {
			return StrikeResult{}, precondition("another rod is already fighting a fish")
		}
	}

	now := e.now()
	if session.Bite == nil || session.Bite.Expired(now) {
		session.State = model.StateWaiting
		session.ClearHooked()
		if err := e.store.SaveSession(ctx, session); err != nil {
			return StrikeResult{}, err
		}
		return StrikeResult{}, ErrExpired
	}

	rod, err := e.players.Rod(ctx, playerID, session.RodID)
	if err != nil {
		return StrikeResult{}, err
	}
	species, err := e.catalog.Species(ctx, session.Hooked.SpeciesID)
	if err != nil {
		return StrikeResult{}, err
	}

	session.State = model.StateFighting
	session.Nibble = nil
	session.Bite = nil
	fight := e.sim.NewFight(session.ID, session.Hooked.Weight, species.Rarity, rod.DurabilityCurrent, now)
	if err := e.store.StartFight(ctx, session, fight); err != nil {
		return StrikeResult{}, err
	}

	slog.Debug("strike", "player", playerID, "session", sessionID, "species", species.ID)
	return StrikeResult{
		SessionID: session.ID,
		FishName:  species.Name,
		SpeciesID: species.ID,
		Tension:   fight.LineTension,
		Distance:  fight.Distance,
	}, nil
}

// FightResult is the outcome of one reel/pull/wait action.
type FightResult struct {
	SessionID int64
	Result    Outcome

	// Fighting only.
	Tension       float64
	Distance      float64
	RodDurability float64

	// Caught only.
	FishName  string
	SpeciesID int64
	Weight    float64
	Length    float64
	Rarity    model.Rarity
}

// ReelIn applies the reel action to the session's fight.
func (e *Engine) ReelIn(ctx context.Context, playerID, sessionID int64) (FightResult, error) {
	return e.fightAction(ctx, playerID, sessionID, ActionReel)
}

// PullRod applies the stronger rod pull; wears the rod.
func (e *Engine) PullRod(ctx context.Context, playerID, sessionID int64) (FightResult, error) {
	return e.fightAction(ctx, playerID, sessionID, ActionPull)
}

// Wait lets the tension drain without pulling.
func (e *Engine) Wait(ctx context.Context, playerID, sessionID int64) (FightResult, error) {
	return e.fightAction(ctx, playerID, sessionID, ActionWait)
}

func (e *Engine) fightAction(ctx context.Context, playerID, sessionID int64, action FightAction) (FightResult, error) {
	defer e.lockPlayer(playerID)()

	session, err := e.store.SessionByID(ctx, playerID, sessionID)
	if err != nil {
		return FightResult{}, err
	}
	if session.State != model.StateFighting {
		return FightResult{}, invalidState("session %d is not fighting", sessionID)
	}
	fight, err := e.store.FightBySession(ctx, sessionID)
	if err != nil {
		return FightResult{}, err
	}
	rod, err := e.players.Rod(ctx, playerID, session.RodID)
	if err != nil {
		return FightResult{}, err
	}

	outcome := e.sim.Apply(fight, action, rod, e.now())
	switch outcome {
	case OutcomeCaught:
		rod.DurabilityCurrent = max(0, int(fight.RodDurability))
		if err := e.players.SaveRod(ctx, rod); err != nil {
			return FightResult{}, err
		}
		session.State = model.StateCaught
		if err := e.store.EndFight(ctx, session); err != nil {
			return FightResult{}, err
		}
		species, err := e.catalog.Species(ctx, session.Hooked.SpeciesID)
		if err != nil {
			return FightResult{}, err
		}
		slog.Debug("fish landed", "player", playerID, "session", sessionID, "species", species.ID)
		return FightResult{
			SessionID: sessionID,
			Result:    OutcomeCaught,
			FishName:  species.Name,
			SpeciesID: species.ID,
			Weight:    session.Hooked.Weight,
			Length:    session.Hooked.Length,
			Rarity:    species.Rarity,
		}, nil

	case OutcomeLineBreak, OutcomeRodBreak:
		if outcome == OutcomeRodBreak {
			rod.DurabilityCurrent = 0
		} else {
			rod.DurabilityCurrent = max(0, int(fight.RodDurability))
			// The fish took the line, hook and bait with it.
			rod.Line = nil
			rod.Hook = nil
			rod.Bait = nil
			rod.BaitRemaining = 0
		}
		if err := e.players.SaveRod(ctx, rod); err != nil {
			return FightResult{}, err
		}
		// The fight row goes with the session.
		if err := e.store.DeleteSession(ctx, sessionID); err != nil {
			return FightResult{}, err
		}
		slog.Debug("fight lost", "player", playerID, "session", sessionID, "outcome", outcome)
		return FightResult{SessionID: sessionID, Result: outcome}, nil

	default:
		if err := e.store.SaveFight(ctx, fight); err != nil {
			return FightResult{}, err
		}
		return FightResult{
			SessionID:     sessionID,
			Result:        OutcomeFighting,
			Tension:       fight.LineTension,
			Distance:      fight.Distance,
			RodDurability: fight.RodDurability,
		}, nil
	}
}

// KeepResult is the kept catch plus the external side effects.
type KeepResult struct {
	Fish        *model.CaughtFish
	SideEffects KeepSideEffects
}

// Keep puts the caught fish into the creel, grants experience, consumes
// one unit of bait and deletes the session. Record/quest/achievement
// bookkeeping is delegated to the Rewards collaborator.
func (e *Engine) Keep(ctx context.Context, playerID, sessionID int64) (KeepResult, error) {
	defer e.lockPlayer(playerID)()

	session, err := e.store.SessionByID(ctx, playerID, sessionID)
	if err != nil {
		return KeepResult{}, err
	}
	if session.State != model.StateCaught {
		return KeepResult{}, invalidState("session %d has no fish to keep", sessionID)
	}

	count, err := e.players.CreelCount(ctx, playerID)
	if err != nil {
		return KeepResult{}, err
	}
	if count >= e.cfg.MaxCreelSize {
		return KeepResult{}, precondition("creel is full (%d fish)", e.cfg.MaxCreelSize)
	}

	player, err := e.players.Player(ctx, playerID)
	if err != nil {
		return KeepResult{}, err
	}
	species, err := e.catalog.Species(ctx, session.Hooked.SpeciesID)
	if err != nil {
		return KeepResult{}, err
	}

	fish := &model.CaughtFish{
		PlayerID:   playerID,
		SpeciesID:  species.ID,
		Weight:     session.Hooked.Weight,
		Length:     session.Hooked.Length,
		LocationID: session.LocationID,
		CaughtAt:   e.now(),
	}

	var effects KeepSideEffects
	if e.rewards != nil {
		if effects, err = e.rewards.FishKept(ctx, player, fish, species); err != nil {
			return KeepResult{}, err
		}
		fish.IsRecord = effects.NewRecord
	}
	exp := model.ExperienceReward(species, fish.Weight)
	if err := e.players.RecordCatch(ctx, fish, exp, session.RodID, sessionID); err != nil {
		return KeepResult{}, err
	}

	slog.Info("fish kept", "player", playerID, "species", species.ID, "weight", fish.Weight, "record", fish.IsRecord)
	return KeepResult{Fish: fish, SideEffects: effects}, nil
}

// ReleaseResult reports the karma earned for letting the fish go.
type ReleaseResult struct {
	KarmaBonus int
	KarmaTotal int
}

// Release lets the caught fish go for karma and half experience.
func (e *Engine) Release(ctx context.Context, playerID, sessionID int64) (ReleaseResult, error) {
	defer e.lockPlayer(playerID)()

	session, err := e.store.SessionByID(ctx, playerID, sessionID)
	if err != nil {
		return ReleaseResult{}, err
	}
	if session.State != model.StateCaught {
		return ReleaseResult{}, invalidState("session %d has no fish to release", sessionID)
	}
	species, err := e.catalog.Species(ctx, session.Hooked.SpeciesID)
	if err != nil {
		return ReleaseResult{}, err
	}

	bonus := max(1, int(session.Hooked.Weight))
	exp := int(float64(species.ExperiencePerKg) * session.Hooked.Weight * 0.5)
	total, err := e.players.RecordRelease(ctx, playerID, bonus, exp, session.RodID, sessionID)
	if err != nil {
		return ReleaseResult{}, err
	}

	slog.Info("fish released", "player", playerID, "species", species.ID, "karma", bonus)
	return ReleaseResult{KarmaBonus: bonus, KarmaTotal: total}, nil
}

// Retrieve pulls the rod out of the water. Only idle or waiting sessions
// may be retrieved; everything else resolves through its own path.
func (e *Engine) Retrieve(ctx context.Context, playerID, sessionID int64) error {
	defer e.lockPlayer(playerID)()

	session, err := e.store.SessionByID(ctx, playerID, sessionID)
	if err != nil {
		return err
	}
	if session.State != model.StateIdle && session.State != model.StateWaiting {
		return invalidState("cannot retrieve from state %q", session.State)
	}
	return e.store.DeleteSession(ctx, sessionID)
}

// SetRetrieving toggles spinning retrieval on a WAITING session. Turning
// it off resets progress, as if the lure were recast.
func (e *Engine) SetRetrieving(ctx context.Context, playerID, sessionID int64, on bool) error {
	defer e.lockPlayer(playerID)()

	session, err := e.store.SessionByID(ctx, playerID, sessionID)
	if err != nil {
		return err
	}
	if session.State != model.StateWaiting {
		return invalidState("cannot change retrieval in state %q", session.State)
	}
	session.Retrieving = on
	if !on {
		session.RetrieveProgress = 0
	}
	return e.store.SaveSession(ctx, session)
}

// ChangeBaitResult reports the freshly mounted bait.
type ChangeBaitResult struct {
	SessionID   int64
	NewBaitName string
	Remaining   int
}

// ChangeBait swaps the rod's bait while the session is WAITING. Whether
// the replaced bait goes back into inventory is a policy flag.
func (e *Engine) ChangeBait(ctx context.Context, playerID, sessionID, baitID int64) (ChangeBaitResult, error) {
	defer e.lockPlayer(playerID)()

	session, err := e.store.SessionByID(ctx, playerID, sessionID)
	if err != nil {
		return ChangeBaitResult{}, err
	}
	if session.State != model.StateWaiting {
		return ChangeBaitResult{}, invalidState("cannot change bait in state %q", session.State)
	}

	bait, err := e.catalog.Bait(ctx, baitID)
	if err != nil {
		return ChangeBaitResult{}, err
	}
	n, err := e.players.InventoryCount(ctx, playerID, model.KindBait, baitID)
	if err != nil {
		return ChangeBaitResult{}, err
	}
	if n < 1 {
		return ChangeBaitResult{}, precondition("no bait %d in inventory", baitID)
	}

	rod, err := e.players.Rod(ctx, playerID, session.RodID)
	if err != nil {
		return ChangeBaitResult{}, err
	}
	if e.cfg.ReturnReplacedBait && rod.Bait != nil {
		if err := e.players.AddItem(ctx, playerID, model.KindBait, rod.Bait.ID, 1); err != nil {
			return ChangeBaitResult{}, err
		}
	}
	rod.Bait = bait
	rod.BaitRemaining = bait.QuantityPerPack
	if err := e.players.SaveRod(ctx, rod); err != nil {
		return ChangeBaitResult{}, err
	}

	return ChangeBaitResult{SessionID: sessionID, NewBaitName: bait.Name, Remaining: rod.BaitRemaining}, nil
}

// GroundbaitResult reports the applied spot.
type GroundbaitResult struct {
	DurationHours int
	FlavoringName string
}

// ApplyGroundbait chums the player's current location, consuming the
// groundbait (and optional flavoring) from inventory. The spot expires in
// game time, not wall-clock.
func (e *Engine) ApplyGroundbait(ctx context.Context, playerID, groundbaitID int64, flavoringID *int64) (GroundbaitResult, error) {
	defer e.lockPlayer(playerID)()

	player, err := e.players.Player(ctx, playerID)
	if err != nil {
		return GroundbaitResult{}, err
	}
	if !player.AtLocation() {
		return GroundbaitResult{}, precondition("player %d is not at a location", playerID)
	}

	gb, err := e.catalog.Groundbait(ctx, groundbaitID)
	if err != nil {
		return GroundbaitResult{}, err
	}
	n, err := e.players.InventoryCount(ctx, playerID, model.KindGroundbait, groundbaitID)
	if err != nil {
		return GroundbaitResult{}, err
	}
	if n < 1 {
		return GroundbaitResult{}, precondition("no groundbait %d in inventory", groundbaitID)
	}

	var flavoring *model.Flavoring
	if flavoringID != nil {
		if flavoring, err = e.catalog.Flavoring(ctx, *flavoringID); err != nil {
			return GroundbaitResult{}, err
		}
		fn, err := e.players.InventoryCount(ctx, playerID, model.KindFlavoring, *flavoringID)
		if err != nil {
			return GroundbaitResult{}, err
		}
		if fn < 1 {
			return GroundbaitResult{}, precondition("no flavoring %d in inventory", *flavoringID)
		}
		if err := e.players.ConsumeItem(ctx, playerID, model.KindFlavoring, *flavoringID, 1); err != nil {
			return GroundbaitResult{}, err
		}
	}
	if err := e.players.ConsumeItem(ctx, playerID, model.KindGroundbait, groundbaitID, 1); err != nil {
		return GroundbaitResult{}, err
	}

	gt, err := e.clock.Snapshot(ctx)
	if err != nil {
		return GroundbaitResult{}, err
	}
	spot := &model.GroundbaitSpot{
		PlayerID:   playerID,
		LocationID: player.LocationID,
		Groundbait: gb,
		Flavoring:  flavoring,
		Expires:    gt.AddHours(gb.DurationHours),
	}
	if err := e.store.CreateSpot(ctx, spot); err != nil {
		return GroundbaitResult{}, err
	}

	res := GroundbaitResult{DurationHours: gb.DurationHours}
	if flavoring != nil {
		res.FlavoringName = flavoring.Name
	}
	slog.Debug("groundbait applied", "player", playerID, "location", player.LocationID, "expires", spot.Expires)
	return res, nil
}

