package integration

import (
	"time"

	"github.com/klevoclub/klevo/internal/db"
	"github.com/klevoclub/klevo/internal/game/fishing"
	"github.com/klevoclub/klevo/internal/model"
)

func (s *IntegrationSuite) TestCreateAccount_Duplicates() {
	accounts := db.NewAccountRepository(s.db.Pool())

	acc, err := accounts.CreateAccount(s.ctx, "dup", "hash", "Dup")
	s.Require().NoError(err)
	s.NotZero(acc.ID)
	s.NotZero(acc.PlayerID)

	_, err = accounts.CreateAccount(s.ctx, "dup", "hash", "Other")
	s.ErrorIs(err, db.ErrLoginTaken)

	// Nickname collisions surface the same way.
	_, err = accounts.CreateAccount(s.ctx, "other", "hash", "Dup")
	s.ErrorIs(err, db.ErrLoginTaken)

	got, err := accounts.AccountByLogin(s.ctx, "dup")
	s.Require().NoError(err)
	s.Equal(acc.PlayerID, got.PlayerID)

	_, err = accounts.AccountByLogin(s.ctx, "nobody")
	s.ErrorIs(err, fishing.ErrNotFound)
}

func (s *IntegrationSuite) TestSessionRoundTrip() {
	playerID, rodID := s.seedPlayer(s.catalog)
	sessions := db.NewSessionRepository(s.db.Pool())

	sess := &model.FishingSession{
		PlayerID:   playerID,
		LocationID: s.catalog.location,
		RodID:      rodID,
		Slot:       1,
		State:      model.StateWaiting,
		CastX:      12.5,
		CastY:      7.25,
		CastTime:   time.Now().UTC(),
	}
	s.Require().NoError(sessions.CreateSession(s.ctx, sess))
	s.NotZero(sess.ID)

	exists, err := sessions.SessionForRodExists(s.ctx, playerID, rodID)
	s.Require().NoError(err)
	s.True(exists)

	// Phase data survives the nullable-column flattening.
	now := time.Now().UTC().Truncate(time.Microsecond)
	sess.State = model.StateNibble
	sess.Hooked = &model.HookedFish{SpeciesID: s.catalog.carp, Weight: 2.5, Length: 30}
	sess.Nibble = &model.PhaseWindow{Start: now, Duration: 2.5}
	s.Require().NoError(sessions.SaveSession(s.ctx, sess))

	got, err := sessions.SessionByID(s.ctx, playerID, sess.ID)
	s.Require().NoError(err)
	s.Equal(model.StateNibble, got.State)
	s.Require().NotNil(got.Hooked)
	s.Equal(s.catalog.carp, got.Hooked.SpeciesID)
	s.Equal(2.5, got.Hooked.Weight)
	s.Require().NotNil(got.Nibble)
	s.Equal(2.5, got.Nibble.Duration)
	s.WithinDuration(now, got.Nibble.Start, time.Millisecond)
	s.Nil(got.Bite)

	// Clearing the phase nulls the columns back out.
	sess.State = model.StateWaiting
	sess.ClearHooked()
	s.Require().NoError(sessions.SaveSession(s.ctx, sess))
	got, err = sessions.SessionByID(s.ctx, playerID, sess.ID)
	s.Require().NoError(err)
	s.Nil(got.Hooked)
	s.Nil(got.Nibble)

	// Ownership is part of the key.
	otherID, _ := s.seedPlayer(s.catalog)
	_, err = sessions.SessionByID(s.ctx, otherID, sess.ID)
	s.ErrorIs(err, fishing.ErrNotFound)
}

func (s *IntegrationSuite) TestFightCascadesWithSession() {
	playerID, rodID := s.seedPlayer(s.catalog)
	sessions := db.NewSessionRepository(s.db.Pool())

	sess := &model.FishingSession{
		PlayerID: playerID, LocationID: s.catalog.location, RodID: rodID,
		Slot: 1, State: model.StateFighting, CastTime: time.Now().UTC(),
	}
	s.Require().NoError(sessions.CreateSession(s.ctx, sess))
	s.Require().NoError(sessions.CreateFight(s.ctx, &model.FightState{
		SessionID:     sess.ID,
		FishStrength:  3.5,
		LineTension:   20,
		Distance:      18,
		RodDurability: 100,
		LastAction:    time.Now().UTC(),
	}))

	fight, err := sessions.FightBySession(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(3.5, fight.FishStrength)

	fight.LineTension = 42
	s.Require().NoError(sessions.SaveFight(s.ctx, fight))
	fight, err = sessions.FightBySession(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(42.0, fight.LineTension)

	s.Require().NoError(sessions.DeleteSession(s.ctx, sess.ID))
	_, err = sessions.FightBySession(s.ctx, sess.ID)
	s.ErrorIs(err, fishing.ErrNotFound)
}

func (s *IntegrationSuite) TestRodHydration() {
	playerID, rodID := s.seedPlayer(s.catalog)
	players := db.NewPlayerRepository(s.db.Pool())

	rod, err := players.Rod(s.ctx, playerID, rodID)
	s.Require().NoError(err)
	s.Require().NotNil(rod.Type)
	s.Equal(model.ClassFloat, rod.Type.Class)
	s.Require().NotNil(rod.Reel)
	s.Equal(6.0, rod.Reel.DragPower)
	s.Require().NotNil(rod.Line)
	s.Require().NotNil(rod.Hook)
	s.Require().NotNil(rod.Float)
	s.Require().NotNil(rod.Bait)
	s.Equal([]int64{s.catalog.carp}, rod.Bait.TargetSpecies)
	s.Equal(20, rod.BaitRemaining)
	s.True(rod.IsReady())

	// A snapped line clears line, hook and bait in one save.
	rod.Line = nil
	rod.Hook = nil
	rod.Bait = nil
	rod.BaitRemaining = 0
	rod.DurabilityCurrent = 73
	s.Require().NoError(players.SaveRod(s.ctx, rod))

	rod, err = players.Rod(s.ctx, playerID, rodID)
	s.Require().NoError(err)
	s.Nil(rod.Line)
	s.Nil(rod.Hook)
	s.Nil(rod.Bait)
	s.Equal(73, rod.DurabilityCurrent)
	s.False(rod.IsReady())
}

func (s *IntegrationSuite) TestInventoryAndCreel() {
	playerID, _ := s.seedPlayer(s.catalog)
	players := db.NewPlayerRepository(s.db.Pool())

	// Upsert accumulates quantity.
	s.Require().NoError(players.AddItem(s.ctx, playerID, model.KindBait, s.catalog.bait, 2))
	s.Require().NoError(players.AddItem(s.ctx, playerID, model.KindBait, s.catalog.bait, 3))
	n, err := players.InventoryCount(s.ctx, playerID, model.KindBait, s.catalog.bait)
	s.Require().NoError(err)
	s.Equal(5, n)

	s.Require().NoError(players.ConsumeItem(s.ctx, playerID, model.KindBait, s.catalog.bait, 4))
	n, err = players.InventoryCount(s.ctx, playerID, model.KindBait, s.catalog.bait)
	s.Require().NoError(err)
	s.Equal(1, n)

	// Overdraw fails without touching the stack.
	err = players.ConsumeItem(s.ctx, playerID, model.KindBait, s.catalog.bait, 2)
	s.ErrorIs(err, fishing.ErrNotFound)
	n, err = players.InventoryCount(s.ctx, playerID, model.KindBait, s.catalog.bait)
	s.Require().NoError(err)
	s.Equal(1, n)

	// Missing rows count as zero.
	n, err = players.InventoryCount(s.ctx, playerID, model.KindGroundbait, 999)
	s.Require().NoError(err)
	s.Zero(n)

	// Creel counts only unsold, unreleased fish.
	fish := &model.CaughtFish{
		PlayerID: playerID, SpeciesID: s.catalog.carp,
		Weight: 2.5, Length: 30, LocationID: s.catalog.location,
		CaughtAt: time.Now().UTC(),
	}
	s.Require().NoError(players.CreateCaughtFish(s.ctx, fish))
	s.NotZero(fish.ID)

	count, err := players.CreelCount(s.ctx, playerID)
	s.Require().NoError(err)
	s.Equal(1, count)

	_, err = s.db.Pool().Exec(s.ctx, `UPDATE caught_fish SET is_sold = TRUE WHERE id = $1`, fish.ID)
	s.Require().NoError(err)
	count, err = players.CreelCount(s.ctx, playerID)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *IntegrationSuite) TestKarmaAndExperience() {
	playerID, _ := s.seedPlayer(s.catalog)
	players := db.NewPlayerRepository(s.db.Pool())

	total, err := players.AddKarma(s.ctx, playerID, 3)
	s.Require().NoError(err)
	s.Equal(3, total)
	total, err = players.AddKarma(s.ctx, playerID, -5)
	s.Require().NoError(err)
	s.Equal(-2, total)

	s.Require().NoError(players.AddExperience(s.ctx, playerID, 25))
	p, err := players.Player(s.ctx, playerID)
	s.Require().NoError(err)
	s.Equal(25, p.Experience)
	s.Equal(-2, p.Karma)
}

func (s *IntegrationSuite) TestCatalogReads() {
	catalog := db.NewCatalogRepository(s.db.Pool())

	sp, err := catalog.Species(s.ctx, s.catalog.carp)
	s.Require().NoError(err)
	s.Equal("carp", sp.Name)
	s.Equal(model.RarityCommon, sp.Rarity)
	// JSONB activity map round-trips into typed buckets.
	s.Equal(0.9, sp.ActiveTime[model.Morning])
	s.Equal(0.6, sp.ActiveTime[model.Day])
	s.Equal(0.5, sp.ActivityAt(model.Night))

	stocking, err := catalog.Stocking(s.ctx, s.catalog.location)
	s.Require().NoError(err)
	s.Require().Len(stocking, 2)
	s.Equal(s.catalog.carp, stocking[0].Species.ID)
	s.Equal(0.6, stocking[0].SpawnWeight)
	s.Equal(s.catalog.pike, stocking[1].Species.ID)

	bait, err := catalog.Bait(s.ctx, s.catalog.bait)
	s.Require().NoError(err)
	s.True(bait.Targets(s.catalog.carp))
	s.False(bait.Targets(s.catalog.pike))

	_, err = catalog.Location(s.ctx, 99999)
	s.ErrorIs(err, fishing.ErrNotFound)
}

func (s *IntegrationSuite) TestBuffLifecycle() {
	playerID, _ := s.seedPlayer(s.catalog)
	buffs := db.NewBuffRepository(s.db.Pool())
	gt := model.GameTime{Hour: 10, Day: 2}

	s.Require().NoError(buffs.GrantBuff(s.ctx, &model.ActiveBuff{
		PlayerID: playerID, Effect: model.EffectLuck, Value: 0,
		Expires: model.GameTime{Hour: 12, Day: 2},
	}))
	// Duplicate effects keep the stronger value.
	s.Require().NoError(buffs.GrantBuff(s.ctx, &model.ActiveBuff{
		PlayerID: playerID, Effect: model.EffectBiteBoost, Value: 0.2,
		Expires: model.GameTime{Hour: 14, Day: 2},
	}))
	s.Require().NoError(buffs.GrantBuff(s.ctx, &model.ActiveBuff{
		PlayerID: playerID, Effect: model.EffectBiteBoost, Value: 0.5,
		Expires: model.GameTime{Hour: 11, Day: 2},
	}))
	// Already lapsed at gt.
	s.Require().NoError(buffs.GrantBuff(s.ctx, &model.ActiveBuff{
		PlayerID: playerID, Effect: model.EffectTrophy, Value: 0,
		Expires: model.GameTime{Hour: 9, Day: 2},
	}))

	active, err := buffs.ActiveEffects(s.ctx, playerID, gt)
	s.Require().NoError(err)
	s.True(active.Has(model.EffectLuck))
	s.False(active.Has(model.EffectTrophy))
	v, ok := active.Value(model.EffectBiteBoost)
	s.True(ok)
	s.Equal(0.5, v)

	// The sweep drops rows the clock has passed.
	deleted, err := buffs.DeleteExpiredBuffs(s.ctx, gt)
	s.Require().NoError(err)
	s.EqualValues(1, deleted)
}

func (s *IntegrationSuite) TestGameTimePersistence() {
	gametime := db.NewGameTimeRepository(s.db.Pool())

	// First load bootstraps the singleton at day 1, 08:00.
	gt, err := gametime.LoadGameTime(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.GameTime{Hour: 8, Day: 1}, gt)

	s.Require().NoError(gametime.SaveGameTime(s.ctx, model.GameTime{Hour: 23, Day: 4}))
	gt, err = gametime.LoadGameTime(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.GameTime{Hour: 23, Day: 4}, gt)
}

func (s *IntegrationSuite) TestSpotLifecycle() {
	playerID, _ := s.seedPlayer(s.catalog)
	sessions := db.NewSessionRepository(s.db.Pool())
	gametime := db.NewGameTimeRepository(s.db.Pool())

	spot := &model.GroundbaitSpot{
		PlayerID:   playerID,
		LocationID: s.catalog.location,
		Groundbait: &model.Groundbait{ID: s.catalog.groundbait},
		Flavoring:  &model.Flavoring{ID: s.catalog.flavoring},
		Expires:    model.GameTime{Hour: 11, Day: 1},
	}
	s.Require().NoError(sessions.CreateSpot(s.ctx, spot))

	got, err := sessions.ActiveSpot(s.ctx, playerID, s.catalog.location)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(model.GameTime{Hour: 11, Day: 1}, got.Expires)
	s.Require().NotNil(got.Groundbait)
	s.Equal("bread", got.Groundbait.Name)
	s.Require().NotNil(got.Flavoring)
	s.Equal(1.2, got.Flavoring.BonusMultiplier)

	// Not yet lapsed at 10:00.
	n, err := gametime.DeleteExpiredSpots(s.ctx, model.GameTime{Hour: 10, Day: 1})
	s.Require().NoError(err)
	s.Zero(n)

	// Gone once the clock reaches the expiry hour.
	n, err = gametime.DeleteExpiredSpots(s.ctx, model.GameTime{Hour: 11, Day: 1})
	s.Require().NoError(err)
	s.EqualValues(1, n)

	got, err = sessions.ActiveSpot(s.ctx, playerID, s.catalog.location)
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *IntegrationSuite) TestDecayHunger() {
	playerID, _ := s.seedPlayer(s.catalog)
	idleID, _ := s.seedPlayer(s.catalog)
	_, err := s.db.Pool().Exec(s.ctx,
		`UPDATE players SET location_id = 0 WHERE id = $1`, idleID)
	s.Require().NoError(err)
	_, err = s.db.Pool().Exec(s.ctx,
		`UPDATE players SET hunger = 1 WHERE id = $1`, playerID)
	s.Require().NoError(err)

	gametime := db.NewGameTimeRepository(s.db.Pool())
	n, err := gametime.DecayHunger(s.ctx, 2)
	s.Require().NoError(err)
	s.EqualValues(1, n)

	players := db.NewPlayerRepository(s.db.Pool())
	p, err := players.Player(s.ctx, playerID)
	s.Require().NoError(err)
	s.Zero(p.Hunger) // floored, not negative

	idle, err := players.Player(s.ctx, idleID)
	s.Require().NoError(err)
	s.Equal(100, idle.Hunger) // off-location players don't starve
}
