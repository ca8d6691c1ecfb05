package integration

import (
	"github.com/klevoclub/klevo/internal/db"
	"github.com/klevoclub/klevo/internal/game/clock"
	"github.com/klevoclub/klevo/internal/game/fishing"
	"github.com/klevoclub/klevo/internal/model"
)

// newEngine wires a real engine onto the suite's database.
func (s *IntegrationSuite) newEngine() *fishing.Engine {
	s.T().Helper()
	pool := s.db.Pool()
	svc, err := clock.New(s.ctx, db.NewGameTimeRepository(pool))
	s.Require().NoError(err)
	return fishing.NewEngine(fishing.DefaultConfig(), fishing.Deps{
		Store:   db.NewSessionRepository(pool),
		Players: db.NewPlayerRepository(pool),
		Catalog: db.NewCatalogRepository(pool),
		Buffs:   db.NewBuffRepository(pool),
		Clock:   svc,
	})
}

// TestFishingFlow drives cast, strike, fight, keep against the real
// schema. The bite itself is injected by SQL so the flow is not at the
// mercy of the bite roll; the fight is forced next to the shore so a
// single reel lands it regardless of the simulator's dice.
func (s *IntegrationSuite) TestFishingFlow() {
	playerID, rodID := s.seedPlayer(s.catalog)
	engine := s.newEngine()
	pool := s.db.Pool()

	cast, err := engine.Cast(s.ctx, playerID, rodID, 10, 20)
	s.Require().NoError(err)
	s.Equal(1, cast.Slot)

	// The same rod cannot go in twice.
	_, err = engine.Cast(s.ctx, playerID, rodID, 10, 20)
	s.ErrorIs(err, fishing.ErrPreconditionFailed)

	// Put a fish on the hook with a generous strike window.
	_, err = pool.Exec(s.ctx,
		`UPDATE fishing_sessions
		 SET state = 'bite', hooked_species_id = $2, hooked_weight = 2.5, hooked_length = 30,
		     bite_start = now(), bite_duration = 60
		 WHERE id = $1`,
		cast.SessionID, s.catalog.carp)
	s.Require().NoError(err)

	strike, err := engine.Strike(s.ctx, playerID, cast.SessionID)
	s.Require().NoError(err)
	s.Equal("carp", strike.FishName)
	s.Equal(20.0, strike.Tension)

	// Drag the fight next to the shore; one reel finishes it.
	_, err = pool.Exec(s.ctx,
		`UPDATE fight_states SET distance = 0.1, line_tension = 5, fish_strength = 1
		 WHERE session_id = $1`,
		cast.SessionID)
	s.Require().NoError(err)

	res, err := engine.ReelIn(s.ctx, playerID, cast.SessionID)
	s.Require().NoError(err)
	s.Equal(fishing.OutcomeCaught, res.Result)
	s.Equal(2.5, res.Weight)

	keep, err := engine.Keep(s.ctx, playerID, cast.SessionID)
	s.Require().NoError(err)
	s.Equal(s.catalog.carp, keep.Fish.SpeciesID)

	players := db.NewPlayerRepository(pool)
	count, err := players.CreelCount(s.ctx, playerID)
	s.Require().NoError(err)
	s.Equal(1, count)

	p, err := players.Player(s.ctx, playerID)
	s.Require().NoError(err)
	s.Equal(25, p.Experience) // 10 xp/kg for 2.5 kg

	rod, err := players.Rod(s.ctx, playerID, rodID)
	s.Require().NoError(err)
	s.Equal(19, rod.BaitRemaining)

	// The slot is free again.
	sessions := db.NewSessionRepository(pool)
	remaining, err := sessions.SessionsByPlayer(s.ctx, playerID)
	s.Require().NoError(err)
	s.Empty(remaining)
}

// TestGroundbaitFlow applies groundbait from inventory and checks the
// spot feeds back through the store.
func (s *IntegrationSuite) TestGroundbaitFlow() {
	playerID, _ := s.seedPlayer(s.catalog)
	engine := s.newEngine()
	players := db.NewPlayerRepository(s.db.Pool())

	// Nothing in the bag yet.
	_, err := engine.ApplyGroundbait(s.ctx, playerID, s.catalog.groundbait, nil)
	s.ErrorIs(err, fishing.ErrPreconditionFailed)

	s.Require().NoError(players.AddItem(s.ctx, playerID, model.KindGroundbait, s.catalog.groundbait, 1))
	s.Require().NoError(players.AddItem(s.ctx, playerID, model.KindFlavoring, s.catalog.flavoring, 1))

	res, err := engine.ApplyGroundbait(s.ctx, playerID, s.catalog.groundbait, &s.catalog.flavoring)
	s.Require().NoError(err)
	s.Equal(3, res.DurationHours)
	s.Equal("vanilla", res.FlavoringName)

	n, err := players.InventoryCount(s.ctx, playerID, model.KindGroundbait, s.catalog.groundbait)
	s.Require().NoError(err)
	s.Zero(n)

	spot, err := db.NewSessionRepository(s.db.Pool()).ActiveSpot(s.ctx, playerID, s.catalog.location)
	s.Require().NoError(err)
	s.Require().NotNil(spot)
	s.Equal("bread", spot.Groundbait.Name)
	s.Require().NotNil(spot.Flavoring)
}
