package integration

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/klevoclub/klevo/internal/db"
)

// schemaCounter provides unique schema names for parallel suites.
var schemaCounter atomic.Uint32

// acquireSchema creates an isolated PostgreSQL schema and returns a DSN
// with search_path pointing at it. The schema is dropped via t.Cleanup.
func acquireSchema(t testing.TB) string {
	t.Helper()
	ctx := context.Background()

	schemaName := fmt.Sprintf("test_%d", schemaCounter.Add(1))

	conn, err := pgx.Connect(ctx, sharedPGBaseDSN)
	if err != nil {
		t.Fatalf("connect to shared postgres: %v", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE SCHEMA "+schemaName); err != nil {
		t.Fatalf("create schema %s: %v", schemaName, err)
	}

	t.Cleanup(func() {
		cleanCtx := context.Background()
		cleanConn, err := pgx.Connect(cleanCtx, sharedPGBaseDSN)
		if err != nil {
			t.Logf("cleanup: connect failed: %v", err)
			return
		}
		defer cleanConn.Close(cleanCtx)
		if _, err := cleanConn.Exec(cleanCtx, "DROP SCHEMA "+schemaName+" CASCADE"); err != nil {
			t.Logf("cleanup: drop schema %s: %v", schemaName, err)
		}
	})

	sep := "&"
	if !strings.Contains(sharedPGBaseDSN, "?") {
		sep = "?"
	}
	return sharedPGBaseDSN + sep + "search_path=" + schemaName
}

// catalogIDs are the content rows seeded once per suite.
type catalogIDs struct {
	location   int64
	carp       int64 // common, targeted by the worm bait
	pike       int64 // rare, night feeder
	rodType    int64
	reel       int64
	line       int64
	hook       int64
	float      int64
	bait       int64
	groundbait int64
	flavoring  int64
}

// seedCatalog inserts the minimal content set the fishing flow needs.
func (s *IntegrationSuite) seedCatalog() catalogIDs {
	s.T().Helper()
	var ids catalogIDs
	pool := s.db.Pool()

	require.NoError(s.T(), pool.QueryRow(s.ctx,
		`INSERT INTO locations (name, min_rank) VALUES ('test pond', 1) RETURNING id`,
	).Scan(&ids.location))

	require.NoError(s.T(), pool.QueryRow(s.ctx,
		`INSERT INTO fish_species (name, rarity, weight_min, weight_max, length_min, length_max, active_time, experience_per_kg)
		 VALUES ('carp', 'common', 0.5, 4.5, 10, 50, '{"morning": 0.9, "day": 0.6}', 10) RETURNING id`,
	).Scan(&ids.carp))
	require.NoError(s.T(), pool.QueryRow(s.ctx,
		`INSERT INTO fish_species (name, rarity, weight_min, weight_max, length_min, length_max, active_time, experience_per_kg)
		 VALUES ('pike', 'rare', 1, 12, 30, 110, '{"night": 1.0}', 25) RETURNING id`,
	).Scan(&ids.pike))
	_, err := pool.Exec(s.ctx,
		`INSERT INTO location_fish (location_id, species_id, spawn_weight) VALUES ($1, $2, 0.6), ($1, $3, 0.2)`,
		ids.location, ids.carp, ids.pike)
	require.NoError(s.T(), err)

	require.NoError(s.T(), pool.QueryRow(s.ctx,
		`INSERT INTO rod_types (name, rod_class, durability_max) VALUES ('birch float rod', 'float', 100) RETURNING id`,
	).Scan(&ids.rodType))
	require.NoError(s.T(), pool.QueryRow(s.ctx,
		`INSERT INTO reels (name, drag_power) VALUES ('basic reel', 6) RETURNING id`,
	).Scan(&ids.reel))
	require.NoError(s.T(), pool.QueryRow(s.ctx,
		`INSERT INTO lines (name, breaking_strength) VALUES ('mono 0.2', 5) RETURNING id`,
	).Scan(&ids.line))
	require.NoError(s.T(), pool.QueryRow(s.ctx,
		`INSERT INTO hooks (name, size) VALUES ('hook #6', 6) RETURNING id`,
	).Scan(&ids.hook))
	require.NoError(s.T(), pool.QueryRow(s.ctx,
		`INSERT INTO floats (name, capacity) VALUES ('goose quill', 2) RETURNING id`,
	).Scan(&ids.float))
	require.NoError(s.T(), pool.QueryRow(s.ctx,
		`INSERT INTO baits (name, target_species, quantity_per_pack) VALUES ('worm', $1, 20) RETURNING id`,
		[]int64{ids.carp},
	).Scan(&ids.bait))
	require.NoError(s.T(), pool.QueryRow(s.ctx,
		`INSERT INTO groundbaits (name, effectiveness, duration_hours) VALUES ('bread', 5, 3) RETURNING id`,
	).Scan(&ids.groundbait))
	require.NoError(s.T(), pool.QueryRow(s.ctx,
		`INSERT INTO flavorings (name, bonus_multiplier) VALUES ('vanilla', 1.2) RETURNING id`,
	).Scan(&ids.flavoring))

	return ids
}

var playerCounter atomic.Uint32

// seedPlayer registers an account, moves the player to the location and
// equips one fully assembled rod into slot 1. Returns player and rod ids.
func (s *IntegrationSuite) seedPlayer(ids catalogIDs) (playerID, rodID int64) {
	s.T().Helper()
	n := playerCounter.Add(1)

	accounts := db.NewAccountRepository(s.db.Pool())
	acc, err := accounts.CreateAccount(s.ctx,
		fmt.Sprintf("angler%d", n), "x", fmt.Sprintf("Angler%d", n))
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.db.Pool().QueryRow(s.ctx,
		`INSERT INTO rods (player_id, rod_type_id, reel_id, line_id, hook_id, float_id, bait_id, bait_remaining, durability_current, depth_setting)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 20, 100, 2.0) RETURNING id`,
		acc.PlayerID, ids.rodType, ids.reel, ids.line, ids.hook, ids.float, ids.bait,
	).Scan(&rodID))

	_, err = s.db.Pool().Exec(s.ctx,
		`UPDATE players SET location_id = $1, rod_slot_1 = $2 WHERE id = $3`,
		ids.location, rodID, acc.PlayerID)
	require.NoError(s.T(), err)

	return acc.PlayerID, rodID
}
