package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klevoclub/klevo/internal/game/fishing"
	"github.com/klevoclub/klevo/internal/model"
)

// PlayerRepository persists players, rods, inventory and the creel.
// Implements fishing.PlayerStore.
type PlayerRepository struct {
	pool *pgxpool.Pool
}

// NewPlayerRepository creates the repository on the shared pool.
func NewPlayerRepository(pool *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{pool: pool}
}

// Player loads the player's fishing-relevant attributes.
func (r *PlayerRepository) Player(ctx context.Context, playerID int64) (*model.Player, error) {
	var p model.Player
	err := r.pool.QueryRow(ctx,
		`SELECT id, nickname, location_id, rank, karma, hunger, experience,
			rod_slot_1, rod_slot_2, rod_slot_3
		 FROM players WHERE id = $1`, playerID,
	).Scan(&p.ID, &p.Nickname, &p.LocationID, &p.Rank, &p.Karma, &p.Hunger, &p.Experience,
		&p.EquippedRods[0], &p.EquippedRods[1], &p.EquippedRods[2])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("player %d: %w", playerID, fishing.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying player %d: %w", playerID, err)
	}
	return &p, nil
}

// PlayerByNickname loads a player by their unique nickname.
func (r *PlayerRepository) PlayerByNickname(ctx context.Context, nickname string) (*model.Player, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM players WHERE nickname = $1`, nickname).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("player %q: %w", nickname, fishing.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying player %q: %w", nickname, err)
	}
	return r.Player(ctx, id)
}

// AddKarma adjusts the player's karma and returns the new total.
func (r *PlayerRepository) AddKarma(ctx context.Context, playerID int64, delta int) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`UPDATE players SET karma = karma + $2 WHERE id = $1 RETURNING karma`,
		playerID, delta,
	).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("player %d: %w", playerID, fishing.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("adding karma for player %d: %w", playerID, err)
	}
	return total, nil
}

// AddExperience grants experience to the player.
func (r *PlayerRepository) AddExperience(ctx context.Context, playerID int64, amount int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE players SET experience = experience + $2 WHERE id = $1`,
		playerID, amount,
	)
	if err != nil {
		return fmt.Errorf("adding experience for player %d: %w", playerID, err)
	}
	return nil
}

// Rod loads the rod with all mounted components resolved.
func (r *PlayerRepository) Rod(ctx context.Context, playerID, rodID int64) (*model.Rod, error) {
	var (
		rod model.Rod

		rt struct {
			id            *int64
			name          *string
			class         *string
			testMin       *float64
			testMax       *float64
			durabilityMax *int
			minRank       *int
		}
		reelID, lineID, hookID, floatID, lureID, baitID *int64
		reelName, lineName, hookName, floatName         *string
		lureName, baitName                              *string
		dragPower, breakingStrength, capacity           *float64
		hookSize                                        *int
		lureDepthMin, lureDepthMax                      *float64
		lureTargets, baitTargets                        []int64
		baitPerPack                                     *int
	)
	err := r.pool.QueryRow(ctx,
		`SELECT r.id, r.player_id, r.bait_remaining, r.durability_current, r.depth_setting, r.retrieve_speed,
			t.id, t.name, t.rod_class, t.test_min, t.test_max, t.durability_max, t.min_rank,
			re.id, re.name, re.drag_power,
			l.id, l.name, l.breaking_strength,
			h.id, h.name, h.size,
			f.id, f.name, f.capacity,
			lu.id, lu.name, lu.depth_min, lu.depth_max, lu.target_species,
			b.id, b.name, b.target_species, b.quantity_per_pack
		 FROM rods r
		 JOIN rod_types t ON t.id = r.rod_type_id
		 LEFT JOIN reels re ON re.id = r.reel_id
		 LEFT JOIN lines l ON l.id = r.line_id
		 LEFT JOIN hooks h ON h.id = r.hook_id
		 LEFT JOIN floats f ON f.id = r.float_id
		 LEFT JOIN lures lu ON lu.id = r.lure_id
		 LEFT JOIN baits b ON b.id = r.bait_id
		 WHERE r.id = $1 AND r.player_id = $2`,
		rodID, playerID,
	).Scan(
		&rod.ID, &rod.PlayerID, &rod.BaitRemaining, &rod.DurabilityCurrent, &rod.DepthSetting, &rod.RetrieveSpeed,
		&rt.id, &rt.name, &rt.class, &rt.testMin, &rt.testMax, &rt.durabilityMax, &rt.minRank,
		&reelID, &reelName, &dragPower,
		&lineID, &lineName, &breakingStrength,
		&hookID, &hookName, &hookSize,
		&floatID, &floatName, &capacity,
		&lureID, &lureName, &lureDepthMin, &lureDepthMax, &lureTargets,
		&baitID, &baitName, &baitTargets, &baitPerPack,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("rod %d: %w", rodID, fishing.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying rod %d: %w", rodID, err)
	}

	if rt.id != nil {
		rod.Type = &model.RodType{
			ID:            *rt.id,
			Name:          *rt.name,
			Class:         model.RodClass(*rt.class),
			TestMin:       *rt.testMin,
			TestMax:       *rt.testMax,
			DurabilityMax: *rt.durabilityMax,
			MinRank:       *rt.minRank,
		}
	}
	if reelID != nil {
		rod.Reel = &model.Reel{ID: *reelID, Name: *reelName, DragPower: *dragPower}
	}
	if lineID != nil {
		rod.Line = &model.Line{ID: *lineID, Name: *lineName, BreakingStrength: *breakingStrength}
	}
	if hookID != nil {
		rod.Hook = &model.Hook{ID: *hookID, Name: *hookName, Size: *hookSize}
	}
	if floatID != nil {
		rod.Float = &model.FloatTackle{ID: *floatID, Name: *floatName, Capacity: *capacity}
	}
	if lureID != nil {
		rod.Lure = &model.Lure{ID: *lureID, Name: *lureName, DepthMin: *lureDepthMin, DepthMax: *lureDepthMax, TargetSpecies: lureTargets}
	}
	if baitID != nil {
		rod.Bait = &model.Bait{ID: *baitID, Name: *baitName, TargetSpecies: baitTargets, QuantityPerPack: *baitPerPack}
	}
	return &rod, nil
}

// SaveRod persists the rod's mutable state: mounted components, remaining
// bait, durability and the depth/retrieve knobs.
func (r *PlayerRepository) SaveRod(ctx context.Context, rod *model.Rod) error {
	var reelID, lineID, hookID, floatID, lureID, baitID *int64
	if rod.Reel != nil {
		reelID = &rod.Reel.ID
	}
	if rod.Line != nil {
		lineID = &rod.Line.ID
	}
	if rod.Hook != nil {
		hookID = &rod.Hook.ID
	}
	if rod.Float != nil {
		floatID = &rod.Float.ID
	}
	if rod.Lure != nil {
		lureID = &rod.Lure.ID
	}
	if rod.Bait != nil {
		baitID = &rod.Bait.ID
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE rods SET reel_id = $2, line_id = $3, hook_id = $4, float_id = $5,
			lure_id = $6, bait_id = $7, bait_remaining = $8, durability_current = $9,
			depth_setting = $10, retrieve_speed = $11
		 WHERE id = $1`,
		rod.ID, reelID, lineID, hookID, floatID, lureID, baitID,
		rod.BaitRemaining, rod.DurabilityCurrent, rod.DepthSetting, rod.RetrieveSpeed,
	)
	if err != nil {
		return fmt.Errorf("saving rod %d: %w", rod.ID, err)
	}
	return nil
}

// CreelCount counts the player's unsold, unreleased catches.
func (r *PlayerRepository) CreelCount(ctx context.Context, playerID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM caught_fish WHERE player_id = $1 AND NOT is_sold AND NOT is_released`,
		playerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting creel for player %d: %w", playerID, err)
	}
	return n, nil
}

// CreateCaughtFish inserts the catch and fills its ID.
func (r *PlayerRepository) CreateCaughtFish(ctx context.Context, f *model.CaughtFish) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO caught_fish (player_id, species_id, weight, length, location_id, caught_at, is_record)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING id`,
		f.PlayerID, f.SpeciesID, f.Weight, f.Length, f.LocationID, f.CaughtAt, f.IsRecord,
	).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("creating caught fish for player %d: %w", f.PlayerID, err)
	}
	return nil
}

// RecordCatch resolves a kept fish: the catch row, the experience grant,
// the bait decrement and the session delete commit together. Retrying
// after a failure never books the fish twice.
func (r *PlayerRepository) RecordCatch(ctx context.Context, f *model.CaughtFish, exp int, rodID, sessionID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO caught_fish (player_id, species_id, weight, length, location_id, caught_at, is_record)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 RETURNING id`,
		f.PlayerID, f.SpeciesID, f.Weight, f.Length, f.LocationID, f.CaughtAt, f.IsRecord,
	).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("creating caught fish for player %d: %w", f.PlayerID, err)
	}
	if err := resolveSession(ctx, tx, f.PlayerID, exp, rodID, sessionID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing catch for player %d: %w", f.PlayerID, err)
	}
	return nil
}

// RecordRelease resolves a released fish: karma, experience, the bait
// decrement and the session delete commit together. Returns the karma
// total.
func (r *PlayerRepository) RecordRelease(ctx context.Context, playerID int64, karma, exp int, rodID, sessionID int64) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int
	err = tx.QueryRow(ctx,
		`UPDATE players SET karma = karma + $2 WHERE id = $1 RETURNING karma`,
		playerID, karma,
	).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("player %d: %w", playerID, fishing.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("adding karma for player %d: %w", playerID, err)
	}
	if err := resolveSession(ctx, tx, playerID, exp, rodID, sessionID); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing release for player %d: %w", playerID, err)
	}
	return total, nil
}

// resolveSession is the shared tail of a catch resolution: experience,
// one unit of mounted bait and the session row itself.
func resolveSession(ctx context.Context, tx pgx.Tx, playerID int64, exp int, rodID, sessionID int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE players SET experience = experience + $2 WHERE id = $1`,
		playerID, exp,
	)
	if err != nil {
		return fmt.Errorf("adding experience for player %d: %w", playerID, err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE rods SET bait_remaining = bait_remaining - 1
		 WHERE id = $1 AND player_id = $2 AND bait_id IS NOT NULL AND bait_remaining > 0`,
		rodID, playerID,
	)
	if err != nil {
		return fmt.Errorf("consuming bait on rod %d: %w", rodID, err)
	}
	_, err = tx.Exec(ctx, `DELETE FROM fishing_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("deleting session %d: %w", sessionID, err)
	}
	return nil
}

// InventoryCount returns how many of the item the player holds.
func (r *PlayerRepository) InventoryCount(ctx context.Context, playerID int64, kind model.ItemKind, itemID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT quantity FROM inventory_items WHERE player_id = $1 AND kind = $2 AND item_id = $3`,
		playerID, string(kind), itemID,
	).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("counting inventory for player %d: %w", playerID, err)
	}
	return n, nil
}

// ConsumeItem removes n units, failing when the player holds fewer.
func (r *PlayerRepository) ConsumeItem(ctx context.Context, playerID int64, kind model.ItemKind, itemID int64, n int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE inventory_items SET quantity = quantity - $4
		 WHERE player_id = $1 AND kind = $2 AND item_id = $3 AND quantity >= $4`,
		playerID, string(kind), itemID, n,
	)
	if err != nil {
		return fmt.Errorf("consuming item %d for player %d: %w", itemID, playerID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item %s/%d x%d for player %d: %w", kind, itemID, n, playerID, fishing.ErrNotFound)
	}
	// Empty stacks disappear from the bag.
	_, err = r.pool.Exec(ctx,
		`DELETE FROM inventory_items
		 WHERE player_id = $1 AND kind = $2 AND item_id = $3 AND quantity <= 0`,
		playerID, string(kind), itemID,
	)
	if err != nil {
		return fmt.Errorf("sweeping empty stack for player %d: %w", playerID, err)
	}
	return nil
}

// AddItem adds n units, creating the stack when missing.
func (r *PlayerRepository) AddItem(ctx context.Context, playerID int64, kind model.ItemKind, itemID int64, n int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO inventory_items (player_id, kind, item_id, quantity)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (player_id, kind, item_id) DO UPDATE SET quantity = inventory_items.quantity + $4`,
		playerID, string(kind), itemID, n,
	)
	if err != nil {
		return fmt.Errorf("adding item %d for player %d: %w", itemID, playerID, err)
	}
	return nil
}
