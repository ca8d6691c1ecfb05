package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klevoclub/klevo/internal/model"
)

// GameTimeRepository persists the game-time singleton and runs the
// periodic sweeps. Implements clock.Store.
type GameTimeRepository struct {
	pool *pgxpool.Pool
}

// NewGameTimeRepository creates the repository on the shared pool.
func NewGameTimeRepository(pool *pgxpool.Pool) *GameTimeRepository {
	return &GameTimeRepository{pool: pool}
}

// LoadGameTime returns the singleton, creating it at day 1, 08:00 when the
// row does not exist yet.
func (r *GameTimeRepository) LoadGameTime(ctx context.Context) (model.GameTime, error) {
	var gt model.GameTime
	err := r.pool.QueryRow(ctx,
		`SELECT current_hour, current_day FROM game_time WHERE id = 1`,
	).Scan(&gt.Hour, &gt.Day)
	if errors.Is(err, pgx.ErrNoRows) {
		gt = model.GameTime{Hour: 8, Day: 1}
		_, err := r.pool.Exec(ctx,
			`INSERT INTO game_time (id, current_hour, current_day) VALUES (1, $1, $2)
			 ON CONFLICT (id) DO NOTHING`,
			gt.Hour, gt.Day,
		)
		if err != nil {
			return model.GameTime{}, fmt.Errorf("creating game time: %w", err)
		}
		return gt, nil
	}
	if err != nil {
		return model.GameTime{}, fmt.Errorf("querying game time: %w", err)
	}
	return gt, nil
}

// SaveGameTime persists the advanced clock.
func (r *GameTimeRepository) SaveGameTime(ctx context.Context, gt model.GameTime) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE game_time SET current_hour = $1, current_day = $2, last_tick = now() WHERE id = 1`,
		gt.Hour, gt.Day,
	)
	if err != nil {
		return fmt.Errorf("saving game time: %w", err)
	}
	return nil
}

// DeleteExpiredSpots removes groundbait spots whose game-time expiry has
// passed.
func (r *GameTimeRepository) DeleteExpiredSpots(ctx context.Context, gt model.GameTime) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM groundbait_spots
		 WHERE expires_day < $1 OR (expires_day = $1 AND expires_hour <= $2)`,
		gt.Day, gt.Hour,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired groundbait spots: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DecayHunger lowers hunger for players currently at a location, floored
// at zero.
func (r *GameTimeRepository) DecayHunger(ctx context.Context, amount int) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE players SET hunger = GREATEST(0, hunger - $1)
		 WHERE location_id <> 0 AND hunger > 0`,
		amount,
	)
	if err != nil {
		return 0, fmt.Errorf("decaying hunger: %w", err)
	}
	return tag.RowsAffected(), nil
}
