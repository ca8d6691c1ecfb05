package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klevoclub/klevo/internal/game/fishing"
	"github.com/klevoclub/klevo/internal/model"
)

// BuffRepository reads and maintains consumable effects. Implements
// fishing.BuffSource.
type BuffRepository struct {
	pool *pgxpool.Pool
}

// NewBuffRepository creates the repository on the shared pool.
func NewBuffRepository(pool *pgxpool.Pool) *BuffRepository {
	return &BuffRepository{pool: pool}
}

// ActiveEffects returns the player's effects still running at the given
// game time. When the same effect was consumed twice, the stronger value
// wins.
func (r *BuffRepository) ActiveEffects(ctx context.Context, playerID int64, gt model.GameTime) (fishing.Buffs, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT effect, effect_value, expires_day, expires_hour
		 FROM active_buffs WHERE player_id = $1`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying buffs for player %d: %w", playerID, err)
	}
	defer rows.Close()

	buffs := fishing.Buffs{}
	for rows.Next() {
		var (
			b      model.ActiveBuff
			effect string
		)
		if err := rows.Scan(&effect, &b.Value, &b.Expires.Day, &b.Expires.Hour); err != nil {
			return nil, fmt.Errorf("scanning buff: %w", err)
		}
		b.Effect = model.BuffEffect(effect)
		if !b.Active(gt) {
			continue
		}
		if prev, ok := buffs[b.Effect]; !ok || b.Value > prev {
			buffs[b.Effect] = b.Value
		}
	}
	return buffs, rows.Err()
}

// GrantBuff records a consumed potion or brew effect.
func (r *BuffRepository) GrantBuff(ctx context.Context, b *model.ActiveBuff) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO active_buffs (player_id, effect, effect_value, expires_day, expires_hour)
		 VALUES ($1,$2,$3,$4,$5)`,
		b.PlayerID, string(b.Effect), b.Value, b.Expires.Day, b.Expires.Hour,
	)
	if err != nil {
		return fmt.Errorf("granting buff %s for player %d: %w", b.Effect, b.PlayerID, err)
	}
	return nil
}

// DeleteExpiredBuffs removes buffs that have lapsed at the given game time.
func (r *BuffRepository) DeleteExpiredBuffs(ctx context.Context, gt model.GameTime) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM active_buffs
		 WHERE expires_day < $1 OR (expires_day = $1 AND expires_hour <= $2)`,
		gt.Day, gt.Hour,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting expired buffs: %w", err)
	}
	return tag.RowsAffected(), nil
}
