package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klevoclub/klevo/internal/game/fishing"
	"github.com/klevoclub/klevo/internal/model"
)

// SessionRepository persists fishing sessions, fight states and groundbait
// spots. Implements fishing.Store.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates the repository on the shared pool.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, player_id, location_id, rod_id, slot, state,
	cast_x, cast_y, cast_time, retrieving, retrieve_progress,
	hooked_species_id, hooked_weight, hooked_length,
	nibble_start, nibble_duration, bite_start, bite_duration`

func scanSession(row pgx.Row) (*model.FishingSession, error) {
	var (
		s              model.FishingSession
		state          string
		hookedSpecies  *int64
		hookedWeight   *float64
		hookedLength   *float64
		nibbleStart    *time.Time
		nibbleDuration *float64
		biteStart      *time.Time
		biteDuration   *float64
	)
	err := row.Scan(
		&s.ID, &s.PlayerID, &s.LocationID, &s.RodID, &s.Slot, &state,
		&s.CastX, &s.CastY, &s.CastTime, &s.Retrieving, &s.RetrieveProgress,
		&hookedSpecies, &hookedWeight, &hookedLength,
		&nibbleStart, &nibbleDuration, &biteStart, &biteDuration,
	)
	if err != nil {
		return nil, err
	}
	s.State = model.SessionState(state)
	if hookedSpecies != nil {
		s.Hooked = &model.HookedFish{SpeciesID: *hookedSpecies}
		if hookedWeight != nil {
			s.Hooked.Weight = *hookedWeight
		}
		if hookedLength != nil {
			s.Hooked.Length = *hookedLength
		}
	}
	if nibbleStart != nil && nibbleDuration != nil {
		s.Nibble = &model.PhaseWindow{Start: *nibbleStart, Duration: *nibbleDuration}
	}
	if biteStart != nil && biteDuration != nil {
		s.Bite = &model.PhaseWindow{Start: *biteStart, Duration: *biteDuration}
	}
	return &s, nil
}

// sessionArgs flattens the optional phase data back into nullable columns.
func sessionArgs(s *model.FishingSession) (hookedSpecies *int64, hookedWeight, hookedLength *float64, nibbleStart *time.Time, nibbleDuration *float64, biteStart *time.Time, biteDuration *float64) {
	if s.Hooked != nil {
		hookedSpecies = &s.Hooked.SpeciesID
		hookedWeight = &s.Hooked.Weight
		hookedLength = &s.Hooked.Length
	}
	if s.Nibble != nil {
		nibbleStart = &s.Nibble.Start
		nibbleDuration = &s.Nibble.Duration
	}
	if s.Bite != nil {
		biteStart = &s.Bite.Start
		biteDuration = &s.Bite.Duration
	}
	return
}

// SessionsByPlayer returns all of the player's sessions ordered by slot.
func (r *SessionRepository) SessionsByPlayer(ctx context.Context, playerID int64) ([]*model.FishingSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM fishing_sessions WHERE player_id = $1 ORDER BY slot`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sessions for player %d: %w", playerID, err)
	}
	defer rows.Close()

	var sessions []*model.FishingSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// SessionByID returns the session if it exists and belongs to the player.
func (r *SessionRepository) SessionByID(ctx context.Context, playerID, sessionID int64) (*model.FishingSession, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM fishing_sessions WHERE id = $1 AND player_id = $2`,
		sessionID, playerID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session %d: %w", sessionID, fishing.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session %d: %w", sessionID, err)
	}
	return s, nil
}

// SessionForRodExists reports whether the rod already has a session.
func (r *SessionRepository) SessionForRodExists(ctx context.Context, playerID, rodID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM fishing_sessions WHERE player_id = $1 AND rod_id = $2)`,
		playerID, rodID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking session for rod %d: %w", rodID, err)
	}
	return exists, nil
}

// CreateSession inserts the session and fills its ID.
func (r *SessionRepository) CreateSession(ctx context.Context, s *model.FishingSession) error {
	hs, hw, hl, ns, nd, bs, bd := sessionArgs(s)
	err := r.pool.QueryRow(ctx,
		`INSERT INTO fishing_sessions (player_id, location_id, rod_id, slot, state,
			cast_x, cast_y, cast_time, retrieving, retrieve_progress,
			hooked_species_id, hooked_weight, hooked_length,
			nibble_start, nibble_duration, bite_start, bite_duration)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		 RETURNING id`,
		s.PlayerID, s.LocationID, s.RodID, s.Slot, string(s.State),
		s.CastX, s.CastY, s.CastTime, s.Retrieving, s.RetrieveProgress,
		hs, hw, hl, ns, nd, bs, bd,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("creating session for player %d rod %d: %w", s.PlayerID, s.RodID, err)
	}
	return nil
}

// SaveSession updates the mutable fields of the session.
func (r *SessionRepository) SaveSession(ctx context.Context, s *model.FishingSession) error {
	hs, hw, hl, ns, nd, bs, bd := sessionArgs(s)
	_, err := r.pool.Exec(ctx,
		`UPDATE fishing_sessions SET state = $2, retrieving = $3, retrieve_progress = $4,
			hooked_species_id = $5, hooked_weight = $6, hooked_length = $7,
			nibble_start = $8, nibble_duration = $9, bite_start = $10, bite_duration = $11
		 WHERE id = $1`,
		s.ID, string(s.State), s.Retrieving, s.RetrieveProgress,
		hs, hw, hl, ns, nd, bs, bd,
	)
	if err != nil {
		return fmt.Errorf("saving session %d: %w", s.ID, err)
	}
	return nil
}

// DeleteSession removes the session. The fight row, if any, goes with it.
func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM fishing_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("deleting session %d: %w", sessionID, err)
	}
	return nil
}

// FightBySession returns the session's fight state.
func (r *SessionRepository) FightBySession(ctx context.Context, sessionID int64) (*model.FightState, error) {
	var f model.FightState
	err := r.pool.QueryRow(ctx,
		`SELECT session_id, fish_strength, line_tension, distance, rod_durability, last_action
		 FROM fight_states WHERE session_id = $1`, sessionID,
	).Scan(&f.SessionID, &f.FishStrength, &f.LineTension, &f.Distance, &f.RodDurability, &f.LastAction)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("fight for session %d: %w", sessionID, fishing.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying fight for session %d: %w", sessionID, err)
	}
	return &f, nil
}

// CreateFight inserts the fight state.
func (r *SessionRepository) CreateFight(ctx context.Context, f *model.FightState) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO fight_states (session_id, fish_strength, line_tension, distance, rod_durability, last_action)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		f.SessionID, f.FishStrength, f.LineTension, f.Distance, f.RodDurability, f.LastAction,
	)
	if err != nil {
		return fmt.Errorf("creating fight for session %d: %w", f.SessionID, err)
	}
	return nil
}

// SaveFight updates the fight state.
func (r *SessionRepository) SaveFight(ctx context.Context, f *model.FightState) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE fight_states SET fish_strength = $2, line_tension = $3, distance = $4,
			rod_durability = $5, last_action = $6
		 WHERE session_id = $1`,
		f.SessionID, f.FishStrength, f.LineTension, f.Distance, f.RodDurability, f.LastAction,
	)
	if err != nil {
		return fmt.Errorf("saving fight for session %d: %w", f.SessionID, err)
	}
	return nil
}

// StartFight transitions the session into its fight: the session update
// and the fight insert commit together, so a fight row exists exactly
// when the session says FIGHTING.
func (r *SessionRepository) StartFight(ctx context.Context, s *model.FishingSession, f *model.FightState) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	hs, hw, hl, ns, nd, bs, bd := sessionArgs(s)
	_, err = tx.Exec(ctx,
		`UPDATE fishing_sessions SET state = $2, retrieving = $3, retrieve_progress = $4,
			hooked_species_id = $5, hooked_weight = $6, hooked_length = $7,
			nibble_start = $8, nibble_duration = $9, bite_start = $10, bite_duration = $11
		 WHERE id = $1`,
		s.ID, string(s.State), s.Retrieving, s.RetrieveProgress,
		hs, hw, hl, ns, nd, bs, bd,
	)
	if err != nil {
		return fmt.Errorf("saving session %d: %w", s.ID, err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO fight_states (session_id, fish_strength, line_tension, distance, rod_durability, last_action)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		f.SessionID, f.FishStrength, f.LineTension, f.Distance, f.RodDurability, f.LastAction,
	)
	if err != nil {
		return fmt.Errorf("creating fight for session %d: %w", f.SessionID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing fight start for session %d: %w", s.ID, err)
	}
	return nil
}

// EndFight transitions the session out of its fight; the session update
// and the fight delete commit together.
func (r *SessionRepository) EndFight(ctx context.Context, s *model.FishingSession) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	hs, hw, hl, ns, nd, bs, bd := sessionArgs(s)
	_, err = tx.Exec(ctx,
		`UPDATE fishing_sessions SET state = $2, retrieving = $3, retrieve_progress = $4,
			hooked_species_id = $5, hooked_weight = $6, hooked_length = $7,
			nibble_start = $8, nibble_duration = $9, bite_start = $10, bite_duration = $11
		 WHERE id = $1`,
		s.ID, string(s.State), s.Retrieving, s.RetrieveProgress,
		hs, hw, hl, ns, nd, bs, bd,
	)
	if err != nil {
		return fmt.Errorf("saving session %d: %w", s.ID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM fight_states WHERE session_id = $1`, s.ID); err != nil {
		return fmt.Errorf("deleting fight for session %d: %w", s.ID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing fight end for session %d: %w", s.ID, err)
	}
	return nil
}

// ActiveSpot returns the oldest groundbait spot for (player, location),
// or nil when none exists.
func (r *SessionRepository) ActiveSpot(ctx context.Context, playerID, locationID int64) (*model.GroundbaitSpot, error) {
	var (
		s           model.GroundbaitSpot
		gb          model.Groundbait
		flavoringID *int64
	)
	err := r.pool.QueryRow(ctx,
		`SELECT s.id, s.player_id, s.location_id, s.expires_day, s.expires_hour, s.flavoring_id,
			g.id, g.name, g.effectiveness, g.target_species, g.duration_hours
		 FROM groundbait_spots s
		 JOIN groundbaits g ON g.id = s.groundbait_id
		 WHERE s.player_id = $1 AND s.location_id = $2
		 ORDER BY s.applied_at
		 LIMIT 1`,
		playerID, locationID,
	).Scan(&s.ID, &s.PlayerID, &s.LocationID, &s.Expires.Day, &s.Expires.Hour, &flavoringID,
		&gb.ID, &gb.Name, &gb.Effectiveness, &gb.TargetSpecies, &gb.DurationHours)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying groundbait spot for player %d: %w", playerID, err)
	}
	s.Groundbait = &gb

	if flavoringID != nil {
		var f model.Flavoring
		err := r.pool.QueryRow(ctx,
			`SELECT id, name, bonus_multiplier FROM flavorings WHERE id = $1`, *flavoringID,
		).Scan(&f.ID, &f.Name, &f.BonusMultiplier)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("querying flavoring %d: %w", *flavoringID, err)
		}
		if err == nil {
			s.Flavoring = &f
		}
	}
	return &s, nil
}

// CreateSpot inserts the groundbait spot.
func (r *SessionRepository) CreateSpot(ctx context.Context, s *model.GroundbaitSpot) error {
	var flavoringID *int64
	if s.Flavoring != nil {
		flavoringID = &s.Flavoring.ID
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO groundbait_spots (player_id, location_id, groundbait_id, flavoring_id, expires_day, expires_hour)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING id`,
		s.PlayerID, s.LocationID, s.Groundbait.ID, flavoringID, s.Expires.Day, s.Expires.Hour,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("creating groundbait spot for player %d: %w", s.PlayerID, err)
	}
	return nil
}
