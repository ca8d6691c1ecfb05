// Package clock owns the global game time: a persisted day/hour singleton
// advanced on a fixed wall-clock cadence by a scheduler. The fishing core
// never mutates it; every operation reads an immutable snapshot.
package clock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/klevoclub/klevo/internal/model"
)

// Store persists the game-time singleton and the periodic sweeps the
// scheduler drives alongside it.
type Store interface {
	// LoadGameTime returns the singleton, creating it at day 1, 08:00
	// when missing.
	LoadGameTime(ctx context.Context) (model.GameTime, error)
	SaveGameTime(ctx context.Context, gt model.GameTime) error

	// DeleteExpiredSpots removes groundbait spots whose game-time expiry
	// has passed. Returns the number of deleted rows.
	DeleteExpiredSpots(ctx context.Context, gt model.GameTime) (int64, error)

	// DecayHunger lowers hunger for players at a location, floored at 0.
	DecayHunger(ctx context.Context, amount int) (int64, error)
}

// Service caches the current game time between advances.
type Service struct {
	store Store

	mu      sync.RWMutex
	current model.GameTime
}

// New loads the persisted game time and returns the service.
func New(ctx context.Context, store Store) (*Service, error) {
	gt, err := store.LoadGameTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading game time: %w", err)
	}
	return &Service{store: store, current: gt}, nil
}

// Snapshot returns the current game time. The copy is immutable from the
// caller's perspective.
func (s *Service) Snapshot(_ context.Context) (model.GameTime, error) {
	s.mu.RLock()
	gt := s.current
	s.mu.RUnlock()
	return gt, nil
}

// Advance moves the clock one game hour forward and persists it.
func (s *Service) Advance(ctx context.Context) (model.GameTime, error) {
	s.mu.Lock()
	next := s.current.AddHours(1)
	s.current = next
	s.mu.Unlock()

	if err := s.store.SaveGameTime(ctx, next); err != nil {
		return next, fmt.Errorf("saving game time: %w", err)
	}
	slog.Debug("game time advanced", "day", next.Day, "hour", next.Hour, "time_of_day", next.TimeOfDay())
	return next, nil
}
