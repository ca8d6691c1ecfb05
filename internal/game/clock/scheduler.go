package clock

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/klevoclub/klevo/internal/model"
)

// SchedulerConfig sets the wall-clock cadences of the periodic jobs.
// Specs use the cron "@every" syntax.
type SchedulerConfig struct {
	AdvanceEvery   string // one game hour per interval
	HungerEvery    string
	HungerDecrease int
	SweepEvery     string // expired groundbait cleanup
}

// DefaultSchedulerConfig matches the original game cadence: a game hour
// every five real minutes.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		AdvanceEvery:   "@every 5m",
		HungerEvery:    "@every 10m",
		HungerDecrease: 2,
		SweepEvery:     "@every 1m",
	}
}

// BuffSweeper removes lapsed consumable effects. Implemented by the buff
// repository; nil disables the buff part of the sweep.
type BuffSweeper interface {
	DeleteExpiredBuffs(ctx context.Context, gt model.GameTime) (int64, error)
}

// Scheduler runs clock advancement, hunger decay and the expiry sweeps on
// cron cadences. Failures are logged, never fatal; the next run
// self-heals.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers the periodic jobs.
func NewScheduler(svc *Service, store Store, buffs BuffSweeper, cfg SchedulerConfig) (*Scheduler, error) {
	c := cron.New()
	ctx := context.Background()

	if _, err := c.AddFunc(cfg.AdvanceEvery, func() {
		if _, err := svc.Advance(ctx); err != nil {
			slog.Error("advancing game time", "err", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("scheduling clock advance: %w", err)
	}

	if _, err := c.AddFunc(cfg.HungerEvery, func() {
		n, err := store.DecayHunger(ctx, cfg.HungerDecrease)
		if err != nil {
			slog.Error("decaying hunger", "err", err)
			return
		}
		slog.Debug("hunger decayed", "players", n)
	}); err != nil {
		return nil, fmt.Errorf("scheduling hunger decay: %w", err)
	}

	if _, err := c.AddFunc(cfg.SweepEvery, func() {
		gt, err := svc.Snapshot(ctx)
		if err != nil {
			slog.Error("reading game time for sweep", "err", err)
			return
		}
		n, err := store.DeleteExpiredSpots(ctx, gt)
		if err != nil {
			slog.Error("sweeping groundbait spots", "err", err)
			return
		}
		if n > 0 {
			slog.Debug("groundbait spots swept", "deleted", n)
		}
		if buffs == nil {
			return
		}
		n, err = buffs.DeleteExpiredBuffs(ctx, gt)
		if err != nil {
			slog.Error("sweeping expired buffs", "err", err)
			return
		}
		if n > 0 {
			slog.Debug("expired buffs swept", "deleted", n)
		}
	}); err != nil {
		return nil, fmt.Errorf("scheduling expiry sweep: %w", err)
	}

	return &Scheduler{cron: c}, nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts scheduling and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
