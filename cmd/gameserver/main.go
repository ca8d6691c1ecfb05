package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/klevoclub/klevo/internal/config"
	"github.com/klevoclub/klevo/internal/db"
	"github.com/klevoclub/klevo/internal/game/clock"
	"github.com/klevoclub/klevo/internal/game/fishing"
	"github.com/klevoclub/klevo/internal/server"
)

const GameConfigPath = "config/gameserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := GameConfigPath
	if p := os.Getenv("KLEVO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadGameServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("klevo game server starting", "log_level", cfg.LogLevel, "bind", cfg.BindAddress, "port", cfg.Port)

	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	pool := database.Pool()
	sessions := db.NewSessionRepository(pool)
	players := db.NewPlayerRepository(pool)
	catalog := db.NewCatalogRepository(pool)
	buffs := db.NewBuffRepository(pool)
	gametime := db.NewGameTimeRepository(pool)
	accounts := db.NewAccountRepository(pool)

	gameClock, err := clock.New(ctx, gametime)
	if err != nil {
		return fmt.Errorf("initializing game clock: %w", err)
	}
	scheduler, err := clock.NewScheduler(gameClock, gametime, buffs, clock.SchedulerConfig{
		AdvanceEvery:   cfg.Clock.AdvanceEvery,
		HungerEvery:    cfg.Clock.HungerEvery,
		HungerDecrease: cfg.Clock.HungerDecrease,
		SweepEvery:     cfg.Clock.SweepEvery,
	})
	if err != nil {
		return fmt.Errorf("building scheduler: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	engine := fishing.NewEngine(fishing.Config{
		MaxActiveRods:      cfg.Game.MaxActiveRods,
		MaxCreelSize:       cfg.Game.MaxCreelSize,
		ReturnReplacedBait: cfg.Game.ReturnReplacedBait,
	}, fishing.Deps{
		Store:   sessions,
		Players: players,
		Catalog: catalog,
		Buffs:   buffs,
		Clock:   gameClock,
	})

	srv := server.New(slog.Default(), server.NewAuth(accounts), engine, cfg.Game.TickInterval)
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddress, strconv.Itoa(cfg.Port)),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
