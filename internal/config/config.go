// Package config loads the game server configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// GameServer holds all configuration for the fishing game server.
type GameServer struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	LogLevel string `yaml:"log_level"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	// Gameplay
	Game GameConfig `yaml:"game"`

	// Game clock and periodic sweeps
	Clock ClockConfig `yaml:"clock"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// GameConfig holds the gameplay tunables the engine reads.
type GameConfig struct {
	MaxActiveRods      int           `yaml:"max_active_rods"`
	MaxCreelSize       int           `yaml:"max_creel_size"`
	ReturnReplacedBait bool          `yaml:"return_replaced_bait"`
	TickInterval       time.Duration `yaml:"tick_interval"` // server-driven WS tick
}

// ClockConfig holds the wall-clock cadences of the scheduled jobs.
type ClockConfig struct {
	AdvanceEvery   string `yaml:"advance_every"` // cron @every spec
	HungerEvery    string `yaml:"hunger_every"`
	HungerDecrease int    `yaml:"hunger_decrease"`
	SweepEvery     string `yaml:"sweep_every"`
}

// DefaultGameServer returns GameServer config with sensible defaults.
func DefaultGameServer() GameServer {
	return GameServer{
		BindAddress: "0.0.0.0",
		Port:        8080,
		LogLevel:    "info",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "klevo",
			Password: "klevo",
			DBName:   "klevo",
			SSLMode:  "disable",
		},
		Game: GameConfig{
			MaxActiveRods: 3,
			MaxCreelSize:  25,
			TickInterval:  1500 * time.Millisecond,
		},
		Clock: ClockConfig{
			AdvanceEvery:   "@every 5m",
			HungerEvery:    "@every 10m",
			HungerDecrease: 2,
			SweepEvery:     "@every 1m",
		},
	}
}

// LoadGameServer loads game server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadGameServer(path string) (GameServer, error) {
	cfg := DefaultGameServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
