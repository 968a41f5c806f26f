// Package config loads the game's tuning parameters from YAML, with
// sensible defaults when no file is present.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// ResourceConfig seeds one ledger resource.
type ResourceConfig struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Amount float64 `yaml:"amount"`
	Max    float64 `yaml:"max"`
}

// WorldConfig holds map generation parameters.
type WorldConfig struct {
	Width  int   `yaml:"width"`
	Height int   `yaml:"height"`
	Seed   int64 `yaml:"seed"` // 0 picks a random seed
}

// Config is the full tuning set.
type Config struct {
	SecondsPerGameHour  float64 `yaml:"secondsPerGameHour"`
	OfflineCapHours     int     `yaml:"offlineCapHours"`
	AutosaveIntervalSec int     `yaml:"autosaveIntervalSec"`
	SavePath            string  `yaml:"savePath"`
	StartingCharacters  int     `yaml:"startingCharacters"`
	CharacterSeed       int64   `yaml:"characterSeed"` // 0 picks a random seed

	World            WorldConfig      `yaml:"world"`
	InitialResources []ResourceConfig `yaml:"initialResources"`
}

// Default returns the stock tuning.
func Default() *Config {
	return &Config{
		SecondsPerGameHour:  60,
		OfflineCapHours:     24,
		AutosaveIntervalSec: 300,
		SavePath:            "otherworld.db",
		StartingCharacters:  3,
		World:               WorldConfig{Width: 64, Height: 64},
		InitialResources: []ResourceConfig{
			{ID: "yen", Name: "Yen", Amount: 10000},
			{ID: "otherworld_currency", Name: "Otherworld Currency", Amount: 100},
			{ID: "food", Name: "Food", Amount: 50, Max: 1000},
			{ID: "water", Name: "Water", Amount: 50, Max: 1000},
			{ID: "wood", Name: "Wood", Amount: 200, Max: 2000},
			{ID: "stone", Name: "Stone", Amount: 100, Max: 1000},
			{ID: "metal", Name: "Metal", Amount: 50, Max: 500},
			{ID: "wheat", Name: "Wheat", Amount: 0, Max: 1000},
			{ID: "wheat_seeds", Name: "Wheat Seeds", Amount: 10, Max: 100},
		},
	}
}

// Load reads a YAML config file over the defaults. A missing path is not an
// error; the defaults apply unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Info("config file not found, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SecondsPerGameHour <= 0 {
		return fmt.Errorf("secondsPerGameHour must be positive, got %v", c.SecondsPerGameHour)
	}
	if c.OfflineCapHours < 0 {
		return fmt.Errorf("offlineCapHours must not be negative, got %d", c.OfflineCapHours)
	}
	if c.AutosaveIntervalSec < 0 {
		return fmt.Errorf("autosaveIntervalSec must not be negative, got %d", c.AutosaveIntervalSec)
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world dimensions must be positive, got %dx%d", c.World.Width, c.World.Height)
	}
	seen := make(map[string]bool, len(c.InitialResources))
	for _, r := range c.InitialResources {
		if r.ID == "" {
			return fmt.Errorf("resource with empty id")
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate resource id %q", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}
