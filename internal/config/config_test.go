package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if cfg.SecondsPerGameHour != 60 {
		t.Errorf("secondsPerGameHour = %v, want 60", cfg.SecondsPerGameHour)
	}
	if len(cfg.InitialResources) == 0 {
		t.Error("no initial resources")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OfflineCapHours != 24 {
		t.Errorf("offlineCapHours = %d, want default 24", cfg.OfflineCapHours)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	data := []byte(`
secondsPerGameHour: 10
offlineCapHours: 48
world:
  width: 32
  height: 32
  seed: 7
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SecondsPerGameHour != 10 {
		t.Errorf("secondsPerGameHour = %v, want 10", cfg.SecondsPerGameHour)
	}
	if cfg.OfflineCapHours != 48 {
		t.Errorf("offlineCapHours = %d, want 48", cfg.OfflineCapHours)
	}
	if cfg.World.Seed != 7 {
		t.Errorf("world seed = %d, want 7", cfg.World.Seed)
	}
	// Untouched keys keep their defaults.
	if cfg.AutosaveIntervalSec != 300 {
		t.Errorf("autosaveIntervalSec = %d, want default 300", cfg.AutosaveIntervalSec)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero hour length", "secondsPerGameHour: 0\n"},
		{"negative cap", "offlineCapHours: -1\n"},
		{"bad world size", "world: {width: 0, height: 64}\n"},
		{"duplicate resource", "initialResources:\n  - {id: wood}\n  - {id: wood}\n"},
		{"malformed yaml", "secondsPerGameHour: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("bad config accepted")
			}
		})
	}
}
