package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Missing file should not error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected default addr, got %s", cfg.Server.Addr)
	}
	if cfg.Simulation.Egg.LushnessThreshold != 7.0 {
		t.Errorf("Expected default threshold 7.0, got %f", cfg.Simulation.Egg.LushnessThreshold)
	}
	if len(cfg.Biomes) != 3 {
		t.Errorf("Expected 3 seed biomes, got %d", len(cfg.Biomes))
	}
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
simulation:
  turn_interval: 5s
  max_lushness: 10.0
  egg:
    turn_interval: 3
    lushness_threshold: 6.5
    max_boost: 2.0
biomes:
  - id: B042
    name: Test Grove
    tiles: 6
    strategy: realistic
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Simulation.TurnInterval != Duration(5*time.Second) {
		t.Errorf("turn_interval not applied, got %v", time.Duration(cfg.Simulation.TurnInterval))
	}
	if cfg.Simulation.MaxLushness != 10.0 {
		t.Errorf("max_lushness not applied, got %f", cfg.Simulation.MaxLushness)
	}
	if cfg.Simulation.Egg.TurnInterval != 3 {
		t.Errorf("egg.turn_interval not applied, got %d", cfg.Simulation.Egg.TurnInterval)
	}
	// Untouched keys keep their defaults.
	if cfg.Server.DBPath != "broodvale.db" {
		t.Errorf("db_path should keep its default, got %s", cfg.Server.DBPath)
	}
	if len(cfg.Biomes) != 1 || cfg.Biomes[0].ID != "B042" {
		t.Errorf("Biome list should be replaced by the file, got %+v", cfg.Biomes)
	}
}

func TestLoadRejectsBadTuning(t *testing.T) {
	cases := map[string]string{
		"zero egg interval": "simulation:\n  egg:\n    turn_interval: 0\n",
		"zero max lushness": "simulation:\n  max_lushness: 0\n",
		"zero biome tiles":  "biomes:\n  - id: BX\n    tiles: 0\n",
	}
	for name, body := range cases {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
