// Package config holds the tuning surface for the server and the simulation.
// Thresholds that look like constants (max lushness, egg gate) are deliberately
// configuration: historical variants of the engine shipped with different
// values, so they are loaded here rather than hardcoded in the engine.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML accepts "30s" style strings.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// GenerationParams are the calibration coefficients of the cubic regeneration
// rate polynomial: rate = max(0, a·L³ + b·L² + c·L + d).
type GenerationParams struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
	C float64 `yaml:"c"`
	D float64 `yaml:"d"`
}

// EggParams tune the reproduction feedback loop.
type EggParams struct {
	TurnInterval      int     `yaml:"turn_interval"`      // eggs may only hatch every Nth turn
	InitialCount      int     `yaml:"initial_count"`      // eggs placed at biome creation
	LushnessThreshold float64 `yaml:"lushness_threshold"` // minimum lushness for production
	MaxBoost          float64 `yaml:"max_boost"`          // boost at 100% egg saturation
}

// SimulationParams tune the engine itself.
type SimulationParams struct {
	TurnInterval Duration         `yaml:"turn_interval"` // real time between simulated turns
	Seed         int64            `yaml:"seed"`          // 0 = derive from wall clock
	MaxLushness  float64          `yaml:"max_lushness"`  // scale of the base lushness term
	Generation   GenerationParams `yaml:"generation"`
	Egg          EggParams        `yaml:"egg"`
}

// BiomeSeed describes one biome to create at world bootstrap.
type BiomeSeed struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Tiles    int    `yaml:"tiles"`
	Strategy string `yaml:"strategy"`
}

// ServerParams tune the network surface.
type ServerParams struct {
	Addr   string `yaml:"addr"`
	DBPath string `yaml:"db_path"`
}

// Config is the root of the YAML configuration file.
type Config struct {
	Server     ServerParams     `yaml:"server"`
	Simulation SimulationParams `yaml:"simulation"`
	Biomes     []BiomeSeed      `yaml:"biomes"`
}

// Default returns the shipped tuning. The cubic peaks around mid lushness so a
// half-healthy biome regenerates fastest and a saturated one barely at all.
func Default() *Config {
	return &Config{
		Server: ServerParams{
			Addr:   ":8080",
			DBPath: "broodvale.db",
		},
		Simulation: SimulationParams{
			TurnInterval: Duration(30 * time.Second),
			Seed:         0,
			MaxLushness:  8.0,
			Generation: GenerationParams{
				A: -0.05,
				B: 0.4,
				C: 0.2,
				D: 0.5,
			},
			Egg: EggParams{
				TurnInterval:      2,
				InitialCount:      0,
				LushnessThreshold: 7.0,
				MaxBoost:          2.0,
			},
		},
		Biomes: []BiomeSeed{
			{ID: "B001", Name: "Mossy Hollow", Tiles: 10, Strategy: "preservation"},
			{ID: "B002", Name: "Tidal Flats", Tiles: 10, Strategy: "realistic"},
			{ID: "B003", Name: "Scorched Ridge", Tiles: 10, Strategy: "abusive"},
		},
	}
}

// Load reads a YAML config file on top of the defaults. A missing file is not
// an error; the defaults stand.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Simulation.TurnInterval <= 0 {
		return fmt.Errorf("simulation.turn_interval must be positive")
	}
	if c.Simulation.Egg.TurnInterval <= 0 {
		return fmt.Errorf("simulation.egg.turn_interval must be positive")
	}
	if c.Simulation.MaxLushness <= 0 {
		return fmt.Errorf("simulation.max_lushness must be positive")
	}
	for _, b := range c.Biomes {
		if b.Tiles <= 0 {
			return fmt.Errorf("biome %s: tiles must be positive", b.ID)
		}
	}
	return nil
}
