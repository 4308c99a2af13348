// Package biome defines the core domain entities for the ecology simulation.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package biome

import (
	"fmt"
)

// TileCapacity is the maximum extractable quantity a single tile can hold.
const TileCapacity = 10.0

// ResourceTile is one slot in a biome's left-to-right tile strip.
// An inactive tile is "blank" and is the only valid site for an egg.
type ResourceTile struct {
	Value        float64 `json:"value"`         // current extractable quantity, 0..10
	InitialValue float64 `json:"initial_value"` // recorded at creation, never mutated
	Active       bool    `json:"active"`        // participates in generation/harvest/lushness
	HasEgg       bool    `json:"has_egg"`       // HasEgg implies !Active
}

// TurnRecord is one entry of a biome's append-only history.
// History is observability only; the simulation never reads it back.
type TurnRecord struct {
	Turn          int     `json:"turn"`
	BaseLushness  float64 `json:"base_lushness"`
	LushnessBoost float64 `json:"lushness_boost"`
	Lushness      float64 `json:"lushness"`
	ResourceTotal float64 `json:"resource_total"`
	Regenerated   float64 `json:"regenerated"`
	Harvested     float64 `json:"harvested"`
	EggsProduced  int     `json:"eggs_produced"`
	EggCount      int     `json:"egg_count"`
}

// Biome is a patch of numbered resource tiles driving a turn economy of
// regeneration, harvesting, and reproduction. Each biome simulates
// independently; it owns all of its mutable state and requires no locking.
type Biome struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Resources is the spatial left-to-right layout. Order matters: harvesting
	// breaks ties rightmost-first, egg placement leftmost-first.
	Resources []ResourceTile `json:"resources"`

	// Derived each turn.
	BaseLushness  float64 `json:"base_lushness"`  // 0..MaxLushness, from resource health
	LushnessBoost float64 `json:"lushness_boost"` // 0..BoostCeiling, from egg density
	Lushness      float64 `json:"lushness"`       // BaseLushness + LushnessBoost, unclamped

	EggCount       int     `json:"egg_count"`
	TotalHarvested float64 `json:"total_harvested"` // monotonically non-decreasing
	TurnsCount     int     `json:"turns_count"`     // increments once per harvest call

	Strategy Strategy `json:"strategy"`

	History []TurnRecord `json:"history"`

	InitialResourceCount int `json:"initial_resource_count"`
	NonDepletedCount     int `json:"non_depleted_count"`
}

// New creates a biome with all tiles active at full capacity and appends the
// initial history record. tileCount must be positive; that is a caller defect,
// not a simulation edge case.
func New(id, name string, tileCount int, strategy Strategy, initialLushness float64) (*Biome, error) {
	if tileCount <= 0 {
		return nil, fmt.Errorf("biome %q: tile count must be positive, got %d", id, tileCount)
	}
	if !strategy.Valid() {
		return nil, fmt.Errorf("biome %q: unrecognized harvest strategy %q", id, strategy)
	}

	b := &Biome{
		ID:                   id,
		Name:                 name,
		Resources:            make([]ResourceTile, tileCount),
		Strategy:             strategy,
		Lushness:             initialLushness,
		BaseLushness:         initialLushness,
		InitialResourceCount: tileCount,
		NonDepletedCount:     tileCount,
	}
	for i := range b.Resources {
		b.Resources[i] = ResourceTile{
			Value:        TileCapacity,
			InitialValue: TileCapacity,
			Active:       true,
		}
	}

	b.History = append(b.History, TurnRecord{
		Turn:          0,
		BaseLushness:  b.BaseLushness,
		Lushness:      b.Lushness,
		ResourceTotal: b.ResourceTotal(),
	})
	return b, nil
}

// SetStrategy swaps the terminal depletion policy. Malformed values fail here,
// at assignment time, not at harvest time.
func (b *Biome) SetStrategy(s Strategy) error {
	if !s.Valid() {
		return fmt.Errorf("biome %q: unrecognized harvest strategy %q", b.ID, s)
	}
	b.Strategy = s
	return nil
}

// SeedEggs pre-arranges the rightmost n tiles into blank egg sites, as if a
// previous population had already settled there. Returns how many were placed.
func (b *Biome) SeedEggs(n int) int {
	placed := 0
	for i := len(b.Resources) - 1; i >= 0 && placed < n; i-- {
		t := &b.Resources[i]
		if t.HasEgg {
			continue
		}
		t.Active = false
		t.Value = 0
		t.HasEgg = true
		placed++
	}
	b.EggCount += placed
	return placed
}

// ResourceTotal sums the extractable quantity across active tiles.
func (b *Biome) ResourceTotal() float64 {
	total := 0.0
	for _, t := range b.Resources {
		if t.Active {
			total += t.Value
		}
	}
	return total
}

// ActiveCount returns the number of tiles participating in the resource math.
func (b *Biome) ActiveCount() int {
	n := 0
	for _, t := range b.Resources {
		if t.Active {
			n++
		}
	}
	return n
}

// BlankTileCount returns the number of inactive, egg-free tiles — the only
// valid sites for new eggs.
func (b *Biome) BlankTileCount() int {
	n := 0
	for _, t := range b.Resources {
		if !t.Active && !t.HasEgg {
			n++
		}
	}
	return n
}

// RecountEggs recounts HasEgg tiles. EggCount must always equal this; it is
// kept incrementally and verified in tests.
func (b *Biome) RecountEggs() int {
	n := 0
	for _, t := range b.Resources {
		if t.HasEgg {
			n++
		}
	}
	return n
}

// LastRecord returns the most recent history entry.
func (b *Biome) LastRecord() TurnRecord {
	return b.History[len(b.History)-1]
}
