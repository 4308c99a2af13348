package biome

import (
	"testing"
)

func TestNewBiome(t *testing.T) {
	b, err := New("B001", "Mossy Hollow", 10, StrategyPreservation, 8.0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if len(b.Resources) != 10 {
		t.Errorf("Expected 10 tiles, got %d", len(b.Resources))
	}
	for i, tile := range b.Resources {
		if !tile.Active {
			t.Errorf("Tile %d should start active", i)
		}
		if tile.Value != TileCapacity {
			t.Errorf("Tile %d should start at capacity, got %f", i, tile.Value)
		}
		if tile.InitialValue != TileCapacity {
			t.Errorf("Tile %d initial value should be %f, got %f", i, TileCapacity, tile.InitialValue)
		}
	}

	if len(b.History) != 1 {
		t.Errorf("Expected the initial history record, got %d records", len(b.History))
	}
	if b.LastRecord().ResourceTotal != 100 {
		t.Errorf("Initial resource total should be 100, got %f", b.LastRecord().ResourceTotal)
	}
}

func TestNewBiomeRejectsBadInput(t *testing.T) {
	if _, err := New("B001", "Broken", 0, StrategyRealistic, 8.0); err == nil {
		t.Errorf("Expected error for zero tile count")
	}
	if _, err := New("B001", "Broken", -3, StrategyRealistic, 8.0); err == nil {
		t.Errorf("Expected error for negative tile count")
	}
	if _, err := New("B001", "Broken", 5, Strategy("gentle"), 8.0); err == nil {
		t.Errorf("Expected error for unrecognized strategy")
	}
}

func TestParseStrategy(t *testing.T) {
	for _, raw := range []string{"preservation", "realistic", "abusive"} {
		s, err := ParseStrategy(raw)
		if err != nil {
			t.Errorf("ParseStrategy(%q) failed: %v", raw, err)
		}
		if string(s) != raw {
			t.Errorf("ParseStrategy(%q) returned %q", raw, s)
		}
	}

	if _, err := ParseStrategy("sustainable"); err == nil {
		t.Errorf("Expected error for unrecognized strategy")
	}
	if _, err := ParseStrategy(""); err == nil {
		t.Errorf("Expected error for empty strategy")
	}
}

func TestSetStrategyFailsAtAssignment(t *testing.T) {
	b, _ := New("B001", "Hollow", 4, StrategyPreservation, 8.0)

	if err := b.SetStrategy(StrategyAbusive); err != nil {
		t.Errorf("Valid strategy swap failed: %v", err)
	}
	if err := b.SetStrategy(Strategy("chaotic")); err == nil {
		t.Errorf("Expected error for malformed strategy at assignment time")
	}
	if b.Strategy != StrategyAbusive {
		t.Errorf("Rejected assignment should not change the strategy, got %s", b.Strategy)
	}
}

func TestSeedEggs(t *testing.T) {
	b, _ := New("B001", "Hollow", 6, StrategyRealistic, 8.0)

	placed := b.SeedEggs(2)
	if placed != 2 {
		t.Errorf("Expected 2 eggs placed, got %d", placed)
	}
	if b.EggCount != 2 {
		t.Errorf("EggCount should be 2, got %d", b.EggCount)
	}
	if b.EggCount != b.RecountEggs() {
		t.Errorf("EggCount %d diverges from recount %d", b.EggCount, b.RecountEggs())
	}

	// Eggs settle on the rightmost tiles, which become blank egg sites.
	for i := 4; i < 6; i++ {
		tile := b.Resources[i]
		if tile.Active || !tile.HasEgg || tile.Value != 0 {
			t.Errorf("Tile %d should be an inactive egg site, got %+v", i, tile)
		}
	}

	// An egg site is never simultaneously a resource source.
	for i, tile := range b.Resources {
		if tile.HasEgg && tile.Active {
			t.Errorf("Tile %d violates HasEgg => !Active", i)
		}
	}
}

func TestCounters(t *testing.T) {
	b, _ := New("B001", "Hollow", 8, StrategyRealistic, 8.0)
	b.SeedEggs(3)
	b.Resources[0].Active = false // blank, no egg

	if got := b.ActiveCount(); got != 4 {
		t.Errorf("ActiveCount = %d, want 4", got)
	}
	if got := b.BlankTileCount(); got != 1 {
		t.Errorf("BlankTileCount = %d, want 1", got)
	}
	if got := b.ResourceTotal(); got != 40 {
		t.Errorf("ResourceTotal = %f, want 40", got)
	}
}
