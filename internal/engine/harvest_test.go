package engine

import (
	"testing"

	"github.com/averdou/broodvale/server/internal/domain/biome"
	"github.com/averdou/broodvale/server/internal/events"
	"github.com/averdou/broodvale/server/internal/platform/logger"
)

func newHarvestSystem() *HarvestSystem {
	return NewHarvestSystem(events.NewEventLog(nil), logger.NewLogger())
}

func TestSkimTakesExactlyTheRequest(t *testing.T) {
	hs := newHarvestSystem()
	b, _ := biome.New("B001", "Plenty", 10, biome.StrategyPreservation, 8.0)

	harvested, err := hs.Harvest(b, 5)
	if err != nil {
		t.Fatalf("Harvest failed: %v", err)
	}
	if harvested != 5 {
		t.Errorf("Expected 5 units with ample headroom, got %f", harvested)
	}
	for i, tile := range b.Resources {
		if tile.Value < 1 {
			t.Errorf("Skim drove tile %d below the floor: %f", i, tile.Value)
		}
	}
	if b.TurnsCount != 1 {
		t.Errorf("TurnsCount should be 1 after one call, got %d", b.TurnsCount)
	}
}

func TestSkimProcessesRightmostFirst(t *testing.T) {
	hs := newHarvestSystem()
	b, _ := biome.New("B001", "Order", 3, biome.StrategyPreservation, 8.0)

	// Tiles at 10 cap out at ceil((10-1)*0.2) = 2 per tile. A request of 2
	// must come entirely from the rightmost tile.
	if _, err := hs.Harvest(b, 2); err != nil {
		t.Fatalf("Harvest failed: %v", err)
	}
	if b.Resources[2].Value != 8 {
		t.Errorf("Rightmost tile should be skimmed first, got %f", b.Resources[2].Value)
	}
	if b.Resources[0].Value != 10 || b.Resources[1].Value != 10 {
		t.Errorf("Left tiles should be untouched, got %f and %f", b.Resources[0].Value, b.Resources[1].Value)
	}
}

func TestSkimRespectsPerTileCap(t *testing.T) {
	hs := newHarvestSystem()
	b, _ := biome.New("B001", "Capped", 2, biome.StrategyPreservation, 8.0)

	// Request far more than two tiles can skim in one call:
	// each yields at most ceil(9*0.2) = 2, so 4 total.
	harvested, _ := hs.Harvest(b, 100)
	if harvested != 4 {
		t.Errorf("Expected 4 units from capped skim, got %f", harvested)
	}
}

func TestHarvestRejectsNegativeRequest(t *testing.T) {
	hs := newHarvestSystem()
	b, _ := biome.New("B001", "Plenty", 4, biome.StrategyPreservation, 8.0)

	if _, err := hs.Harvest(b, -1); err == nil {
		t.Errorf("Expected error for negative harvest request")
	}
}

func TestDepleteTieBreakIsRightmost(t *testing.T) {
	hs := newHarvestSystem()
	b, _ := biome.New("B001", "Floor", 2, biome.StrategyAbusive, 8.0)
	b.Resources[0].Value = 1
	b.Resources[1].Value = 1

	harvested, _ := hs.Harvest(b, 1)
	if harvested != 1 {
		t.Fatalf("Expected 1 depleted unit, got %f", harvested)
	}
	if b.Resources[1].Active || b.Resources[1].Value != 0 {
		t.Errorf("Rightmost floor tile should be depleted first, got %+v", b.Resources[1])
	}
	if !b.Resources[0].Active {
		t.Errorf("Leftmost floor tile should survive the first depletion")
	}
}

func TestPreservationOnlyDepletesAFullySkimmedBiome(t *testing.T) {
	hs := newHarvestSystem()
	b, _ := biome.New("B001", "Careful", 2, biome.StrategyPreservation, 8.0)
	b.Resources[0].Value = 5
	b.Resources[1].Value = 1

	// Tile 0 is still skimmable, so preservation must not deplete tile 1:
	// skim yields ceil((5-1)*0.2) = 1 and nothing more.
	harvested, _ := hs.Harvest(b, 10)
	if harvested != 1 {
		t.Errorf("Expected 1 skimmed unit, got %f", harvested)
	}
	if !b.Resources[1].Active {
		t.Errorf("Preservation depleted a tile while the biome was still skimmable")
	}

	// Fully skimmed now: floor tiles may fall, a quarter of them rounded up.
	b.Resources[0].Value = 1
	harvested, _ = hs.Harvest(b, 10)
	if harvested != 1 {
		t.Errorf("Expected 1 depleted unit from ceil(0.25*2), got %f", harvested)
	}
	if b.Resources[1].Active {
		t.Errorf("Rightmost floor tile should have been depleted")
	}
	if !b.Resources[0].Active {
		t.Errorf("Quota of 1 should spare the leftmost tile")
	}
}

func TestRealisticDepletesEveryThirdTurn(t *testing.T) {
	hs := newHarvestSystem()
	b, _ := biome.New("B001", "Steady", 4, biome.StrategyRealistic, 8.0)
	for i := range b.Resources {
		b.Resources[i].Value = 1
	}

	// Calls 1 and 2: nothing to skim, depletion gate closed.
	for call := 1; call <= 2; call++ {
		harvested, _ := hs.Harvest(b, 2)
		if harvested != 0 {
			t.Errorf("Call %d should harvest nothing, got %f", call, harvested)
		}
	}

	// Call 3: gate opens, min(ceil(0.10*4), 3) = 1 tile falls.
	harvested, _ := hs.Harvest(b, 2)
	if harvested != 1 {
		t.Errorf("Third call should deplete exactly 1 tile, got %f", harvested)
	}
	if b.Resources[3].Active {
		t.Errorf("Rightmost tile should be the one depleted")
	}
}

func TestAbusiveDepletionQuota(t *testing.T) {
	hs := newHarvestSystem()
	b, _ := biome.New("B001", "Strip", 10, biome.StrategyAbusive, 8.0)
	for i := range b.Resources {
		b.Resources[i].Value = 1
	}

	// ceil(0.15*10) = 2 tiles per call.
	harvested, _ := hs.Harvest(b, 10)
	if harvested != 2 {
		t.Errorf("Expected 2 depleted units, got %f", harvested)
	}
	if b.Resources[9].Active || b.Resources[8].Active {
		t.Errorf("The two rightmost tiles should be gone")
	}
	if !b.Resources[7].Active {
		t.Errorf("Quota should spare the third tile from the right")
	}
}

func TestDepletionBoundedByRequest(t *testing.T) {
	hs := newHarvestSystem()
	b, _ := biome.New("B001", "Bounded", 10, biome.StrategyAbusive, 8.0)
	for i := range b.Resources {
		b.Resources[i].Value = 1
	}

	// Quota allows 2 but the request only covers 1.
	harvested, _ := hs.Harvest(b, 1)
	if harvested != 1 {
		t.Errorf("Expected 1 unit, got %f", harvested)
	}
}

func TestHarvestIsBestEffort(t *testing.T) {
	hs := newHarvestSystem()
	b, _ := biome.New("B001", "Scarce", 2, biome.StrategyAbusive, 8.0)
	b.Resources[0].Value = 1
	b.Resources[1].Value = 1

	// Available: ceil(0.15*2) = 1 depletion. The shortfall is not an error.
	harvested, err := hs.Harvest(b, 50)
	if err != nil {
		t.Fatalf("Shortfall must not error: %v", err)
	}
	if harvested != 1 {
		t.Errorf("Expected best-effort 1 unit, got %f", harvested)
	}
}

func TestDepletedTileBecomesBlank(t *testing.T) {
	hs := newHarvestSystem()
	b, _ := biome.New("B001", "Blanking", 2, biome.StrategyAbusive, 8.0)
	b.Resources[0].Value = 1
	b.Resources[1].Value = 1

	hs.Harvest(b, 1)
	tile := b.Resources[1]
	if tile.Active || tile.HasEgg || tile.Value != 0 {
		t.Errorf("Depleted tile should be blank and egg-free, got %+v", tile)
	}
	if b.BlankTileCount() != 1 {
		t.Errorf("Expected 1 blank tile, got %d", b.BlankTileCount())
	}
}
