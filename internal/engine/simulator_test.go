package engine

import (
	"math"
	"math/rand"
	"testing"

	"github.com/averdou/broodvale/server/internal/domain/biome"
	"github.com/averdou/broodvale/server/internal/events"
	"github.com/averdou/broodvale/server/internal/platform/config"
	"github.com/averdou/broodvale/server/internal/platform/logger"
)

func newSimulator(seed int64) *Simulator {
	cfg := config.Default()
	rng := rand.New(rand.NewSource(seed))
	return NewSimulator(cfg.Simulation, rng, events.NewEventLog(nil), logger.NewLogger())
}

func TestSimulateTurnIdleBoard(t *testing.T) {
	sim := newSimulator(1)
	b, _ := biome.New("B001", "Idle", 10, biome.StrategyRealistic, 8.0)

	rec, err := sim.SimulateTurn(b, 0)
	if err != nil {
		t.Fatalf("SimulateTurn failed: %v", err)
	}

	// A full, unharvested board is a fixed point: nothing regenerates,
	// nothing is taken, lushness sits at the cap.
	if rec.Turn != 1 {
		t.Errorf("First live turn should be 1, got %d", rec.Turn)
	}
	if rec.Regenerated != 0 || rec.Harvested != 0 {
		t.Errorf("Idle board moved: regen %f, harvested %f", rec.Regenerated, rec.Harvested)
	}
	if rec.Lushness != 8.0 || rec.LushnessBoost != 0 {
		t.Errorf("Expected lushness 8.0 with no boost, got %f (+%f)", rec.Lushness, rec.LushnessBoost)
	}
	if rec.ResourceTotal != 100 {
		t.Errorf("ResourceTotal should stay 100, got %f", rec.ResourceTotal)
	}
	if len(b.History) != 2 {
		t.Errorf("History should hold the initial record plus one turn, got %d", len(b.History))
	}
}

func TestSimulateTurnRejectsNegativeRate(t *testing.T) {
	sim := newSimulator(1)
	b, _ := biome.New("B001", "Idle", 5, biome.StrategyRealistic, 8.0)

	if _, err := sim.SimulateTurn(b, -3); err == nil {
		t.Errorf("Expected error for negative harvest rate")
	}
	if len(b.History) != 1 {
		t.Errorf("Failed turn must not append history, got %d records", len(b.History))
	}
}

func TestSimulateTurnAccumulatesHarvest(t *testing.T) {
	sim := newSimulator(1)
	b, _ := biome.New("B001", "Worked", 10, biome.StrategyRealistic, 8.0)

	total := 0.0
	for i := 0; i < 3; i++ {
		rec, err := sim.SimulateTurn(b, 4)
		if err != nil {
			t.Fatalf("Turn %d failed: %v", i+1, err)
		}
		total += rec.Harvested
	}
	if math.Abs(b.TotalHarvested-total) > 1e-9 {
		t.Errorf("TotalHarvested %f diverges from summed records %f", b.TotalHarvested, total)
	}
}

func TestBoostLagsEggProductionByOneTurn(t *testing.T) {
	sim := newSimulator(1)
	b, _ := biome.New("B001", "Lagged", 10, biome.StrategyRealistic, 8.0)
	for i := 8; i < 10; i++ {
		b.Resources[i].Active = false
		b.Resources[i].Value = 0
	}

	// Turn 1: off-interval, no egg.
	rec, _ := sim.SimulateTurn(b, 0)
	if rec.EggsProduced != 0 {
		t.Fatalf("Turn 1 laid %d eggs off-interval", rec.EggsProduced)
	}

	// Turn 2: the egg is laid this turn, but the recorded boost was computed
	// before it existed.
	rec, _ = sim.SimulateTurn(b, 0)
	if rec.EggsProduced != 1 {
		t.Fatalf("Turn 2 should lay 1 egg, got %d", rec.EggsProduced)
	}
	if rec.LushnessBoost != 0 {
		t.Errorf("Boost should not see the egg laid in the same turn, got %f", rec.LushnessBoost)
	}
	if !b.Resources[8].HasEgg {
		t.Errorf("Egg should land on the leftmost blank tile")
	}

	// Turn 3: one egg over two vacancies, boost = 2.0 * 0.5.
	rec, _ = sim.SimulateTurn(b, 0)
	if math.Abs(rec.LushnessBoost-1.0) > 1e-9 {
		t.Errorf("Turn 3 boost = %f, want 1.0", rec.LushnessBoost)
	}
	if math.Abs(rec.Lushness-9.0) > 1e-9 {
		t.Errorf("Boost stacks on top of base without a cap, got %f", rec.Lushness)
	}
}

func TestLongRunInvariants(t *testing.T) {
	sim := newSimulator(99)
	b, _ := biome.New("B001", "Endurance", 12, biome.StrategyRealistic, 8.0)

	for turn := 1; turn <= 30; turn++ {
		rec, err := sim.SimulateTurn(b, 3)
		if err != nil {
			t.Fatalf("Turn %d failed: %v", turn, err)
		}
		if rec.Turn != turn {
			t.Fatalf("Turn %d recorded as %d", turn, rec.Turn)
		}

		for i, tile := range b.Resources {
			if tile.Value < 0 || tile.Value > biome.TileCapacity {
				t.Fatalf("Turn %d: tile %d out of bounds: %f", turn, i, tile.Value)
			}
			if tile.HasEgg && tile.Active {
				t.Fatalf("Turn %d: tile %d is both egg site and resource source", turn, i)
			}
		}
		if b.EggCount != b.RecountEggs() {
			t.Fatalf("Turn %d: EggCount %d diverges from recount %d", turn, b.EggCount, b.RecountEggs())
		}
		if rec.ResourceTotal < 0 {
			t.Fatalf("Turn %d: negative resource total %f", turn, rec.ResourceTotal)
		}
	}

	if len(b.History) != 31 {
		t.Errorf("Expected 31 history records after 30 turns, got %d", len(b.History))
	}
}

func TestHistoryRecordMatchesBiomeState(t *testing.T) {
	sim := newSimulator(7)
	b, _ := biome.New("B001", "Mirror", 8, biome.StrategyAbusive, 8.0)

	rec, err := sim.SimulateTurn(b, 5)
	if err != nil {
		t.Fatalf("SimulateTurn failed: %v", err)
	}

	last := b.LastRecord()
	if last.Turn != rec.Turn || last.Harvested != rec.Harvested || last.Lushness != rec.Lushness {
		t.Errorf("Returned record %+v diverges from appended record %+v", rec, last)
	}
	if rec.ResourceTotal != b.ResourceTotal() {
		t.Errorf("Recorded total %f diverges from live total %f", rec.ResourceTotal, b.ResourceTotal())
	}
	if rec.EggCount != b.EggCount {
		t.Errorf("Recorded egg count %d diverges from live count %d", rec.EggCount, b.EggCount)
	}
}
