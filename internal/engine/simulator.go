package engine

import (
	"math/rand"

	"github.com/averdou/broodvale/server/internal/domain/biome"
	"github.com/averdou/broodvale/server/internal/events"
	"github.com/averdou/broodvale/server/internal/platform/config"
	"github.com/averdou/broodvale/server/internal/platform/logger"
)

// Simulator sequences the three algorithms over one biome for one turn:
// generation, harvest, lushness recompute, egg production, history append.
//
// The ordering is deliberate: the boost is recomputed from the egg counts
// BEFORE this turn's egg is laid, so the boost always lags egg production by
// one turn. That lag is what keeps the feedback loop self-damping instead of
// instantaneously runaway.
type Simulator struct {
	generation *GenerationSystem
	harvest    *HarvestSystem
	lushness   *LushnessSystem
	logger     *logger.Logger
}

// NewSimulator wires the three systems from the simulation tuning.
func NewSimulator(params config.SimulationParams, rng *rand.Rand, eventLog *events.EventLog, log *logger.Logger) *Simulator {
	return &Simulator{
		generation: NewGenerationSystem(params.Generation, rng, log),
		harvest:    NewHarvestSystem(eventLog, log),
		lushness:   NewLushnessSystem(params.MaxLushness, params.Egg, eventLog, log),
		logger:     log,
	}
}

// Generation exposes the regeneration system for standalone rate queries.
func (s *Simulator) Generation() *GenerationSystem { return s.generation }

// Harvest exposes the harvesting engine.
func (s *Simulator) Harvest() *HarvestSystem { return s.harvest }

// Lushness exposes the feedback system.
func (s *Simulator) Lushness() *LushnessSystem { return s.lushness }

// SimulateTurn runs one simulated turn over the biome, mutating it in place,
// appending the history record and returning the same record as the result.
// harvestRate is the player-chosen unit count for this turn; zero skips the
// harvesting engine entirely, negative fails loudly.
func (s *Simulator) SimulateTurn(b *biome.Biome, harvestRate int) (biome.TurnRecord, error) {
	// 1. Regenerate from the start-of-turn lushness.
	regenerated := s.generation.Regenerate(b)

	// 2. Harvest, accumulating into the lifetime total.
	harvested := 0.0
	if harvestRate != 0 {
		var err error
		harvested, err = s.harvest.Harvest(b, harvestRate)
		if err != nil {
			return biome.TurnRecord{}, err
		}
		b.TotalHarvested += harvested
	}

	// 3-5. Recompute lushness from the post-harvest, post-regeneration state.
	// The boost reads egg counts from previous turns only.
	b.BaseLushness = s.lushness.BaseLushness(b)
	b.LushnessBoost = s.lushness.Boost(s.lushness.EggPercentage(b))
	b.Lushness = b.BaseLushness + b.LushnessBoost

	// 6. Egg production sees this turn's fresh lushness, but its own boost
	// contribution only shows up next turn.
	turnIndex := len(b.History)
	eggsProduced := s.lushness.ProduceEggs(b, turnIndex)

	// 7. History append.
	record := biome.TurnRecord{
		Turn:          turnIndex,
		BaseLushness:  b.BaseLushness,
		LushnessBoost: b.LushnessBoost,
		Lushness:      b.Lushness,
		ResourceTotal: b.ResourceTotal(),
		Regenerated:   regenerated,
		Harvested:     harvested,
		EggsProduced:  eggsProduced,
		EggCount:      b.EggCount,
	}
	b.History = append(b.History, record)
	return record, nil
}
