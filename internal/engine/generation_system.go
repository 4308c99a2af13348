package engine

import (
	"math/rand"

	"github.com/averdou/broodvale/server/internal/domain/biome"
	"github.com/averdou/broodvale/server/internal/platform/config"
	"github.com/averdou/broodvale/server/internal/platform/logger"
)

// GenerationSystem injects new resource quantity into a biome each turn.
// The total injected amount is deterministic given the rate polynomial and the
// eligible tile set; only its distribution across tiles is randomized, using
// the injected generator so runs are reproducible under a fixed seed.
type GenerationSystem struct {
	params config.GenerationParams
	rng    *rand.Rand
	logger *logger.Logger
}

// NewGenerationSystem creates the regeneration system.
func NewGenerationSystem(params config.GenerationParams, rng *rand.Rand, log *logger.Logger) *GenerationSystem {
	return &GenerationSystem{
		params: params,
		rng:    rng,
		logger: log,
	}
}

// Rate evaluates the cubic regeneration-rate polynomial at the given lushness.
// Pure function, clamped at zero.
func (gs *GenerationSystem) Rate(lushness float64) float64 {
	p := gs.params
	rate := p.A*lushness*lushness*lushness + p.B*lushness*lushness + p.C*lushness + p.D
	if rate < 0 {
		return 0
	}
	return rate
}

// Regenerate distributes this turn's regeneration across eligible tiles and
// returns the total amount actually applied. A tile is eligible when it is
// active and strictly between empty and full; full and blank tiles never
// regenerate.
func (gs *GenerationSystem) Regenerate(b *biome.Biome) float64 {
	rate := gs.Rate(b.Lushness)
	if rate <= 0 {
		return 0
	}

	var eligible []int
	totalExpected := 0.0
	for i, t := range b.Resources {
		if !t.Active || t.Value <= 0 || t.Value >= biome.TileCapacity {
			continue
		}
		eligible = append(eligible, i)
		totalExpected += rate * (1 - t.Value/biome.TileCapacity)
	}
	if len(eligible) == 0 || totalExpected <= 0 {
		return 0
	}

	// Independent uniform weights in [0.5, 2.5), normalized to proportions.
	weights := make([]float64, len(eligible))
	weightSum := 0.0
	for i := range weights {
		weights[i] = 0.5 + gs.rng.Float64()*2.0
		weightSum += weights[i]
	}

	applied := 0.0
	for i, idx := range eligible {
		t := &b.Resources[idx]
		share := totalExpected * weights[i] / weightSum
		if t.Value+share > biome.TileCapacity {
			share = biome.TileCapacity - t.Value
		}
		t.Value += share
		applied += share
	}
	return applied
}
