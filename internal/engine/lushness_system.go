package engine

import (
	"time"

	"github.com/averdou/broodvale/server/internal/domain/biome"
	"github.com/averdou/broodvale/server/internal/events"
	"github.com/averdou/broodvale/server/internal/platform/config"
	"github.com/averdou/broodvale/server/internal/platform/logger"
	"github.com/averdou/broodvale/server/internal/platform/metrics"
)

// EggLaidPayload is the data attached to an EGG_LAID event.
type EggLaidPayload struct {
	BiomeID   string  `json:"biome_id"`
	TileIndex int     `json:"tile_index"`
	Lushness  float64 `json:"lushness"`
}

// LushnessSystem computes the ecology health score and drives reproduction.
// Base lushness follows remaining resource health; eggs occupying blank tiles
// add a boost on top, and once lushness crosses the configured threshold new
// eggs are laid on blank tiles.
type LushnessSystem struct {
	maxLushness float64
	egg         config.EggParams
	eventLog    *events.EventLog
	logger      *logger.Logger
}

// NewLushnessSystem creates the feedback system.
func NewLushnessSystem(maxLushness float64, egg config.EggParams, eventLog *events.EventLog, log *logger.Logger) *LushnessSystem {
	return &LushnessSystem{
		maxLushness: maxLushness,
		egg:         egg,
		eventLog:    eventLog,
		logger:      log,
	}
}

// BaseLushness derives the resource-health component of lushness and, as a
// side effect of the same pass, recomputes the biome's non-depleted counter.
func (ls *LushnessSystem) BaseLushness(b *biome.Biome) float64 {
	countActive := 0
	nonDepleted := 0
	sum := 0.0
	for _, t := range b.Resources {
		if !t.Active {
			continue
		}
		countActive++
		sum += t.Value
		if t.Value > 0 {
			nonDepleted++
		}
	}
	b.NonDepletedCount = nonDepleted

	if countActive == 0 || sum <= 0 {
		return 0
	}
	return sum / (float64(countActive) * biome.TileCapacity) * ls.maxLushness
}

// EggPercentage is the share of non-resource tiles currently occupied by eggs.
func (ls *LushnessSystem) EggPercentage(b *biome.Biome) float64 {
	denom := b.BlankTileCount() + b.EggCount
	if denom == 0 {
		return 0
	}
	return float64(b.EggCount) / float64(denom)
}

// Boost converts egg saturation into the additive lushness boost. Full
// saturation of the available blank space yields the maximum boost.
func (ls *LushnessSystem) Boost(eggPercentage float64) float64 {
	return ls.egg.MaxBoost * eggPercentage
}

// ProduceEggs lays at most one egg on a qualifying turn: the turn index must
// land on the configured interval and the biome's lushness must have reached
// the threshold. The leftmost blank tile wins; no blank tile means zero eggs,
// silently. Returns the number of eggs produced (0 or 1).
func (ls *LushnessSystem) ProduceEggs(b *biome.Biome, turnIndex int) int {
	if turnIndex%ls.egg.TurnInterval != 0 {
		return 0
	}
	if b.Lushness < ls.egg.LushnessThreshold {
		return 0
	}

	for i := range b.Resources {
		t := &b.Resources[i]
		if t.Active || t.HasEgg {
			continue
		}
		t.HasEgg = true
		b.EggCount++
		metrics.Get().RecordEggLaid()

		ls.eventLog.Append(events.GameEvent{
			ID:        events.GenerateEventID(),
			Timestamp: time.Now(),
			Type:      events.EventTypeEggLaid,
			ActorID:   "SYSTEM",
			BiomeID:   b.ID,
			Turn:      turnIndex,
			Payload: EggLaidPayload{
				BiomeID:   b.ID,
				TileIndex: i,
				Lushness:  b.Lushness,
			},
		})
		return 1
	}
	return 0
}
