package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/averdou/broodvale/server/internal/domain/biome"
	"github.com/averdou/broodvale/server/internal/events"
	"github.com/averdou/broodvale/server/internal/platform/logger"
	"github.com/averdou/broodvale/server/internal/platform/metrics"
)

// skimFloor is the value Phase A never takes a tile below. Tiles sitting
// exactly at the floor are the candidates for terminal depletion.
const skimFloor = 1.0

// TileDepletedPayload is the data attached to a TILE_DEPLETED event.
type TileDepletedPayload struct {
	BiomeID   string `json:"biome_id"`
	TileIndex int    `json:"tile_index"`
	Strategy  string `json:"strategy"`
}

// HarvestSystem extracts a requested quantity per turn using a two-phase
// policy: a proportional skim down to the floor, then a strategy-dependent
// terminal depletion. Harvesting is always best effort; a shortfall returns
// the lesser actual amount, never an error.
type HarvestSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewHarvestSystem creates the harvesting engine.
func NewHarvestSystem(eventLog *events.EventLog, log *logger.Logger) *HarvestSystem {
	return &HarvestSystem{
		eventLog: eventLog,
		logger:   log,
	}
}

// Harvest extracts up to unitsRequested from the biome and returns the amount
// actually harvested. A negative request is a caller defect and fails loudly.
func (hs *HarvestSystem) Harvest(b *biome.Biome, unitsRequested int) (float64, error) {
	if unitsRequested < 0 {
		return 0, fmt.Errorf("biome %q: harvest rate must not be negative, got %d", b.ID, unitsRequested)
	}

	b.TurnsCount++
	remaining := float64(unitsRequested)

	remaining = hs.skim(b, remaining)
	if remaining > 0 {
		var err error
		remaining, err = hs.deplete(b, remaining)
		if err != nil {
			return 0, err
		}
	}

	return float64(unitsRequested) - remaining, nil
}

// skim is Phase A, identical for all strategies: among active tiles above the
// floor, rightmost first, deduct at least 1 unit but at most 20% of the
// distance to the floor, never crossing it.
func (hs *HarvestSystem) skim(b *biome.Biome, remaining float64) float64 {
	for i := len(b.Resources) - 1; i >= 0 && remaining > 0; i-- {
		t := &b.Resources[i]
		if !t.Active || t.Value <= skimFloor {
			continue
		}
		cap := math.Max(1, math.Ceil((t.Value-skimFloor)*0.2))
		take := math.Min(cap, math.Min(t.Value-skimFloor, remaining))
		t.Value -= take
		remaining -= take
	}
	return remaining
}

// deplete is Phase B: push floor tiles to zero, rightmost first, each counting
// as one harvested unit and permanently converting the tile to blank. How many
// tiles may fall in one call is the strategy's decision.
func (hs *HarvestSystem) deplete(b *biome.Biome, remaining float64) (float64, error) {
	floorTiles := 0
	skimmable := false
	for _, t := range b.Resources {
		if !t.Active {
			continue
		}
		if t.Value > skimFloor {
			skimmable = true
		} else if t.Value > 0 {
			floorTiles++
		}
	}
	if floorTiles == 0 {
		return remaining, nil
	}

	var quota int
	switch b.Strategy {
	case biome.StrategyPreservation:
		// Only once the biome is fully skimmed.
		if skimmable {
			return remaining, nil
		}
		quota = int(math.Ceil(0.25 * float64(floorTiles)))
	case biome.StrategyRealistic:
		if b.TurnsCount%3 != 0 {
			return remaining, nil
		}
		quota = int(math.Ceil(0.10 * float64(floorTiles)))
		if quota > 3 {
			quota = 3
		}
	case biome.StrategyAbusive:
		quota = int(math.Ceil(0.15 * float64(floorTiles)))
	default:
		// Unreachable when strategies are assigned through the domain layer.
		return remaining, fmt.Errorf("biome %q: unrecognized harvest strategy %q", b.ID, b.Strategy)
	}

	for i := len(b.Resources) - 1; i >= 0 && quota > 0 && remaining >= 1; i-- {
		t := &b.Resources[i]
		if !t.Active || t.Value > skimFloor || t.Value <= 0 {
			continue
		}
		t.Value = 0
		t.Active = false
		remaining--
		quota--
		metrics.Get().RecordTileDepleted()

		hs.eventLog.Append(events.GameEvent{
			ID:        events.GenerateEventID(),
			Timestamp: time.Now(),
			Type:      events.EventTypeTileDepleted,
			ActorID:   "SYSTEM",
			BiomeID:   b.ID,
			Turn:      len(b.History),
			Payload: TileDepletedPayload{
				BiomeID:   b.ID,
				TileIndex: i,
				Strategy:  string(b.Strategy),
			},
		})
	}
	return remaining, nil
}
