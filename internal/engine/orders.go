package engine

import (
	"sync"

	"github.com/averdou/broodvale/server/internal/events"
	"github.com/averdou/broodvale/server/internal/platform/logger"
)

// HarvestOrderPayload is the data for a HARVEST_ORDER event.
type HarvestOrderPayload struct {
	BiomeID string `json:"biome_id"`
	Units   int    `json:"units"`
}

// StrategyChangePayload is the data for a STRATEGY_CHANGE event.
type StrategyChangePayload struct {
	BiomeID  string `json:"biome_id"`
	Strategy string `json:"strategy"`
}

// OrderSystem buffers player harvest orders between turns. Orders are
// standing: the rate set for a biome keeps applying every turn until a player
// replaces it. The engine reads the current rate when it resolves a tick.
type OrderSystem struct {
	mu      sync.Mutex
	pending map[string]int // biome ID -> units per turn
	logger  *logger.Logger
}

// NewOrderSystem creates the order buffer.
func NewOrderSystem(log *logger.Logger) *OrderSystem {
	return &OrderSystem{
		pending: make(map[string]int),
		logger:  log,
	}
}

// OnHarvestOrder reacts to a HARVEST_ORDER event from the log.
func (os *OrderSystem) OnHarvestOrder(event events.GameEvent) {
	payload, ok := event.Payload.(HarvestOrderPayload)
	if !ok {
		// Map fallback for events recovered from the database.
		m, mapped := event.Payload.(map[string]interface{})
		if !mapped {
			return
		}
		payload.BiomeID, _ = m["biome_id"].(string)
		unitsFloat, _ := m["units"].(float64)
		payload.Units = int(unitsFloat)
	}

	if payload.Units < 0 {
		os.logger.Warn("Rejected negative harvest order for biome %s: %d", payload.BiomeID, payload.Units)
		return
	}

	os.mu.Lock()
	os.pending[payload.BiomeID] = payload.Units
	os.mu.Unlock()
}

// Rate returns the standing harvest rate for a biome, zero if none was set.
func (os *OrderSystem) Rate(biomeID string) int {
	os.mu.Lock()
	defer os.mu.Unlock()
	return os.pending[biomeID]
}
