package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/averdou/broodvale/server/internal/domain/biome"
	"github.com/averdou/broodvale/server/internal/events"
	"github.com/averdou/broodvale/server/internal/platform/config"
	"github.com/averdou/broodvale/server/internal/platform/logger"
	"github.com/averdou/broodvale/server/internal/platform/metrics"
)

// Engine is the central orchestrator wiring the event log to the simulation.
// It owns the biome registry and resolves one turn per registered biome on
// every tick, in sorted biome-ID order for reproducibility.
type Engine struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	ticker   *TurnTicker

	simulator *Simulator
	orders    *OrderSystem

	mu     sync.RWMutex
	biomes map[string]*biome.Biome

	lastProcessedEvent int
}

// NewEngine initializes the simulation systems and dependencies. A zero seed
// derives one from the wall clock; any other value makes runs reproducible.
func NewEngine(cfg *config.Config, eventLog *events.EventLog, log *logger.Logger) *Engine {
	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	return &Engine{
		eventLog:  eventLog,
		logger:    log,
		ticker:    NewTurnTicker(eventLog, time.Duration(cfg.Simulation.TurnInterval), log),
		simulator: NewSimulator(cfg.Simulation, rng, eventLog, log),
		orders:    NewOrderSystem(log),
		biomes:    make(map[string]*biome.Biome),
	}
}

// Start spawns the ticker and the event processing loop.
func (e *Engine) Start(ctx context.Context) {
	e.logger.Info("Starting simulation engine...")

	go e.ticker.Start(ctx)
	go e.processEvents(ctx)
}

// RegisterBiome adds a biome to the simulation.
func (e *Engine) RegisterBiome(b *biome.Biome) {
	e.mu.Lock()
	e.biomes[b.ID] = b
	e.mu.Unlock()
	e.logger.Info("Biome registered with engine: %s (%s), %d tiles, strategy %s",
		b.ID, b.Name, len(b.Resources), b.Strategy)
}

// RestoreClock allows bootstrapping code to set the tick counter after a
// restart, so recovered event history lines up with new ticks.
func (e *Engine) RestoreClock(tick int64) {
	e.ticker.SetTick(tick)
}

// Simulator exposes the turn pipeline for headless tooling.
func (e *Engine) Simulator() *Simulator {
	return e.simulator
}

// Orders exposes the order buffer for API endpoints.
func (e *Engine) Orders() *OrderSystem {
	return e.orders
}

// EventLog exposes the event log for clients to inject player actions.
func (e *Engine) EventLog() *events.EventLog {
	return e.eventLog
}

// BiomeSnapshot is a value copy of a biome's externally visible state.
type BiomeSnapshot struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Strategy       string           `json:"strategy"`
	Lushness       float64          `json:"lushness"`
	BaseLushness   float64          `json:"base_lushness"`
	LushnessBoost  float64          `json:"lushness_boost"`
	ResourceTotal  float64          `json:"resource_total"`
	EggCount       int              `json:"egg_count"`
	TotalHarvested float64          `json:"total_harvested"`
	TurnsCount     int              `json:"turns_count"`
	Turn           int              `json:"turn"`
	LastRecord     biome.TurnRecord `json:"last_record"`
}

// Snapshot returns value copies of every biome's display state, safe to read
// while the simulation keeps running.
func (e *Engine) Snapshot() []BiomeSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snaps := make([]BiomeSnapshot, 0, len(e.biomes))
	for _, id := range e.sortedIDsLocked() {
		b := e.biomes[id]
		snaps = append(snaps, BiomeSnapshot{
			ID:             b.ID,
			Name:           b.Name,
			Strategy:       string(b.Strategy),
			Lushness:       b.Lushness,
			BaseLushness:   b.BaseLushness,
			LushnessBoost:  b.LushnessBoost,
			ResourceTotal:  b.ResourceTotal(),
			EggCount:       b.EggCount,
			TotalHarvested: b.TotalHarvested,
			TurnsCount:     b.TurnsCount,
			Turn:           len(b.History) - 1,
			LastRecord:     b.LastRecord(),
		})
	}
	return snaps
}

// History returns a copy of a biome's turn ledger, safe to read while the
// simulation keeps running.
func (e *Engine) History(id string) ([]biome.TurnRecord, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.biomes[id]
	if !ok {
		return nil, false
	}
	out := make([]biome.TurnRecord, len(b.History))
	copy(out, b.History)
	return out, true
}

// Tiles returns a copy of a biome's tile strip, for persistence.
func (e *Engine) Tiles(id string) ([]biome.ResourceTile, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.biomes[id]
	if !ok {
		return nil, false
	}
	out := make([]biome.ResourceTile, len(b.Resources))
	copy(out, b.Resources)
	return out, true
}

// Biome returns the live biome for a given ID. Mutating it outside the engine
// loop is a caller defect; use Snapshot for reads.
func (e *Engine) Biome(id string) (*biome.Biome, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.biomes[id]
	return b, ok
}

// processEvents listens to the event log and dispatches items to subsystems.
func (e *Engine) processEvents(ctx context.Context) {
	pollInterval := time.NewTicker(100 * time.Millisecond)
	defer pollInterval.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Event processor stopped.")
			return
		case <-pollInterval.C:
			allEvents := e.eventLog.Replay()
			if len(allEvents) > e.lastProcessedEvent {
				newEvents := allEvents[e.lastProcessedEvent:]
				e.lastProcessedEvent = len(allEvents)
				for _, event := range newEvents {
					e.dispatch(event)
				}
			}
		}
	}
}

// dispatch routes a GameEvent to the appropriate subsystem.
func (e *Engine) dispatch(event events.GameEvent) {
	switch event.Type {
	case events.EventTypeTurnTick:
		e.resolveTurn()

	case events.EventTypeHarvestOrder:
		e.orders.OnHarvestOrder(event)

	case events.EventTypeStrategyChange:
		e.onStrategyChange(event)
	}
}

// resolveTurn runs one simulated turn over every registered biome and emits a
// TURN_RESOLVED event per biome.
func (e *Engine) resolveTurn() {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range e.sortedIDsLocked() {
		b := e.biomes[id]
		rate := e.orders.Rate(id)

		record, err := e.simulator.SimulateTurn(b, rate)
		if err != nil {
			e.logger.Error("Turn resolution failed for biome %s: %v", id, err)
			continue
		}

		metrics.Get().RecordHarvest(record.Harvested)

		e.eventLog.Append(events.GameEvent{
			ID:        events.GenerateEventID(),
			Timestamp: time.Now(),
			Type:      events.EventTypeTurnResolved,
			ActorID:   "SYSTEM",
			BiomeID:   id,
			Turn:      record.Turn,
			Payload:   record,
		})
		e.logger.Event("TURN_RESOLVED", id,
			fmt.Sprintf("turn=%d lushness=%.2f harvested=%.2f eggs=%d",
				record.Turn, record.Lushness, record.Harvested, record.EggCount))
	}

	metrics.Get().RecordTurn(time.Since(start))
}

// onStrategyChange validates and applies a strategy swap. Malformed values are
// rejected here; the harvesting engine never sees them.
func (e *Engine) onStrategyChange(event events.GameEvent) {
	payload, ok := event.Payload.(StrategyChangePayload)
	if !ok {
		m, mapped := event.Payload.(map[string]interface{})
		if !mapped {
			return
		}
		payload.BiomeID, _ = m["biome_id"].(string)
		payload.Strategy, _ = m["strategy"].(string)
	}

	strategy, err := biome.ParseStrategy(payload.Strategy)
	if err != nil {
		e.logger.Error("Rejected strategy change for biome %s: %v", payload.BiomeID, err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	b, exists := e.biomes[payload.BiomeID]
	if !exists {
		e.logger.Warn("Strategy change for unknown biome %s", payload.BiomeID)
		return
	}
	if err := b.SetStrategy(strategy); err != nil {
		e.logger.Error("Strategy change failed for biome %s: %v", payload.BiomeID, err)
		return
	}
	e.logger.Event("STRATEGY_CHANGE", payload.BiomeID, "now "+payload.Strategy)
}

// sortedIDsLocked returns biome IDs in ascending order. Callers must hold mu.
func (e *Engine) sortedIDsLocked() []string {
	ids := make([]string, 0, len(e.biomes))
	for id := range e.biomes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
