// Package events provides the append-only event log for the simulation server.
// Player orders, turn ticks, and turn results all flow through it, so the full
// life of a world can be replayed from the log alone.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeTurnTick       EventType = "TURN_TICK"
	EventTypeTurnResolved   EventType = "TURN_RESOLVED"
	EventTypeHarvestOrder   EventType = "HARVEST_ORDER"
	EventTypeStrategyChange EventType = "STRATEGY_CHANGE"
	EventTypeEggLaid        EventType = "EGG_LAID"
	EventTypeTileDepleted   EventType = "TILE_DEPLETED"
)

// GameEvent represents an immutable record of an action in the simulation.
type GameEvent struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"` // Who performed the action ("SYSTEM" for the engine)
	BiomeID   string      `json:"biome_id"` // Which biome was affected (optional)
	Payload   interface{} `json:"payload"`  // Event-specific data
	Turn      int         `json:"turn"`     // Simulated turn the event belongs to
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of game events, optionally
// writing through to persistent storage.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	persister EventPersister
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		persister: persister,
	}
}

// Append adds a new event to the log. Events are immutable once appended.
func (el *EventLog) Append(event GameEvent) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.events = append(el.events, event)

	if el.persister != nil {
		// Write through to persistent storage without blocking the caller.
		go func(e GameEvent) {
			_ = el.persister.Append(e)
		}(event)
	}
}

// GetByBiome returns all events affecting a specific biome.
func (el *EventLog) GetByBiome(biomeID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.BiomeID == biomeID {
			result = append(result, e)
		}
	}
	return result
}

// GetByTurn returns all events that occurred on a specific simulated turn.
func (el *EventLog) GetByTurn(turn int) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Turn == turn {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns the full history of events for state reconstruction.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.events
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
