// Package storage provides the persistence layer for the simulation server.
// It implements the repository pattern to keep the domain pure: the domain
// never imports this package, infrastructure adapters translate both ways.
package storage

import (
	"context"
	"time"
)

// GameEvent mirrors the domain event structure for persistence.
type GameEvent struct {
	ID        string                 `json:"id" db:"id"`
	WorldID   string                 `json:"world_id" db:"world_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	EventType string                 `json:"event_type" db:"event_type"`
	ActorID   string                 `json:"actor_id" db:"actor_id"`
	BiomeID   string                 `json:"biome_id" db:"biome_id"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
	Turn      int                    `json:"turn" db:"turn"`
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event GameEvent) error

	// GetByWorldID retrieves all events for a world (the full replay).
	GetByWorldID(ctx context.Context, worldID string) ([]GameEvent, error)

	// GetByBiomeID retrieves all events affecting a biome.
	GetByBiomeID(ctx context.Context, worldID, biomeID string) ([]GameEvent, error)

	// GetByEventType retrieves all events of a specific type.
	GetByEventType(ctx context.Context, worldID string, eventType string) ([]GameEvent, error)
}

// BiomeSnapshot represents the current state of a biome for quick reads and
// restart recovery. TilesJSON carries the serialized tile strip; the core
// engine stays oblivious to how its state is persisted.
type BiomeSnapshot struct {
	BiomeID        string    `json:"biome_id" db:"biome_id"`
	WorldID        string    `json:"world_id" db:"world_id"`
	Name           string    `json:"name" db:"name"`
	Strategy       string    `json:"strategy" db:"strategy"`
	Lushness       float64   `json:"lushness" db:"lushness"`
	BaseLushness   float64   `json:"base_lushness" db:"base_lushness"`
	LushnessBoost  float64   `json:"lushness_boost" db:"lushness_boost"`
	EggCount       int       `json:"egg_count" db:"egg_count"`
	TotalHarvested float64   `json:"total_harvested" db:"total_harvested"`
	TurnsCount     int       `json:"turns_count" db:"turns_count"`
	TilesJSON      string    `json:"tiles_json" db:"tiles_json"`
	LastUpdated    time.Time `json:"last_updated" db:"last_updated"`
}

// BiomeRepository defines the interface for biome snapshot persistence.
type BiomeRepository interface {
	Upsert(ctx context.Context, snapshot BiomeSnapshot) error
	GetByBiomeID(ctx context.Context, biomeID string) (*BiomeSnapshot, error)
	GetByWorldID(ctx context.Context, worldID string) ([]BiomeSnapshot, error)
}

// TurnRow is one persisted per-turn history record.
type TurnRow struct {
	WorldID       string    `json:"world_id" db:"world_id"`
	BiomeID       string    `json:"biome_id" db:"biome_id"`
	Turn          int       `json:"turn" db:"turn"`
	BaseLushness  float64   `json:"base_lushness" db:"base_lushness"`
	LushnessBoost float64   `json:"lushness_boost" db:"lushness_boost"`
	Lushness      float64   `json:"lushness" db:"lushness"`
	ResourceTotal float64   `json:"resource_total" db:"resource_total"`
	Regenerated   float64   `json:"regenerated" db:"regenerated"`
	Harvested     float64   `json:"harvested" db:"harvested"`
	EggsProduced  int       `json:"eggs_produced" db:"eggs_produced"`
	EggCount      int       `json:"egg_count" db:"egg_count"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// TurnHistoryRepository defines the interface for the append-only turn ledger.
type TurnHistoryRepository interface {
	Append(ctx context.Context, row TurnRow) error
	GetByBiomeID(ctx context.Context, worldID, biomeID string) ([]TurnRow, error)
}
