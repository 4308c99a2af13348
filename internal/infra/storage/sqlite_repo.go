package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event GameEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, world_id, timestamp, event_type, actor_id, biome_id, payload, turn)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.WorldID, event.Timestamp, event.EventType, event.ActorID,
		event.BiomeID, string(payloadBytes), event.Turn,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]GameEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GameEvent
	for rows.Next() {
		var e GameEvent
		var payloadStr string
		err := rows.Scan(
			&e.ID, &e.WorldID, &e.Timestamp, &e.EventType, &e.ActorID,
			&e.BiomeID, &payloadStr, &e.Turn,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *SQLiteEventRepository) GetByWorldID(ctx context.Context, worldID string) ([]GameEvent, error) {
	query := `SELECT id, world_id, timestamp, event_type, actor_id, biome_id, payload, turn FROM events WHERE world_id = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, worldID)
}

func (r *SQLiteEventRepository) GetByBiomeID(ctx context.Context, worldID, biomeID string) ([]GameEvent, error) {
	query := `SELECT id, world_id, timestamp, event_type, actor_id, biome_id, payload, turn FROM events WHERE world_id = ? AND biome_id = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, worldID, biomeID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, worldID string, eventType string) ([]GameEvent, error) {
	query := `SELECT id, world_id, timestamp, event_type, actor_id, biome_id, payload, turn FROM events WHERE world_id = ? AND event_type = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, worldID, eventType)
}

// ---------------------------------------------------------
// SQLiteBiomeRepository
// ---------------------------------------------------------

type SQLiteBiomeRepository struct {
	db *sql.DB
}

func NewSQLiteBiomeRepository(db *sql.DB) *SQLiteBiomeRepository {
	return &SQLiteBiomeRepository{db: db}
}

func (r *SQLiteBiomeRepository) Upsert(ctx context.Context, snapshot BiomeSnapshot) error {
	query := `
		INSERT INTO biomes (biome_id, world_id, name, strategy, lushness, base_lushness, lushness_boost, egg_count, total_harvested, turns_count, tiles_json, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(biome_id) DO UPDATE SET
			name=excluded.name,
			strategy=excluded.strategy,
			lushness=excluded.lushness,
			base_lushness=excluded.base_lushness,
			lushness_boost=excluded.lushness_boost,
			egg_count=excluded.egg_count,
			total_harvested=excluded.total_harvested,
			turns_count=excluded.turns_count,
			tiles_json=excluded.tiles_json,
			last_updated=excluded.last_updated
	`
	_, err := r.db.ExecContext(ctx, query,
		snapshot.BiomeID, snapshot.WorldID, snapshot.Name, snapshot.Strategy,
		snapshot.Lushness, snapshot.BaseLushness, snapshot.LushnessBoost,
		snapshot.EggCount, snapshot.TotalHarvested, snapshot.TurnsCount,
		snapshot.TilesJSON, time.Now(),
	)
	return err
}

func (r *SQLiteBiomeRepository) GetByBiomeID(ctx context.Context, biomeID string) (*BiomeSnapshot, error) {
	query := `SELECT biome_id, world_id, name, strategy, lushness, base_lushness, lushness_boost, egg_count, total_harvested, turns_count, tiles_json FROM biomes WHERE biome_id = ?`
	var s BiomeSnapshot
	err := r.db.QueryRowContext(ctx, query, biomeID).Scan(
		&s.BiomeID, &s.WorldID, &s.Name, &s.Strategy, &s.Lushness, &s.BaseLushness,
		&s.LushnessBoost, &s.EggCount, &s.TotalHarvested, &s.TurnsCount, &s.TilesJSON,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteBiomeRepository) GetByWorldID(ctx context.Context, worldID string) ([]BiomeSnapshot, error) {
	query := `SELECT biome_id, world_id, name, strategy, lushness, base_lushness, lushness_boost, egg_count, total_harvested, turns_count, tiles_json FROM biomes WHERE world_id = ? ORDER BY biome_id ASC`
	rows, err := r.db.QueryContext(ctx, query, worldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []BiomeSnapshot
	for rows.Next() {
		var s BiomeSnapshot
		if err := rows.Scan(&s.BiomeID, &s.WorldID, &s.Name, &s.Strategy, &s.Lushness, &s.BaseLushness, &s.LushnessBoost, &s.EggCount, &s.TotalHarvested, &s.TurnsCount, &s.TilesJSON); err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

// ---------------------------------------------------------
// SQLiteTurnHistoryRepository
// ---------------------------------------------------------

type SQLiteTurnHistoryRepository struct {
	db *sql.DB
}

func NewSQLiteTurnHistoryRepository(db *sql.DB) *SQLiteTurnHistoryRepository {
	return &SQLiteTurnHistoryRepository{db: db}
}

func (r *SQLiteTurnHistoryRepository) Append(ctx context.Context, row TurnRow) error {
	query := `
		INSERT OR IGNORE INTO turn_history (world_id, biome_id, turn, base_lushness, lushness_boost, lushness, resource_total, regenerated, harvested, eggs_produced, egg_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		row.WorldID, row.BiomeID, row.Turn, row.BaseLushness, row.LushnessBoost,
		row.Lushness, row.ResourceTotal, row.Regenerated, row.Harvested,
		row.EggsProduced, row.EggCount, time.Now(),
	)
	return err
}

func (r *SQLiteTurnHistoryRepository) GetByBiomeID(ctx context.Context, worldID, biomeID string) ([]TurnRow, error) {
	query := `SELECT world_id, biome_id, turn, base_lushness, lushness_boost, lushness, resource_total, regenerated, harvested, eggs_produced, egg_count, created_at FROM turn_history WHERE world_id = ? AND biome_id = ? ORDER BY turn ASC`
	rows, err := r.db.QueryContext(ctx, query, worldID, biomeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TurnRow
	for rows.Next() {
		var t TurnRow
		if err := rows.Scan(&t.WorldID, &t.BiomeID, &t.Turn, &t.BaseLushness, &t.LushnessBoost, &t.Lushness, &t.ResourceTotal, &t.Regenerated, &t.Harvested, &t.EggsProduced, &t.EggCount, &t.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
