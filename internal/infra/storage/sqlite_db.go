package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite initializes the local SQLite database and creates the necessary
// schemas for persisting biome snapshots, turn history, and the event log.
func InitSQLite(dbPath string) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS biomes (
			biome_id TEXT PRIMARY KEY,
			world_id TEXT NOT NULL,
			name TEXT,
			strategy TEXT NOT NULL,
			lushness REAL NOT NULL DEFAULT 0,
			base_lushness REAL NOT NULL DEFAULT 0,
			lushness_boost REAL NOT NULL DEFAULT 0,
			egg_count INTEGER NOT NULL DEFAULT 0,
			total_harvested REAL NOT NULL DEFAULT 0,
			turns_count INTEGER NOT NULL DEFAULT 0,
			tiles_json TEXT NOT NULL DEFAULT '[]',
			last_updated DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS turn_history (
			world_id TEXT NOT NULL,
			biome_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			base_lushness REAL NOT NULL,
			lushness_boost REAL NOT NULL,
			lushness REAL NOT NULL,
			resource_total REAL NOT NULL,
			regenerated REAL NOT NULL,
			harvested REAL NOT NULL,
			eggs_produced INTEGER NOT NULL,
			egg_count INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (biome_id, turn)
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			world_id TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			event_type TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			biome_id TEXT NOT NULL,
			payload TEXT NOT NULL,
			turn INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_world_id ON events(world_id);`,
		`CREATE INDEX IF NOT EXISTS idx_events_biome_id ON events(biome_id);`,
		`CREATE INDEX IF NOT EXISTS idx_turn_history_biome ON turn_history(biome_id);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
