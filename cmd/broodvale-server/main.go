// Package main is the entry point for the Broodvale simulation server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/averdou/broodvale/server/internal/domain/biome"
	"github.com/averdou/broodvale/server/internal/engine"
	"github.com/averdou/broodvale/server/internal/events"
	"github.com/averdou/broodvale/server/internal/infra/storage"
	"github.com/averdou/broodvale/server/internal/network"
	"github.com/averdou/broodvale/server/internal/platform/config"
	"github.com/averdou/broodvale/server/internal/platform/logger"
	"github.com/averdou/broodvale/server/internal/platform/metrics"
	"github.com/gorilla/websocket"
)

// worldID identifies the single world this server instance runs.
const worldID = "WORLD_1"

// SQLitePersisterAdapter translates domain events to storage events. Turn
// results additionally land in the dedicated turn_history ledger.
type SQLitePersisterAdapter struct {
	events *storage.SQLiteEventRepository
	turns  *storage.SQLiteTurnHistoryRepository
}

func (a *SQLitePersisterAdapter) Append(event events.GameEvent) error {
	start := time.Now()

	payloadBytes, _ := json.Marshal(event.Payload)
	var payloadMap map[string]interface{}
	json.Unmarshal(payloadBytes, &payloadMap)

	err := a.events.Append(context.Background(), storage.GameEvent{
		ID:        event.ID,
		WorldID:   worldID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		ActorID:   event.ActorID,
		BiomeID:   event.BiomeID,
		Payload:   payloadMap,
		Turn:      event.Turn,
	})

	if err == nil && event.Type == events.EventTypeTurnResolved {
		if record, ok := event.Payload.(biome.TurnRecord); ok {
			err = a.turns.Append(context.Background(), storage.TurnRow{
				WorldID:       worldID,
				BiomeID:       event.BiomeID,
				Turn:          record.Turn,
				BaseLushness:  record.BaseLushness,
				LushnessBoost: record.LushnessBoost,
				Lushness:      record.Lushness,
				ResourceTotal: record.ResourceTotal,
				Regenerated:   record.Regenerated,
				Harvested:     record.Harvested,
				EggsProduced:  record.EggsProduced,
				EggCount:      record.EggCount,
			})
		}
	}

	metrics.Get().RecordEventWrite(time.Since(start), err)
	return err
}

// bootstrapBiomes seeds the configured biomes on first run, or reconstructs
// the previous world state from SQLite after a restart.
func bootstrapBiomes(ctx context.Context, cfg *config.Config, biomeRepo *storage.SQLiteBiomeRepository, turnRepo *storage.SQLiteTurnHistoryRepository, eng *engine.Engine, appLogger *logger.Logger) {
	appLogger.Info("Checking DB for existing biomes...")
	snaps, err := biomeRepo.GetByWorldID(ctx, worldID)
	if err != nil {
		appLogger.Error("Failed to query DB for biomes: %v", err)
		return
	}

	if len(snaps) == 0 {
		appLogger.Info("Database empty. Seeding %d configured biomes...", len(cfg.Biomes))
		for _, seed := range cfg.Biomes {
			strategy, err := biome.ParseStrategy(seed.Strategy)
			if err != nil {
				appLogger.Error("Skipping biome %s: %v", seed.ID, err)
				continue
			}
			b, err := biome.New(seed.ID, seed.Name, seed.Tiles, strategy, cfg.Simulation.MaxLushness)
			if err != nil {
				appLogger.Error("Skipping biome %s: %v", seed.ID, err)
				continue
			}
			if n := cfg.Simulation.Egg.InitialCount; n > 0 {
				b.SeedEggs(n)
			}
			persistBiome(ctx, biomeRepo, b, appLogger)
			eng.RegisterBiome(b)
		}
		return
	}

	appLogger.Info("Reconstructing %d biomes from SQLite state...", len(snaps))
	for _, snap := range snaps {
		var tiles []biome.ResourceTile
		if err := json.Unmarshal([]byte(snap.TilesJSON), &tiles); err != nil || len(tiles) == 0 {
			appLogger.Error("Corrupt tile state for biome %s, skipping: %v", snap.BiomeID, err)
			continue
		}

		b, err := biome.New(snap.BiomeID, snap.Name, len(tiles), biome.Strategy(snap.Strategy), snap.Lushness)
		if err != nil {
			appLogger.Error("Skipping biome %s: %v", snap.BiomeID, err)
			continue
		}
		b.Resources = tiles
		b.Lushness = snap.Lushness
		b.BaseLushness = snap.BaseLushness
		b.LushnessBoost = snap.LushnessBoost
		b.EggCount = snap.EggCount
		b.TotalHarvested = snap.TotalHarvested
		b.TurnsCount = snap.TurnsCount

		rows, err := turnRepo.GetByBiomeID(ctx, worldID, snap.BiomeID)
		if err != nil {
			appLogger.Warn("No turn history recovered for biome %s: %v", snap.BiomeID, err)
		}
		if len(rows) > 0 {
			b.History = b.History[:0]
			for _, row := range rows {
				b.History = append(b.History, biome.TurnRecord{
					Turn:          row.Turn,
					BaseLushness:  row.BaseLushness,
					LushnessBoost: row.LushnessBoost,
					Lushness:      row.Lushness,
					ResourceTotal: row.ResourceTotal,
					Regenerated:   row.Regenerated,
					Harvested:     row.Harvested,
					EggsProduced:  row.EggsProduced,
					EggCount:      row.EggCount,
				})
			}
		}

		eng.RegisterBiome(b)
	}
}

func persistBiome(ctx context.Context, repo *storage.SQLiteBiomeRepository, b *biome.Biome, appLogger *logger.Logger) {
	tilesJSON, err := json.Marshal(b.Resources)
	if err != nil {
		appLogger.Error("Failed to marshal tiles for biome %s: %v", b.ID, err)
		return
	}
	err = repo.Upsert(ctx, storage.BiomeSnapshot{
		BiomeID:        b.ID,
		WorldID:        worldID,
		Name:           b.Name,
		Strategy:       string(b.Strategy),
		Lushness:       b.Lushness,
		BaseLushness:   b.BaseLushness,
		LushnessBoost:  b.LushnessBoost,
		EggCount:       b.EggCount,
		TotalHarvested: b.TotalHarvested,
		TurnsCount:     b.TurnsCount,
		TilesJSON:      string(tilesJSON),
	})
	if err != nil {
		appLogger.Error("Failed to persist biome %s: %v", b.ID, err)
	}
}

func main() {
	configPath := flag.String("config", "broodvale.yaml", "path to the YAML configuration file")
	flag.Parse()

	log.Println("[BROODVALE] Initializing authoritative simulation server...")

	appLogger := logger.NewLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	appLogger.Info("Initializing SQLite database %q...", cfg.Server.DBPath)
	db, err := storage.InitSQLite(cfg.Server.DBPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: %v", err)
		os.Exit(1)
	}
	eventRepo := storage.NewSQLiteEventRepository(db)
	turnRepo := storage.NewSQLiteTurnHistoryRepository(db)
	biomeRepo := storage.NewSQLiteBiomeRepository(db)
	eventPersister := &SQLitePersisterAdapter{events: eventRepo, turns: turnRepo}

	appLogger.Info("Bootstrapping event log...")
	eventLog := events.NewEventLog(eventPersister)

	appLogger.Info("Bootstrapping simulation engine...")
	eng := engine.NewEngine(cfg, eventLog, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bootstrapBiomes(ctx, cfg, biomeRepo, turnRepo, eng, appLogger)

	// Attempt to recover the last known turn clock state.
	var tickPayloadStr string
	err = db.QueryRowContext(ctx, "SELECT payload FROM events WHERE world_id = ? AND event_type = ? ORDER BY timestamp DESC LIMIT 1", worldID, events.EventTypeTurnTick).Scan(&tickPayloadStr)
	if err == nil {
		var tickPayload engine.TurnTickPayload
		if err := json.Unmarshal([]byte(tickPayloadStr), &tickPayload); err == nil {
			eng.RestoreClock(tickPayload.TickNumber)
			appLogger.Info("Restored turn clock from database: tick %d", tickPayload.TickNumber)
		}
	}

	eng.Start(ctx)

	// Automated state backup routine
	go func() {
		backupTicker := time.NewTicker(15 * time.Second)
		defer backupTicker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-backupTicker.C:
				for _, snap := range eng.Snapshot() {
					tiles, ok := eng.Tiles(snap.ID)
					if !ok {
						continue
					}
					tilesJSON, err := json.Marshal(tiles)
					if err != nil {
						continue
					}
					_ = biomeRepo.Upsert(ctx, storage.BiomeSnapshot{
						BiomeID:        snap.ID,
						WorldID:        worldID,
						Name:           snap.Name,
						Strategy:       snap.Strategy,
						Lushness:       snap.Lushness,
						BaseLushness:   snap.BaseLushness,
						LushnessBoost:  snap.LushnessBoost,
						EggCount:       snap.EggCount,
						TotalHarvested: snap.TotalHarvested,
						TurnsCount:     snap.TurnsCount,
						TilesJSON:      string(tilesJSON),
					})
				}
			}
		}
	}()

	appLogger.Info("Bootstrapping WebSocket hub...")
	hub := network.NewHub(eng, appLogger)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog)

	replay := network.NewReplayHandler(eng, eventLog, appLogger)

	// Setup API routes
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r, appLogger)
	})

	http.HandleFunc("/api/biomes", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(eng.Snapshot())
	})

	http.HandleFunc("/api/biomes/history", replay.History)
	http.HandleFunc("/api/biomes/events", replay.Events)

	http.HandleFunc("/api/orders/harvest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var payload engine.HarvestOrderPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		if _, exists := eng.Biome(payload.BiomeID); !exists {
			http.Error(w, "Unknown biome", http.StatusNotFound)
			return
		}
		if payload.Units < 0 {
			http.Error(w, "Harvest units must not be negative", http.StatusBadRequest)
			return
		}

		eventLog.Append(events.GameEvent{
			ID:        events.GenerateEventID(),
			Timestamp: time.Now(),
			Type:      events.EventTypeHarvestOrder,
			ActorID:   "ADMIN",
			BiomeID:   payload.BiomeID,
			Payload:   payload,
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	http.HandleFunc("/api/orders/strategy", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var payload engine.StrategyChangePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		if _, exists := eng.Biome(payload.BiomeID); !exists {
			http.Error(w, "Unknown biome", http.StatusNotFound)
			return
		}
		if _, err := biome.ParseStrategy(payload.Strategy); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		eventLog.Append(events.GameEvent{
			ID:        events.GenerateEventID(),
			Timestamp: time.Now(),
			Type:      events.EventTypeStrategyChange,
			ActorID:   "ADMIN",
			BiomeID:   payload.BiomeID,
			Payload:   payload,
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	http.HandleFunc("/metrics", metrics.Handler())
	http.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())

	go func() {
		log.Printf("[BROODVALE] HTTP API & WS server listening on %s", cfg.Server.Addr)
		if err := http.ListenAndServe(cfg.Server.Addr, nil); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[BROODVALE] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[BROODVALE] Shutting down...")
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow cross-origin requests from the frontend dev server
	},
}

// serveWs handles websocket requests from the peer.
func serveWs(hub *network.Hub, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade websocket connection: %v", err)
		return
	}

	client := network.NewClient(hub, conn)
	client.Register()

	go client.WritePump()
	go client.ReadPump()
}
