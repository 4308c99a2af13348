// Turn history export. Charts on the frontend read a biome's full per-turn
// ledger from here rather than accumulating websocket frames.
package network

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/averdou/broodvale/server/internal/engine"
	"github.com/averdou/broodvale/server/internal/events"
	"github.com/averdou/broodvale/server/internal/platform/logger"
)

// ReplayHandler serves biome history and event replays over HTTP.
type ReplayHandler struct {
	eng      *engine.Engine
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(eng *engine.Engine, el *events.EventLog, log *logger.Logger) *ReplayHandler {
	return &ReplayHandler{
		eng:      eng,
		eventLog: el,
		logger:   log,
	}
}

// History returns a biome's full turn history as JSON.
// GET /api/biomes/history?biome_id=B001&limit=50
func (h *ReplayHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	biomeID := r.URL.Query().Get("biome_id")
	history, exists := h.eng.History(biomeID)
	if !exists {
		http.Error(w, "Unknown biome", http.StatusNotFound)
		return
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		if limit < len(history) {
			history = history[len(history)-limit:]
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"biome_id": biomeID,
		"history":  history,
	})
}

// Events returns the raw event replay for a biome.
// GET /api/biomes/events?biome_id=B001
func (h *ReplayHandler) Events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	biomeID := r.URL.Query().Get("biome_id")
	if _, exists := h.eng.Biome(biomeID); !exists {
		http.Error(w, "Unknown biome", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"biome_id": biomeID,
		"events":   h.eventLog.GetByBiome(biomeID),
	})
}
