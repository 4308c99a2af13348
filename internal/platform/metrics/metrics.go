// Package metrics provides observability for the simulation server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Turn metrics
	TurnCount      int64
	TurnLatencySum int64 // nanoseconds
	TurnLatencyMax int64
	LastTurnTime   time.Time

	// Event metrics
	EventsWritten    int64
	EventWriteLatSum int64
	EventWriteLatMax int64
	EventWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// Simulation totals
	UnitsHarvested int64 // whole units, fractional remainders dropped
	EggsLaid       int64
	TilesDepleted  int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTurn records a completed turn resolution across all biomes.
func (c *Collector) RecordTurn(latency time.Duration) {
	atomic.AddInt64(&c.TurnCount, 1)
	atomic.AddInt64(&c.TurnLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.TurnLatencyMax) {
		atomic.StoreInt64(&c.TurnLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastTurnTime = time.Now()
	c.mu.Unlock()
}

// RecordEventWrite records an event write to the database.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))

	if int64(latency) > atomic.LoadInt64(&c.EventWriteLatMax) {
		atomic.StoreInt64(&c.EventWriteLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordHarvest records units extracted from a biome.
func (c *Collector) RecordHarvest(units float64) {
	atomic.AddInt64(&c.UnitsHarvested, int64(units))
}

// RecordEggLaid records a new egg placed on a blank tile.
func (c *Collector) RecordEggLaid() {
	atomic.AddInt64(&c.EggsLaid, 1)
}

// RecordTileDepleted records a tile pushed to zero and deactivated.
func (c *Collector) RecordTileDepleted() {
	atomic.AddInt64(&c.TilesDepleted, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	turnCount := atomic.LoadInt64(&c.TurnCount)
	eventsWritten := atomic.LoadInt64(&c.EventsWritten)

	var turnAvg, eventAvg float64
	if turnCount > 0 {
		turnAvg = float64(atomic.LoadInt64(&c.TurnLatencySum)) / float64(turnCount) / 1e6 // ms
	}
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"turns": map[string]interface{}{
			"count":          turnCount,
			"avg_latency_ms": turnAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TurnLatencyMax)) / 1e6,
			"last_turn":      c.LastTurnTime.Format(time.RFC3339),
		},

		"events": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},

		"simulation": map[string]interface{}{
			"units_harvested": atomic.LoadInt64(&c.UnitsHarvested),
			"eggs_laid":       atomic.LoadInt64(&c.EggsLaid),
			"tiles_depleted":  atomic.LoadInt64(&c.TilesDepleted),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		fmt.Fprintf(w, "# HELP broodvale_turn_count Total simulated turns\n")
		fmt.Fprintf(w, "# TYPE broodvale_turn_count counter\n")
		fmt.Fprintf(w, "broodvale_turn_count %d\n\n", atomic.LoadInt64(&c.TurnCount))

		fmt.Fprintf(w, "# HELP broodvale_turn_latency_max_ms Maximum turn resolution latency\n")
		fmt.Fprintf(w, "# TYPE broodvale_turn_latency_max_ms gauge\n")
		fmt.Fprintf(w, "broodvale_turn_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TurnLatencyMax))/1e6)

		fmt.Fprintf(w, "# HELP broodvale_events_written Total events written\n")
		fmt.Fprintf(w, "# TYPE broodvale_events_written counter\n")
		fmt.Fprintf(w, "broodvale_events_written %d\n\n", atomic.LoadInt64(&c.EventsWritten))

		fmt.Fprintf(w, "# HELP broodvale_event_write_errors Total event write errors\n")
		fmt.Fprintf(w, "# TYPE broodvale_event_write_errors counter\n")
		fmt.Fprintf(w, "broodvale_event_write_errors %d\n\n", atomic.LoadInt64(&c.EventWriteErrors))

		fmt.Fprintf(w, "# HELP broodvale_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE broodvale_ws_connections gauge\n")
		fmt.Fprintf(w, "broodvale_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP broodvale_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE broodvale_ws_messages_total counter\n")
		fmt.Fprintf(w, "broodvale_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "broodvale_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))

		fmt.Fprintf(w, "# HELP broodvale_units_harvested Total units harvested across all biomes\n")
		fmt.Fprintf(w, "# TYPE broodvale_units_harvested counter\n")
		fmt.Fprintf(w, "broodvale_units_harvested %d\n\n", atomic.LoadInt64(&c.UnitsHarvested))

		fmt.Fprintf(w, "# HELP broodvale_eggs_laid Total eggs laid\n")
		fmt.Fprintf(w, "# TYPE broodvale_eggs_laid counter\n")
		fmt.Fprintf(w, "broodvale_eggs_laid %d\n\n", atomic.LoadInt64(&c.EggsLaid))

		fmt.Fprintf(w, "# HELP broodvale_tiles_depleted Total tiles permanently depleted\n")
		fmt.Fprintf(w, "# TYPE broodvale_tiles_depleted counter\n")
		fmt.Fprintf(w, "broodvale_tiles_depleted %d\n", atomic.LoadInt64(&c.TilesDepleted))
	}
}
