package engine

import (
	"context"
	"time"

	"github.com/averdou/broodvale/server/internal/events"
	"github.com/averdou/broodvale/server/internal/platform/logger"
)

// TurnTickPayload is the data attached to each TurnTick event.
type TurnTickPayload struct {
	TickNumber int64 `json:"tick_number"`
}

// TurnTicker manages the simulation heartbeat. It does NOT know about biomes
// or lushness, only time progression: each tick tells the engine to resolve
// one simulated turn for every registered biome.
type TurnTicker struct {
	eventLog   *events.EventLog
	logger     *logger.Logger
	interval   time.Duration
	tickNumber int64
	stopChan   chan struct{}
}

// NewTurnTicker creates a new turn ticker.
func NewTurnTicker(eventLog *events.EventLog, interval time.Duration, log *logger.Logger) *TurnTicker {
	return &TurnTicker{
		eventLog: eventLog,
		logger:   log,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the turn loop. Call in a goroutine.
func (t *TurnTicker) Start(ctx context.Context) {
	t.logger.Info("Turn ticker started, one turn every %s", t.interval)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Turn ticker stopped by context.")
			return
		case <-t.stopChan:
			t.logger.Info("Turn ticker stopped manually.")
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

// Stop gracefully stops the ticker.
func (t *TurnTicker) Stop() {
	close(t.stopChan)
}

// SetTick allows bootstrapping code to restore the clock after a restart.
func (t *TurnTicker) SetTick(n int64) {
	t.tickNumber = n
}

// CurrentTick returns the number of ticks emitted so far.
func (t *TurnTicker) CurrentTick() int64 {
	return t.tickNumber
}

// tick emits a single TurnTick event; the engine's dispatch loop reacts.
func (t *TurnTicker) tick() {
	t.tickNumber++

	t.eventLog.Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeTurnTick,
		ActorID:   "SYSTEM",
		Payload:   TurnTickPayload{TickNumber: t.tickNumber},
	})
}
