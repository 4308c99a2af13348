package events

import (
	"sync"
	"testing"
	"time"
)

type recordingPersister struct {
	mu     sync.Mutex
	stored []GameEvent
}

func (p *recordingPersister) Append(event GameEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stored = append(p.stored, event)
	return nil
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stored)
}

func makeEvent(eventType EventType, biomeID string, turn int) GameEvent {
	return GameEvent{
		ID:        GenerateEventID(),
		Timestamp: time.Now(),
		Type:      eventType,
		ActorID:   "SYSTEM",
		BiomeID:   biomeID,
		Turn:      turn,
	}
}

func TestEventLogFilters(t *testing.T) {
	log := NewEventLog(nil)
	log.Append(makeEvent(EventTypeTurnTick, "", 1))
	log.Append(makeEvent(EventTypeHarvestOrder, "B001", 1))
	log.Append(makeEvent(EventTypeTurnResolved, "B001", 1))
	log.Append(makeEvent(EventTypeTurnResolved, "B002", 2))

	if got := len(log.GetByBiome("B001")); got != 2 {
		t.Errorf("GetByBiome(B001) returned %d events, want 2", got)
	}
	if got := len(log.GetByTurn(1)); got != 3 {
		t.Errorf("GetByTurn(1) returned %d events, want 3", got)
	}
	if got := len(log.Replay()); got != 4 {
		t.Errorf("Replay returned %d events, want 4", got)
	}
}

func TestEventLogWritesThrough(t *testing.T) {
	p := &recordingPersister{}
	log := NewEventLog(p)

	for i := 0; i < 5; i++ {
		log.Append(makeEvent(EventTypeEggLaid, "B001", i))
	}

	// The write-through is asynchronous; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for p.count() < 5 {
		if time.Now().After(deadline) {
			t.Fatalf("Persister received %d of 5 events", p.count())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestGenerateEventIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateEventID()
		if id == "" {
			t.Fatal("Empty event ID")
		}
		if seen[id] {
			t.Fatalf("Duplicate event ID %s", id)
		}
		seen[id] = true
	}
}
