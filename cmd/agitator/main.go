// Package main - agitator
// Load generator for stress testing: simulates many concurrent players
// spamming harvest orders and strategy flips over WebSocket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Config for the agitator.
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	BiomeIDs       []string
}

// Stats tracks performance counters across all simulated players.
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	Errors           int64
}

var strategies = []string{"preservation", "realistic", "abusive"}

func main() {
	var (
		serverURL = flag.String("url", "ws://localhost:8080/ws", "WebSocket endpoint")
		clients   = flag.Int("clients", 50, "number of concurrent clients")
		interval  = flag.Duration("interval", 2*time.Second, "delay between actions per client")
		duration  = flag.Duration("duration", time.Minute, "total test duration")
		biomes    = flag.String("biomes", "B001,B002,B003", "comma-separated biome IDs to target")
	)
	flag.Parse()

	cfg := Config{
		ServerURL:      *serverURL,
		NumClients:     *clients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		BiomeIDs:       strings.Split(*biomes, ","),
	}

	fmt.Printf("AGITATOR — %d clients vs %s for %s\n", cfg.NumClients, cfg.ServerURL, cfg.TestDuration)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.TestDuration)
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	go func() {
		<-quit
		cancel()
	}()

	stats := &Stats{}
	var wg sync.WaitGroup
	for i := 0; i < cfg.NumClients; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runClient(ctx, id, cfg, stats)
		}(i)
	}
	wg.Wait()

	fmt.Println("\nRESULTS")
	fmt.Printf("  sent:     %d\n", atomic.LoadInt64(&stats.MessagesSent))
	fmt.Printf("  received: %d\n", atomic.LoadInt64(&stats.MessagesReceived))
	fmt.Printf("  errors:   %d\n", atomic.LoadInt64(&stats.Errors))

	if atomic.LoadInt64(&stats.Errors) > 0 {
		os.Exit(1)
	}
}

func runClient(ctx context.Context, id int, cfg Config, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.ServerURL, nil)
	if err != nil {
		atomic.AddInt64(&stats.Errors, 1)
		log.Printf("client %d: dial failed: %v", id, err)
		return
	}
	defer conn.Close()

	rng := rand.New(rand.NewSource(int64(id) + time.Now().UnixNano()))
	actorID := fmt.Sprintf("AGITATOR_%03d", id)

	// Drain inbound broadcasts so the connection stays healthy.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			atomic.AddInt64(&stats.MessagesReceived, 1)
		}
	}()

	ticker := time.NewTicker(cfg.ActionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteJSON(randomAction(rng, actorID, cfg.BiomeIDs)); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				return
			}
			atomic.AddInt64(&stats.MessagesSent, 1)
		}
	}
}

func randomAction(rng *rand.Rand, actorID string, biomeIDs []string) map[string]interface{} {
	biomeID := biomeIDs[rng.Intn(len(biomeIDs))]

	if rng.Float64() < 0.8 {
		payload, _ := json.Marshal(map[string]interface{}{
			"biome_id": biomeID,
			"units":    rng.Intn(10),
		})
		return map[string]interface{}{
			"type":     "SET_HARVEST",
			"actor_id": actorID,
			"payload":  json.RawMessage(payload),
		}
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"biome_id": biomeID,
		"strategy": strategies[rng.Intn(len(strategies))],
	})
	return map[string]interface{}{
		"type":     "SET_STRATEGY",
		"actor_id": actorID,
		"payload":  json.RawMessage(payload),
	}
}
