package network

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/averdou/broodvale/server/internal/domain/biome"
	"github.com/averdou/broodvale/server/internal/engine"
	"github.com/averdou/broodvale/server/internal/events"
	"github.com/averdou/broodvale/server/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
	// Minimum gap between accepted actions from one client.
	actionCooldown = time.Second
)

// PlayerAction represents an incoming command from a client.
type PlayerAction struct {
	Type    string          `json:"type"`     // "SET_HARVEST", "SET_STRATEGY"
	ActorID string          `json:"actor_id"` // Who triggered the action
	Payload json.RawMessage `json:"payload"`  // Action-specific data
}

// Client represents an active WebSocket connection.
type Client struct {
	hub            *Hub
	conn           *websocket.Conn
	send           chan []byte
	lastActionTime time.Time
}

// NewClient creates a new WebSocket client.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump pumps messages from the websocket connection into player actions.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket read error: %v", err)
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Error("Failed to parse PlayerAction from WebSocket: %v", err)
			continue
		}

		c.handlePlayerAction(action)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handlePlayerAction(action PlayerAction) {
	// Rate limiting check
	if time.Since(c.lastActionTime) < actionCooldown {
		c.hub.logger.Warn("Rate limit exceeded for client action from %s", action.ActorID)
		return
	}
	c.lastActionTime = time.Now()

	switch action.Type {
	case "SET_HARVEST":
		c.handleSetHarvest(action)
	case "SET_STRATEGY":
		c.handleSetStrategy(action)
	default:
		c.hub.logger.Warn("Unknown PlayerAction type: %s", action.Type)
	}
}

func (c *Client) handleSetHarvest(action PlayerAction) {
	var payload engine.HarvestOrderPayload
	if err := json.Unmarshal(action.Payload, &payload); err != nil {
		c.hub.logger.Error("Malformed SET_HARVEST payload: %v", err)
		return
	}
	if _, exists := c.hub.engine.Biome(payload.BiomeID); !exists {
		c.hub.logger.Warn("SET_HARVEST for unknown biome %s", payload.BiomeID)
		return
	}
	if payload.Units < 0 {
		c.hub.logger.Warn("SET_HARVEST with negative units from %s", action.ActorID)
		return
	}

	c.hub.engine.EventLog().Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeHarvestOrder,
		ActorID:   action.ActorID,
		BiomeID:   payload.BiomeID,
		Payload:   payload,
	})
}

func (c *Client) handleSetStrategy(action PlayerAction) {
	var payload engine.StrategyChangePayload
	if err := json.Unmarshal(action.Payload, &payload); err != nil {
		c.hub.logger.Error("Malformed SET_STRATEGY payload: %v", err)
		return
	}
	if _, exists := c.hub.engine.Biome(payload.BiomeID); !exists {
		c.hub.logger.Warn("SET_STRATEGY for unknown biome %s", payload.BiomeID)
		return
	}
	// Reject malformed strategies at the door; the engine validates again.
	if _, err := biome.ParseStrategy(payload.Strategy); err != nil {
		c.hub.logger.Warn("SET_STRATEGY rejected: %v", err)
		return
	}

	c.hub.engine.EventLog().Append(events.GameEvent{
		ID:        events.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      events.EventTypeStrategyChange,
		ActorID:   action.ActorID,
		BiomeID:   payload.BiomeID,
		Payload:   payload,
	})
}
