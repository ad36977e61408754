package websocket

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/pokerleague/internal/errors"
	"github.com/abrezinsky/pokerleague/internal/logger"
	"github.com/abrezinsky/pokerleague/internal/models"
	"github.com/abrezinsky/pokerleague/internal/services"
)

const (
	msgClock        = "clock"
	msgRoundEvent   = "round_event"
	msgLevelChanged = "level_changed"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // spectators join from phones on the LAN
	},
}

// RoundSource is the part of the round engine the hub reads from. Tick is the
// only write: the hub's clock loop is the single automatic writer of level advances.
type RoundSource interface {
	GetActiveRound(ctx context.Context) (*models.Round, error)
	GetClock(ctx context.Context, id int64) (*services.ClockView, error)
	Tick(ctx context.Context) (services.ClockTick, error)
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	log        logger.Logger
	clients    map[*Client]bool
	broadcast  chan models.WSMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	rounds     RoundSource

	// announced holds the last level announced per round so that the same
	// level change is pushed once even when it is reported several times
	announcedMu sync.Mutex
	announced   map[int64]int
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan models.WSMessage
}

// New creates a new Hub instance with injected dependencies
func New(log logger.Logger, rounds RoundSource) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.WSMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rounds:     rounds,
		announced:  make(map[int64]int),
	}
}

// Start begins the hub's main loop in a goroutine
func (h *Hub) Start() {
	go h.run()
}

// run handles client registration/unregistration and message broadcasting
func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.log.Debug("Client connected", "total_clients", len(h.clients))

			// Send the current clock so the client can derive its display at once
			go func() {
				if msg, ok := h.currentClock(context.Background()); ok {
					h.deliver(client, msg)
				}
			}()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			h.log.Debug("Client disconnected", "total_clients", len(h.clients))

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send channel is full, unregister
					go func(c *Client) {
						h.unregister <- c
					}(client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// deliver queues msg for a single client without blocking. The send channel
// is only closed under the write lock after the client leaves h.clients, so
// membership checked under the read lock means the channel is still open.
// It reports false once the client is gone.
func (h *Hub) deliver(c *Client, msg models.WSMessage) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if !h.clients[c] {
		return false
	}
	select {
	case c.send <- msg:
	default:
	}
	return true
}

func (h *Hub) currentClock(ctx context.Context) (models.WSMessage, bool) {
	if h.rounds == nil {
		return models.WSMessage{}, false
	}
	round, err := h.rounds.GetActiveRound(ctx)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			h.log.Warn("Failed to load active round", "error", err)
		}
		return models.WSMessage{}, false
	}
	view, err := h.rounds.GetClock(ctx, round.ID)
	if err != nil {
		h.log.Warn("Failed to load clock", "round_id", round.ID, "error", err)
		return models.WSMessage{}, false
	}
	return models.WSMessage{Type: msgClock, Payload: view}, true
}

// BroadcastMessage sends a message to all connected clients
func (h *Hub) BroadcastMessage(msgType string, payload interface{}) {
	h.broadcast <- models.WSMessage{
		Type:    msgType,
		Payload: payload,
	}
}

// BroadcastRoundEvent implements services.Broadcaster. Clients refetch the
// round snapshot when they receive it.
func (h *Hub) BroadcastRoundEvent(roundID int64, event models.EventType) {
	h.BroadcastMessage(msgRoundEvent, map[string]interface{}{
		"round_id": roundID,
		"event":    event,
	})
}

// BroadcastLevelChanged implements services.Broadcaster. A level already
// announced for the round is not announced again.
func (h *Hub) BroadcastLevelChanged(roundID int64, level int) {
	if !h.markAnnounced(roundID, level) {
		return
	}
	h.BroadcastMessage(msgLevelChanged, map[string]interface{}{
		"round_id": roundID,
		"level":    level,
	})
}

func (h *Hub) markAnnounced(roundID int64, level int) bool {
	h.announcedMu.Lock()
	defer h.announcedMu.Unlock()
	if last, ok := h.announced[roundID]; ok && last == level {
		return false
	}
	h.announced[roundID] = level
	return true
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("WebSocket error", "error", err)
			}
			break
		}

		// Spectators are read-only; the only request is a clock resync
		var msg models.WSMessage
		if err := json.Unmarshal(message, &msg); err == nil && msg.Type == msgClock {
			if clock, ok := c.hub.currentClock(context.Background()); ok {
				c.hub.deliver(c, clock)
			}
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			msgBytes, _ := json.Marshal(message)
			w.Write(msgBytes)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs handles websocket requests from clients
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade error", "error", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan models.WSMessage, 256),
	}
	h.register <- client

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}

// StartLevelClock drives the clock of the active round until ctx is done.
// Every interval it applies the zero boundary and pushes the clock to clients.
func (h *Hub) StartLevelClock(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info("Level clock stopped")
			return
		case <-ticker.C:
			h.tickClock(ctx)
		}
	}
}

// tickClock advances the active round when its level has run out and
// broadcasts the current clock
func (h *Hub) tickClock(ctx context.Context) {
	tick, err := h.rounds.Tick(ctx)
	if err != nil {
		if stderrors.Is(err, context.Canceled) {
			return
		}
		h.log.Warn("Clock tick failed", "error", err)
		return
	}
	if tick.RoundID == 0 {
		return
	}
	if tick.LevelChanged {
		h.log.Info("Level advanced", "round_id", tick.RoundID, "level", tick.Level)
	}

	view, err := h.rounds.GetClock(ctx, tick.RoundID)
	if err != nil {
		h.log.Warn("Failed to load clock", "round_id", tick.RoundID, "error", err)
		return
	}
	h.BroadcastMessage(msgClock, view)
}
