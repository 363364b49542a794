package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"bee-social/internal/logger"
	"bee-social/internal/models"
	"bee-social/internal/observability"
)

// Conn is the subset of *websocket.Conn the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Broadcaster fans chat events out to live subscribers.
type Broadcaster interface {
	Broadcast(chatID int, event models.ChatEvent)
}

// Hub maintains active websocket rooms, one per chat.
type Hub struct {
	rooms map[int]map[Conn]ConnInfo
	mu    sync.RWMutex
	// gorilla allows a single concurrent writer per connection.
	writeMu sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[int]map[Conn]ConnInfo)}
}

// AddClient registers a websocket connection to a chat room.
func (h *Hub) AddClient(chatID int, conn Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[Conn]ConnInfo)
	}
	h.rooms[chatID][conn] = info
}

// RemoveClient removes a websocket connection and drops empty rooms.
func (h *Hub) RemoveClient(chatID int, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[chatID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// RoomSize reports how many connections are subscribed to a chat.
func (h *Hub) RoomSize(chatID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}

// Broadcast sends event to all clients in a chat. Clients that fail to
// receive it are closed and removed.
func (h *Hub) Broadcast(chatID int, event models.ChatEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Int("chat_id", chatID).Msg("encode chat event")
		return
	}

	h.mu.RLock()
	targets := make(map[Conn]ConnInfo, len(h.rooms[chatID]))
	for conn, info := range h.rooms[chatID] {
		targets[conn] = info
	}
	h.mu.RUnlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for conn, info := range targets {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Warn().Err(err).
				Int("chat_id", chatID).
				Str("conn_id", info.ConnID).
				Str("user_id", info.UserID).
				Msg("websocket write error")
			_ = conn.Close()
			h.RemoveClient(chatID, conn)
			observability.IncWSEvent("chat", "ws_error")
			continue
		}
		observability.IncWSEvent("chat", event.Type)
	}
}

var _ Broadcaster = (*Hub)(nil)
