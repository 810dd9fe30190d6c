package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// ChatMessage is the wire shape for every event pushed over a chat websocket.
type ChatMessage struct {
	Type    string      `json:"type"` // "receive_message", "joined", "error"
	RoomID  uint        `json:"room_id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// Hub maps each room to the set of live sessions currently joined to it.
// It is an auxiliary fan-out mechanism, never the record of truth: a session
// joins a room explicitly before it receives anything, every joined session
// (including other sessions of the sender) gets every broadcast, and a
// dropped delivery loses nothing because the message log is persisted first.
type Hub struct {
	mu sync.RWMutex

	// roomID -> clients joined to that room's channel
	rooms map[uint]map[*Client]bool

	// client -> roomIDs it has joined, for disconnect cleanup
	clientRooms map[*Client]map[uint]struct{}

	// userID -> number of open sessions, for the per-user connection cap
	userConns map[uint]int
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[uint]map[*Client]bool),
		clientRooms: make(map[*Client]map[uint]struct{}),
		userConns:   make(map[uint]int),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "chat hub" }

// Register creates a client for the user's websocket session. Returns an
// error when the per-user session limit is exceeded.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.userConns[userID] >= maxConnsPerUser {
		return nil, fmt.Errorf("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.userConns[userID]++
	h.clientRooms[client] = make(map[uint]struct{})
	return client, nil
}

// RegisterClient adds an externally constructed client. Used by tests.
func (h *Hub) RegisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.userConns[client.UserID]++
	h.clientRooms[client] = make(map[uint]struct{})
}

// UnregisterClient removes a session and silently drops its room subscriptions.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.clientRooms[client]
	if !ok {
		return
	}

	for roomID := range joined {
		if clients, ok := h.rooms[roomID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	delete(h.clientRooms, client)

	if h.userConns[client.UserID] > 1 {
		h.userConns[client.UserID]--
	} else {
		delete(h.userConns, client.UserID)
	}
}

// JoinRoom subscribes a session to a room's channel. Joining is explicit:
// a session receives nothing for a room until it has joined it.
func (h *Hub) JoinRoom(client *Client, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.clientRooms[client]
	if !ok {
		log.Printf("Hub: unregistered client (user %d) cannot join room %d", client.UserID, roomID)
		return
	}

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	joined[roomID] = struct{}{}
}

// LeaveRoom unsubscribes a session from a room's channel.
func (h *Hub) LeaveRoom(client *Client, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.rooms[roomID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, roomID)
		}
	}
	if joined, ok := h.clientRooms[client]; ok {
		delete(joined, roomID)
	}
}

// IsJoined reports whether the session is currently joined to the room.
func (h *Hub) IsJoined(client *Client, roomID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	joined, ok := h.clientRooms[client]
	if !ok {
		return false
	}
	_, in := joined[roomID]
	return in
}

// BroadcastToRoom sends a message to every session joined to the room.
func (h *Hub) BroadcastToRoom(roomID uint, message ChatMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.rooms[roomID]
	if !ok {
		return
	}

	messageJSON, err := json.Marshal(message)
	if err != nil {
		log.Printf("Hub: failed to marshal message for room %d: %v", roomID, err)
		return
	}

	for client := range clients {
		client.TrySend(messageJSON)
	}
}

// StartWiring connects the hub to Redis pub/sub so messages published by any
// server instance reach sessions connected to this one.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartRoomSubscriber(ctx, func(channel, payload string) {
		var roomID uint
		if _, err := fmt.Sscanf(channel, "chat:room:%d", &roomID); err != nil {
			log.Printf("Hub: invalid channel format: %s", channel)
			return
		}

		var message ChatMessage
		if err := json.Unmarshal([]byte(payload), &message); err != nil {
			log.Printf("Hub: failed to parse message from channel %s: %v", channel, err)
			return
		}
		if message.Type == "" {
			message.Type = "receive_message"
		}
		message.RoomID = roomID

		h.BroadcastToRoom(roomID, message)
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clientRooms {
		if client.Conn == nil {
			continue
		}
		if err := client.Conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"server_shutdown","payload":{"message":"Server is shutting down"}}`)); err != nil {
			log.Printf("failed to write shutdown message for user %d: %v", client.UserID, err)
		}
		if err := client.Conn.Close(); err != nil {
			log.Printf("failed to close websocket for user %d: %v", client.UserID, err)
		}
	}

	h.rooms = make(map[uint]map[*Client]bool)
	h.clientRooms = make(map[*Client]map[uint]struct{})
	h.userConns = make(map[uint]int)

	return nil
}
