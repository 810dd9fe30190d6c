package server

import (
	"context"
	"encoding/json"
	"time"

	"campusfind/internal/middleware"
	"campusfind/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// wsEvent is the shape of every client-to-server chat frame.
type wsEvent struct {
	Type    string `json:"type"` // "join_room", "leave_room", "send_message"
	RoomID  uint   `json:"room_id"`
	Content string `json:"content"`
}

// WebSocketChatHandler upgrades the connection and runs the session's
// read/write pumps until the peer goes away.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage,
				[]byte(`{"type":"error","payload":{"message":"Too many open sessions"}}`))
			_ = conn.Close()
			return
		}

		middleware.ActiveWebSockets.Inc()
		defer middleware.ActiveWebSockets.Dec()

		client.IncomingHandler = s.handleChatEvent

		go client.WritePump()
		client.ReadPump()
	})
}

// handleChatEvent dispatches one inbound frame from a chat session.
func (s *Server) handleChatEvent(client *notifications.Client, raw []byte) {
	var event wsEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		s.sendWSError(client, 0, "Malformed event")
		return
	}
	if event.RoomID == 0 {
		s.sendWSError(client, 0, "room_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch event.Type {
	case "join_room":
		// Only participants of the room may subscribe to its channel.
		room, err := s.chatRepo.GetRoom(ctx, event.RoomID)
		if err != nil || room == nil {
			s.sendWSError(client, event.RoomID, "Room not found")
			return
		}
		if !room.HasParticipant(client.UserID) {
			s.sendWSError(client, event.RoomID, "Not a participant of this room")
			return
		}
		s.hub.JoinRoom(client, event.RoomID)
		s.sendWSEvent(client, notifications.ChatMessage{Type: "joined", RoomID: event.RoomID})

	case "leave_room":
		s.hub.LeaveRoom(client, event.RoomID)

	case "send_message":
		// Persist first; the service broadcasts to the room afterwards, so
		// the sender's other sessions see the message too.
		if _, err := s.chatService.SendMessage(ctx, event.RoomID, client.UserID, event.Content); err != nil {
			s.sendWSError(client, event.RoomID, err.Error())
		}

	default:
		s.sendWSError(client, event.RoomID, "Unknown event type")
	}
}

func (s *Server) sendWSEvent(client *notifications.Client, msg notifications.ChatMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		middleware.Logger.Error("failed to marshal websocket event", "type", msg.Type, "error", err.Error())
		return
	}
	client.TrySend(data)
}

func (s *Server) sendWSError(client *notifications.Client, roomID uint, message string) {
	s.sendWSEvent(client, notifications.ChatMessage{
		Type:    "error",
		RoomID:  roomID,
		Payload: fiber.Map{"message": message},
	})
}
