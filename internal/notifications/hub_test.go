package notifications

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testClient(hub *Hub, userID uint) *Client {
	return &Client{
		Hub:    hub,
		UserID: userID,
		Send:   make(chan []byte, 10),
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	client := testClient(hub, 1)

	hub.RegisterClient(client)
	hub.mu.RLock()
	assert.Equal(t, 1, hub.userConns[1])
	hub.mu.RUnlock()

	hub.UnregisterClient(client)
	hub.mu.RLock()
	assert.Empty(t, hub.userConns)
	hub.mu.RUnlock()
}

func TestHub_JoinIsExplicit(t *testing.T) {
	hub := NewHub()
	joined := testClient(hub, 1)
	bystander := testClient(hub, 2)
	hub.RegisterClient(joined)
	hub.RegisterClient(bystander)

	hub.JoinRoom(joined, 101)
	assert.True(t, hub.IsJoined(joined, 101))
	assert.False(t, hub.IsJoined(bystander, 101))

	hub.BroadcastToRoom(101, ChatMessage{Type: "receive_message", RoomID: 101, Payload: "hi"})

	// Only the joined session gets the message.
	sent := <-joined.Send
	var received ChatMessage
	assert.NoError(t, json.Unmarshal(sent, &received))
	assert.Equal(t, "receive_message", received.Type)
	assert.Equal(t, uint(101), received.RoomID)

	select {
	case msg := <-bystander.Send:
		t.Fatalf("bystander received %s without joining", msg)
	default:
	}
}

func TestHub_RoomIsolation(t *testing.T) {
	hub := NewHub()
	inA := testClient(hub, 1)
	inB := testClient(hub, 2)
	hub.RegisterClient(inA)
	hub.RegisterClient(inB)
	hub.JoinRoom(inA, 1)
	hub.JoinRoom(inB, 2)

	hub.BroadcastToRoom(1, ChatMessage{Type: "receive_message", RoomID: 1})

	assert.Len(t, inA.Send, 1)
	assert.Empty(t, inB.Send)
}

func TestHub_SenderSessionsAlsoReceive(t *testing.T) {
	hub := NewHub()

	// Two sessions of the same user plus the partner, all joined.
	phone := testClient(hub, 1)
	laptop := testClient(hub, 1)
	partner := testClient(hub, 2)
	for _, c := range []*Client{phone, laptop, partner} {
		hub.RegisterClient(c)
		hub.JoinRoom(c, 7)
	}

	hub.BroadcastToRoom(7, ChatMessage{Type: "receive_message", RoomID: 7, Payload: "from phone"})

	assert.Len(t, phone.Send, 1)
	assert.Len(t, laptop.Send, 1)
	assert.Len(t, partner.Send, 1)
}

func TestHub_LeaveRoomStopsDelivery(t *testing.T) {
	hub := NewHub()
	client := testClient(hub, 1)
	hub.RegisterClient(client)
	hub.JoinRoom(client, 3)
	hub.LeaveRoom(client, 3)

	assert.False(t, hub.IsJoined(client, 3))
	hub.BroadcastToRoom(3, ChatMessage{Type: "receive_message", RoomID: 3})
	assert.Empty(t, client.Send)
}

func TestHub_UnregisterCleansRooms(t *testing.T) {
	hub := NewHub()
	client := testClient(hub, 1)
	hub.RegisterClient(client)
	hub.JoinRoom(client, 1)
	hub.JoinRoom(client, 2)

	hub.UnregisterClient(client)

	hub.mu.RLock()
	assert.Empty(t, hub.rooms)
	assert.Empty(t, hub.clientRooms)
	hub.mu.RUnlock()
}

func TestHub_BackpressureDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	client := &Client{
		Hub:    hub,
		UserID: 1,
		Send:   make(chan []byte, 1),
	}
	hub.RegisterClient(client)
	hub.JoinRoom(client, 9)

	// Fill the buffer, then broadcast again; the hub must not block.
	hub.BroadcastToRoom(9, ChatMessage{Type: "receive_message", RoomID: 9, Payload: "first"})
	hub.BroadcastToRoom(9, ChatMessage{Type: "receive_message", RoomID: 9, Payload: "overflow"})

	assert.Len(t, client.Send, 1)
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub()
	client := testClient(hub, 1)
	hub.RegisterClient(client)
	hub.JoinRoom(client, 1)

	assert.NoError(t, hub.Shutdown(context.Background()))

	hub.mu.RLock()
	assert.Empty(t, hub.rooms)
	assert.Empty(t, hub.userConns)
	hub.mu.RUnlock()
}
