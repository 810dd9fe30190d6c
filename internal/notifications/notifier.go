package notifications

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes chat events into Redis channels so every server
// instance's hub sees them.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishRoomMessage publishes a chat message payload to a room channel.
func (n *Notifier) PublishRoomMessage(ctx context.Context, roomID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	channel := fmt.Sprintf("chat:room:%d", roomID)
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// StartRoomSubscriber subscribes to pattern `chat:room:*` and calls onMessage
// for each incoming message. onMessage receives channel and payload.
func (n *Notifier) StartRoomSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "chat:room:*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in RoomSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
