package models

import (
	"time"
)

// RoomSeedMessage is the placeholder last-message text set when a room is created.
const RoomSeedMessage = "Conversation started."

// ChatRoom binds exactly one post and exactly two users. The participant pair
// is stored sorted (UserLowID < UserHighID) so the composite unique index on
// (post_id, user_low_id, user_high_id) makes room creation race-free.
type ChatRoom struct {
	ID         uint  `gorm:"primaryKey" json:"id"`
	PostID     uint  `gorm:"not null;uniqueIndex:idx_room_post_pair" json:"post_id"`
	Post       *Post `gorm:"foreignKey:PostID" json:"post,omitempty"`
	UserLowID  uint  `gorm:"not null;uniqueIndex:idx_room_post_pair" json:"user_low_id"`
	UserHighID uint  `gorm:"not null;uniqueIndex:idx_room_post_pair" json:"user_high_id"`
	// LastMessage and LastMessageTime are a denormalized cache of the latest
	// message for cheap list rendering. The message log is the source of truth.
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasParticipant reports whether userID is one of the room's two participants.
func (r *ChatRoom) HasParticipant(userID uint) bool {
	return userID == r.UserLowID || userID == r.UserHighID
}

// PartnerID returns the other participant for the given caller.
func (r *ChatRoom) PartnerID(userID uint) uint {
	if userID == r.UserLowID {
		return r.UserHighID
	}
	return r.UserLowID
}

// SortPair returns the two user IDs in ascending order.
func SortPair(a, b uint) (low, high uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// Message is an immutable, append-only chat record belonging to one room.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"not null;index" json:"room_id"`
	Room      *ChatRoom `gorm:"foreignKey:RoomID" json:"-"`
	SenderID  uint      `gorm:"not null;index" json:"sender_id"`
	Sender    *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsRead    bool      `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomSummary is the list-view shape for GET /api/chats/rooms: the room plus
// the partner's nickname and the related post's title.
type RoomSummary struct {
	ID              uint      `json:"id"`
	PostID          uint      `json:"post_id"`
	PostTitle       string    `json:"post_title"`
	PartnerID       uint      `json:"partner_id"`
	PartnerNickname string    `json:"partner_nickname"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
}

// MessageView is a message annotated with the sender's nickname.
type MessageView struct {
	ID             uint      `json:"id"`
	RoomID         uint      `json:"room_id"`
	SenderID       uint      `json:"sender_id"`
	SenderNickname string    `json:"sender_nickname"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}
