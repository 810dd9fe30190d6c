package repository

import (
	"context"
	"errors"
	"time"

	"campusfind/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository defines the interface for chat data operations
type ChatRepository interface {
	// CreateRoom inserts the room, silently ignoring a conflict on the
	// (post, participant pair) unique index. Callers re-fetch afterwards so
	// two racing first-contacts converge on one row.
	CreateRoom(ctx context.Context, room *models.ChatRoom) error
	FindRoom(ctx context.Context, postID, userLowID, userHighID uint) (*models.ChatRoom, error)
	GetRoom(ctx context.Context, id uint) (*models.ChatRoom, error)
	GetRoomsForUser(ctx context.Context, userID uint) ([]*models.ChatRoom, error)
	UpdateLastMessage(ctx context.Context, roomID uint, content string, at time.Time) error
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessages(ctx context.Context, roomID uint) ([]*models.Message, error)
	MarkRoomMessagesRead(ctx context.Context, roomID, readerID uint) error
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) CreateRoom(ctx context.Context, room *models.ChatRoom) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(room).Error
}

func (r *chatRepository) FindRoom(ctx context.Context, postID, userLowID, userHighID uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_low_id = ? AND user_high_id = ?", postID, userLowID, userHighID).
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *chatRepository) GetRoom(ctx context.Context, id uint) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := r.db.WithContext(ctx).Preload("Post").First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *chatRepository) GetRoomsForUser(ctx context.Context, userID uint) ([]*models.ChatRoom, error) {
	var rooms []*models.ChatRoom
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Preload("Post").
		Order("last_message_time DESC").
		Find(&rooms).Error
	return rooms, err
}

func (r *chatRepository) UpdateLastMessage(ctx context.Context, roomID uint, content string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.ChatRoom{}).
		Where("id = ?", roomID).
		Updates(map[string]interface{}{
			"last_message":      content,
			"last_message_time": at,
		}).Error
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *chatRepository) GetMessages(ctx context.Context, roomID uint) ([]*models.Message, error) {
	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Preload("Sender").
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

func (r *chatRepository) MarkRoomMessagesRead(ctx context.Context, roomID, readerID uint) error {
	return r.db.WithContext(ctx).Model(&models.Message{}).
		Where("room_id = ? AND sender_id <> ? AND is_read = ?", roomID, readerID, false).
		Update("is_read", true).Error
}
