// Package service provides application business logic (chat, posts, users).
package service

import (
	"context"
	"strings"
	"time"

	"campusfind/internal/models"
	"campusfind/internal/repository"
)

// RoomBroadcaster delivers a freshly persisted message to live subscribers of
// a room. Delivery is best-effort: the message log is already durable when
// this is called, so a lost broadcast never loses data.
type RoomBroadcaster interface {
	BroadcastRoomMessage(roomID uint, msg *models.MessageView)
}

// UnknownPartnerNickname is reported when a room's other participant cannot
// be resolved, so one missing account does not fail the whole listing.
const UnknownPartnerNickname = "Unknown user"

// ChatService provides room and message business logic.
type ChatService struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	broadcaster RoomBroadcaster
}

// NewChatService returns a new ChatService. broadcaster may be nil, in which
// case messages are persisted but not pushed to live subscribers.
func NewChatService(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	broadcaster RoomBroadcaster,
) *ChatService {
	return &ChatService{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		postRepo:    postRepo,
		broadcaster: broadcaster,
	}
}

// GetOrCreateRoom returns the room binding (post, {myID, otherID}), creating
// it on first contact. Repeated calls with the same post and pair converge on
// one room: insertion tolerates a conflict on the storage-level unique index
// and re-fetches, so two racing first-contacts cannot produce two rooms.
func (s *ChatService) GetOrCreateRoom(ctx context.Context, postID, myID, otherID uint) (*models.ChatRoom, error) {
	if myID == otherID {
		return nil, models.NewValidationError("Cannot open a chat with yourself")
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", postID)
	}

	other, err := s.userRepo.GetByID(ctx, otherID)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, models.NewNotFoundError("User", otherID)
	}

	low, high := models.SortPair(myID, otherID)

	room, err := s.chatRepo.FindRoom(ctx, postID, low, high)
	if err != nil {
		return nil, err
	}
	if room != nil {
		return room, nil
	}

	now := time.Now()
	fresh := &models.ChatRoom{
		PostID:          postID,
		UserLowID:       low,
		UserHighID:      high,
		LastMessage:     models.RoomSeedMessage,
		LastMessageTime: now,
	}
	if err := s.chatRepo.CreateRoom(ctx, fresh); err != nil {
		return nil, err
	}

	// A conflicting concurrent insert leaves fresh.ID unset; the re-fetch
	// returns the winning row either way.
	return s.chatRepo.FindRoom(ctx, postID, low, high)
}

// ListRooms returns the caller's rooms, most recently active first, each
// annotated with the other participant's nickname and the post title.
func (s *ChatService) ListRooms(ctx context.Context, userID uint) ([]*models.RoomSummary, error) {
	rooms, err := s.chatRepo.GetRoomsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		partnerID := room.PartnerID(userID)

		nickname := UnknownPartnerNickname
		partner, err := s.userRepo.GetByID(ctx, partnerID)
		if err != nil {
			return nil, err
		}
		if partner != nil {
			nickname = partner.Nickname
		}

		postTitle := ""
		if room.Post != nil {
			postTitle = room.Post.Title
		}

		summaries = append(summaries, &models.RoomSummary{
			ID:              room.ID,
			PostID:          room.PostID,
			PostTitle:       postTitle,
			PartnerID:       partnerID,
			PartnerNickname: nickname,
			LastMessage:     room.LastMessage,
			LastMessageTime: room.LastMessageTime,
		})
	}
	return summaries, nil
}

// ListMessages returns the room's full history in chronological order
// (oldest first), each message annotated with the sender's nickname. Only a
// participant may read a room.
func (s *ChatService) ListMessages(ctx context.Context, roomID, userID uint) ([]*models.MessageView, error) {
	room, err := s.chatRepo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, models.NewNotFoundError("Room", roomID)
	}
	if !room.HasParticipant(userID) {
		return nil, models.NewForbiddenError("Not a participant of this room")
	}

	messages, err := s.chatRepo.GetMessages(ctx, roomID)
	if err != nil {
		return nil, err
	}

	views := make([]*models.MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, messageView(msg))
	}
	return views, nil
}

// SendMessage durably appends a message, refreshes the room's cached last
// message, and pushes the message to every live subscriber of the room. If
// the append fails nothing is broadcast. The cache update is allowed to lag
// the log; the log is the source of truth.
func (s *ChatService) SendMessage(ctx context.Context, roomID, senderID uint, content string) (*models.MessageView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Message content is required")
	}

	room, err := s.chatRepo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, models.NewNotFoundError("Room", roomID)
	}
	if !room.HasParticipant(senderID) {
		return nil, models.NewForbiddenError("Not a participant of this room")
	}

	msg := &models.Message{
		RoomID:   roomID,
		SenderID: senderID,
		Content:  content,
	}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if err := s.chatRepo.UpdateLastMessage(ctx, roomID, content, msg.CreatedAt); err != nil {
		// The message is durable; a stale room cache self-heals on the
		// next send.
		logWarn(ctx, "failed to update room last-message cache", "room_id", roomID, "error", err.Error())
	}

	if msg.Sender == nil {
		if sender, err := s.userRepo.GetByID(ctx, senderID); err == nil {
			msg.Sender = sender
		}
	}

	view := messageView(msg)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastRoomMessage(roomID, view)
	}
	return view, nil
}

// MarkRead flags the partner's messages in the room as read by the caller.
func (s *ChatService) MarkRead(ctx context.Context, roomID, userID uint) error {
	room, err := s.chatRepo.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return models.NewNotFoundError("Room", roomID)
	}
	if !room.HasParticipant(userID) {
		return models.NewForbiddenError("Not a participant of this room")
	}
	return s.chatRepo.MarkRoomMessagesRead(ctx, roomID, userID)
}

func messageView(msg *models.Message) *models.MessageView {
	nickname := UnknownPartnerNickname
	if msg.Sender != nil {
		nickname = msg.Sender.Nickname
	}
	return &models.MessageView{
		ID:             msg.ID,
		RoomID:         msg.RoomID,
		SenderID:       msg.SenderID,
		SenderNickname: nickname,
		Content:        msg.Content,
		IsRead:         msg.IsRead,
		CreatedAt:      msg.CreatedAt,
	}
}
