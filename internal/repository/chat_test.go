package repository

import (
	"context"
	"testing"
	"time"

	"campusfind/internal/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.ChatRoom{},
		&models.Message{},
		&models.EverytimePost{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, studentID, nickname string) *models.User {
	t.Helper()
	user := &models.User{
		StudentID: studentID,
		Password:  "hashed",
		Nickname:  nickname,
		Email:     nickname + "@campus.test",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func createTestPost(t *testing.T, db *gorm.DB, authorID uint, title string) *models.Post {
	t.Helper()
	post := &models.Post{
		AuthorID:     authorID,
		PostType:     models.PostTypeLost,
		Title:        title,
		Content:      "test content",
		ItemDate:     time.Now(),
		Location:     "Main Library 2F",
		CategoryMain: "electronics",
		Status:       models.PostStatusStored,
		EmbeddingID:  "none",
	}
	if err := db.Create(post).Error; err != nil {
		t.Fatalf("Failed to create post: %v", err)
	}
	return post
}

func TestChatRepositoryRooms(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	user1 := createTestUser(t, db, "20230001", "finder")
	user2 := createTestUser(t, db, "20230002", "loser")
	post := createTestPost(t, db, user1.ID, "Found: black wallet")

	t.Run("CreateRoom", func(t *testing.T) {
		room := &models.ChatRoom{
			PostID:          post.ID,
			UserLowID:       user1.ID,
			UserHighID:      user2.ID,
			LastMessage:     models.RoomSeedMessage,
			LastMessageTime: time.Now(),
		}
		err := repo.CreateRoom(ctx, room)
		assert.NoError(t, err)
		assert.NotZero(t, room.ID)
	})

	t.Run("CreateRoomConflictIsSilent", func(t *testing.T) {
		first, err := repo.FindRoom(ctx, post.ID, user1.ID, user2.ID)
		assert.NoError(t, err)
		assert.NotNil(t, first)

		dup := &models.ChatRoom{
			PostID:          post.ID,
			UserLowID:       user1.ID,
			UserHighID:      user2.ID,
			LastMessage:     models.RoomSeedMessage,
			LastMessageTime: time.Now(),
		}
		err = repo.CreateRoom(ctx, dup)
		assert.NoError(t, err)

		// Still exactly one room for the (post, pair) triple.
		var count int64
		db.Model(&models.ChatRoom{}).
			Where("post_id = ? AND user_low_id = ? AND user_high_id = ?", post.ID, user1.ID, user2.ID).
			Count(&count)
		assert.Equal(t, int64(1), count)

		again, err := repo.FindRoom(ctx, post.ID, user1.ID, user2.ID)
		assert.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
	})

	t.Run("FindRoomMissing", func(t *testing.T) {
		room, err := repo.FindRoom(ctx, 9999, user1.ID, user2.ID)
		assert.NoError(t, err)
		assert.Nil(t, room)
	})

	t.Run("GetRoomPreloadsPost", func(t *testing.T) {
		existing, _ := repo.FindRoom(ctx, post.ID, user1.ID, user2.ID)
		room, err := repo.GetRoom(ctx, existing.ID)
		assert.NoError(t, err)
		assert.NotNil(t, room.Post)
		assert.Equal(t, "Found: black wallet", room.Post.Title)
	})

	t.Run("GetRoomsForUserOrdering", func(t *testing.T) {
		user3 := createTestUser(t, db, "20230003", "third")
		post2 := createTestPost(t, db, user3.ID, "Lost: umbrella")

		older := &models.ChatRoom{
			PostID: post2.ID, UserLowID: user2.ID, UserHighID: user3.ID,
			LastMessage: "old", LastMessageTime: time.Now().Add(-time.Hour),
		}
		newer := &models.ChatRoom{
			PostID: post2.ID, UserLowID: user1.ID, UserHighID: user3.ID,
			LastMessage: "new", LastMessageTime: time.Now(),
		}
		assert.NoError(t, repo.CreateRoom(ctx, older))
		assert.NoError(t, repo.CreateRoom(ctx, newer))

		rooms, err := repo.GetRoomsForUser(ctx, user3.ID)
		assert.NoError(t, err)
		assert.Len(t, rooms, 2)
		assert.Equal(t, "new", rooms[0].LastMessage)
		assert.Equal(t, "old", rooms[1].LastMessage)

		// user1 only sees rooms it participates in.
		mine, err := repo.GetRoomsForUser(ctx, user1.ID)
		assert.NoError(t, err)
		for _, r := range mine {
			assert.True(t, r.HasParticipant(user1.ID))
		}
	})

	t.Run("UpdateLastMessage", func(t *testing.T) {
		room, _ := repo.FindRoom(ctx, post.ID, user1.ID, user2.ID)
		at := time.Now()
		err := repo.UpdateLastMessage(ctx, room.ID, "see you at the library", at)
		assert.NoError(t, err)

		updated, _ := repo.GetRoom(ctx, room.ID)
		assert.Equal(t, "see you at the library", updated.LastMessage)
	})
}

func TestChatRepositoryMessages(t *testing.T) {
	db := setupTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	user1 := createTestUser(t, db, "20230010", "alpha")
	user2 := createTestUser(t, db, "20230011", "beta")
	post := createTestPost(t, db, user1.ID, "Lost: earbuds")

	room := &models.ChatRoom{
		PostID: post.ID, UserLowID: user1.ID, UserHighID: user2.ID,
		LastMessage: models.RoomSeedMessage, LastMessageTime: time.Now(),
	}
	assert.NoError(t, repo.CreateRoom(ctx, room))

	t.Run("CreateMessage", func(t *testing.T) {
		msg := &models.Message{RoomID: room.ID, SenderID: user1.ID, Content: "Hello"}
		err := repo.CreateMessage(ctx, msg)
		assert.NoError(t, err)
		assert.NotZero(t, msg.ID)
	})

	t.Run("GetMessagesChronological", func(t *testing.T) {
		for _, content := range []string{"second", "third"} {
			msg := &models.Message{RoomID: room.ID, SenderID: user2.ID, Content: content}
			assert.NoError(t, repo.CreateMessage(ctx, msg))
		}

		msgs, err := repo.GetMessages(ctx, room.ID)
		assert.NoError(t, err)
		assert.Len(t, msgs, 3)
		assert.Equal(t, "Hello", msgs[0].Content)
		assert.Equal(t, "third", msgs[2].Content)
		for i := 1; i < len(msgs); i++ {
			assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
		}
		// Sender preloaded for nickname rendering.
		assert.NotNil(t, msgs[0].Sender)
		assert.Equal(t, "alpha", msgs[0].Sender.Nickname)
	})

	t.Run("MarkRoomMessagesRead", func(t *testing.T) {
		err := repo.MarkRoomMessagesRead(ctx, room.ID, user1.ID)
		assert.NoError(t, err)

		msgs, _ := repo.GetMessages(ctx, room.ID)
		for _, m := range msgs {
			if m.SenderID == user2.ID {
				assert.True(t, m.IsRead, "partner messages should be read")
			} else {
				assert.False(t, m.IsRead, "own messages stay untouched")
			}
		}
	})
}
