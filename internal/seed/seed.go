// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"campusfind/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// SeedPassword is the credential every seeded account gets.
const SeedPassword = "password123"

var (
	locations = []string{
		"Main Library 2F", "Student Union", "Engineering Hall 301", "Gym locker room",
		"Cafeteria B", "Central Plaza", "Dorm A lobby", "Science Building stairwell",
		"Bus stop gate 3", "Lecture Hall 105", "Music Building practice rooms",
	}

	categories = map[string][]string{
		"electronics": {"phone", "laptop", "earbuds", "charger", "tablet"},
		"wallet":      {"card wallet", "coin purse", "ID holder"},
		"clothing":    {"jacket", "cap", "scarf", "gloves"},
		"stationery":  {"notebook", "pencil case", "textbook"},
		"etc":         {"umbrella", "tumbler", "keys", "glasses"},
	}

	openers = []string{
		"Hi, I think this might be mine.",
		"Hello! Where exactly did you find it?",
		"Is this still with you?",
		"I lost one just like this yesterday.",
	}
)

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding database with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d test users created", len(users))

	posts, err := createPosts(db, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("%d posts created", len(posts))

	if err := createConversations(db, users, posts); err != nil {
		return fmt.Errorf("failed to create conversations: %w", err)
	}
	log.Println("conversations created")

	return nil
}

func clearData(db *gorm.DB) error {
	// Children first, then parents.
	for _, model := range []any{
		&models.Message{}, &models.ChatRoom{}, &models.Post{}, &models.User{},
	} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(db *gorm.DB, count int) ([]*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		user := &models.User{
			StudentID: fmt.Sprintf("20%02d%05d", 20+rand.Intn(7), rand.Intn(100000)),
			Password:  string(hashed),
			Nickname:  fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Email:     fmt.Sprintf("seed%d.%s", i, gofakeit.Email()),
		}
		if err := db.Create(user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func createPosts(db *gorm.DB, users []*models.User, count int) ([]*models.Post, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("no users to author posts")
	}

	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		main := randomKey(categories)
		sub := categories[main][rand.Intn(len(categories[main]))]

		postType := models.PostTypeLost
		verb := "Lost"
		if rand.Intn(2) == 0 {
			postType = models.PostTypeFound
			verb = "Found"
		}

		post := &models.Post{
			AuthorID:     author.ID,
			PostType:     postType,
			Title:        fmt.Sprintf("%s: %s %s", verb, gofakeit.Color(), sub),
			Content:      gofakeit.Sentence(12),
			ItemDate:     time.Now().AddDate(0, 0, -rand.Intn(30)),
			Location:     locations[rand.Intn(len(locations))],
			CategoryMain: main,
			CategorySub:  sub,
			Status:       models.PostStatusStored,
			EmbeddingID:  "none",
		}
		if err := db.Create(post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// createConversations opens a chat for roughly a third of the posts and fills
// it with a short back-and-forth.
func createConversations(db *gorm.DB, users []*models.User, posts []*models.Post) error {
	if len(users) < 2 {
		return nil
	}

	for _, post := range posts {
		if rand.Intn(3) != 0 {
			continue
		}

		other := users[rand.Intn(len(users))]
		if other.ID == post.AuthorID {
			continue
		}

		low, high := models.SortPair(post.AuthorID, other.ID)
		room := &models.ChatRoom{
			PostID:          post.ID,
			UserLowID:       low,
			UserHighID:      high,
			LastMessage:     models.RoomSeedMessage,
			LastMessageTime: time.Now(),
		}
		if err := db.Create(room).Error; err != nil {
			return err
		}

		sender, receiver := other.ID, post.AuthorID
		content := openers[rand.Intn(len(openers))]
		for i := 0; i < 2+rand.Intn(4); i++ {
			msg := &models.Message{
				RoomID:   room.ID,
				SenderID: sender,
				Content:  content,
			}
			if err := db.Create(msg).Error; err != nil {
				return err
			}
			if err := db.Model(room).Updates(map[string]any{
				"last_message":      msg.Content,
				"last_message_time": msg.CreatedAt,
			}).Error; err != nil {
				return err
			}
			sender, receiver = receiver, sender
			content = gofakeit.Sentence(6)
		}
	}
	return nil
}

func randomKey(m map[string][]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys[rand.Intn(len(keys))]
}
