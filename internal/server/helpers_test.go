package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"campusfind/internal/config"
	"campusfind/internal/models"
	"campusfind/internal/notifications"
	"campusfind/internal/repository"
	"campusfind/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestServer wires a Server against an in-memory database. Prometheus
// middleware stays nil so repeated constructions in one test binary do not
// fight over collector registration.
func newTestServer(t *testing.T) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.Post{}, &models.ChatRoom{}, &models.Message{}, &models.EverytimePost{})
	if err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	chatRepo := repository.NewChatRepository(db)

	s := &Server{
		config: &config.Config{
			Port:           "0",
			JWTSecret:      "test-secret-test-secret-test-secret",
			AllowedOrigins: "*",
			Env:            "test",
		},
		db:       db,
		userRepo: userRepo,
		postRepo: postRepo,
		chatRepo: chatRepo,
		hub:      notifications.NewHub(),
	}
	s.userService = service.NewUserService(userRepo)
	s.postService = service.NewPostService(postRepo, nil)
	s.chatService = service.NewChatService(chatRepo, userRepo, postRepo, s)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app, db
}

// signupTestUser creates an account directly through the service and returns
// the user plus a valid bearer token.
func signupTestUser(t *testing.T, s *Server, studentID, nickname string) (*models.User, string) {
	t.Helper()

	user, err := s.userService.Signup(testCtx(), service.SignupInput{
		StudentID: studentID,
		Password:  "campus1234",
		Nickname:  nickname,
		Email:     nickname + "@campus.test",
	})
	if err != nil {
		t.Fatalf("Failed to sign up test user: %v", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return user, token
}

func testCtx() context.Context {
	return context.Background()
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

type testResponse struct {
	status int
	body   map[string]any
}

// doJSON fires a JSON request at the app and decodes the response body into a
// generic map. token, when non-empty, is sent as a bearer credential.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload any) testResponse {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	decoded := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return testResponse{status: resp.StatusCode, body: decoded}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/x", func(c *fiber.Ctx) error {
		limit, offset := parsePagination(c)
		return c.JSON(fiber.Map{"limit": limit, "offset": offset})
	})

	tests := []struct {
		query  string
		limit  int
		offset int
	}{
		{"", defaultPageSize, 0},
		{"?page=3&limit=10", 10, 20},
		{"?page=-1&limit=0", defaultPageSize, 0},
		{"?limit=9999", maxPageSize, 0},
	}
	for _, tt := range tests {
		resp := doJSON(t, app, "GET", "/x"+tt.query, "", nil)
		assert.Equal(t, float64(tt.limit), resp.body["limit"], tt.query)
		assert.Equal(t, float64(tt.offset), resp.body["offset"], tt.query)
	}
}
