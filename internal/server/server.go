// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"campusfind/internal/cache"
	"campusfind/internal/config"
	"campusfind/internal/database"
	"campusfind/internal/middleware"
	"campusfind/internal/models"
	"campusfind/internal/notifications"
	"campusfind/internal/repository"
	"campusfind/internal/service"
	"campusfind/internal/similarity"
	"campusfind/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo repository.UserRepository
	postRepo repository.PostRepository
	chatRepo repository.ChatRepository

	notifier *notifications.Notifier
	hub      *notifications.Hub
	uploader storage.Uploader

	userService *service.UserService
	postService *service.PostService
	chatService *service.ChatService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := cache.Connect(cfg.RedisURL)

	var uploader storage.Uploader
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(cfg.AWSRegion, cfg.S3Bucket)
		if err != nil {
			return nil, fmt.Errorf("object storage setup failed: %w", err)
		}
		uploader = s3Store
	}

	return NewServerWithDeps(cfg, db, redisClient, uploader)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, uploader storage.Uploader) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	chatRepo := repository.NewChatRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("campusfind-api"),
		userRepo:       userRepo,
		postRepo:       postRepo,
		chatRepo:       chatRepo,
		uploader:       uploader,
		hub:            notifications.NewHub(),
	}
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
	}

	server.userService = service.NewUserService(userRepo)
	server.postService = service.NewPostService(postRepo, similarity.NewClient(cfg.SimilarityURL))
	server.chatService = service.NewChatService(chatRepo, userRepo, postRepo, server)

	server.shutdownCtx, server.shutdownFn = context.WithCancel(context.Background())

	// With Redis, a message travels instance -> Redis -> every instance's hub.
	// Without it, BroadcastRoomMessage goes to the local hub directly.
	if server.notifier != nil {
		if err := server.hub.StartWiring(server.shutdownCtx, server.notifier); err != nil {
			return nil, fmt.Errorf("hub wiring failed: %w", err)
		}
	}

	return server, nil
}

// BroadcastRoomMessage pushes a persisted message to the room's live
// subscribers. Implements service.RoomBroadcaster.
func (s *Server) BroadcastRoomMessage(roomID uint, msg *models.MessageView) {
	event := notifications.ChatMessage{
		Type:    "receive_message",
		RoomID:  roomID,
		Payload: msg,
	}

	if s.notifier != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			middleware.Logger.Error("failed to marshal room message", "room_id", roomID, "error", err.Error())
			return
		}
		if err := s.notifier.PublishRoomMessage(context.Background(), roomID, string(payload)); err != nil {
			middleware.Logger.Warn("redis publish failed, falling back to local hub",
				"room_id", roomID, "error", err.Error())
			s.hub.BroadcastToRoom(roomID, event)
		}
		return
	}

	s.hub.BroadcastToRoom(roomID, event)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Propagate request ID and user ID into the logger
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	app.Use(cors.New(cors.Config{
		AllowOrigins: s.config.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))
}

// SetupRoutes registers every API route on the Fiber app
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Public user routes
	api.Post("/users/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)

	// Public post routes (browse/search). The int constraint keeps the
	// detail route from swallowing /posts/my.
	publicPosts := api.Group("/posts")
	publicPosts.Get("/", s.GetPosts)
	publicPosts.Get("/:id<int>", s.GetPost)

	// WebSocket endpoint. Browsers cannot set headers on upgrade requests,
	// so the token is accepted via query param; registered ahead of the
	// header-based auth group.
	ws := api.Group("/ws", s.WebSocketAuthRequired())
	ws.Get("/chat", s.WebSocketChatHandler())

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)

	posts := protected.Group("/posts")
	posts.Get("/my", s.GetMyPosts)
	posts.Post("/", s.CreatePost)
	posts.Patch("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	chats := protected.Group("/chats")
	chats.Post("/", s.GetOrCreateRoom)
	chats.Get("/rooms", s.GetMyRooms)
	chats.Get("/messages/:roomId", s.GetRoomMessages)
}

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

// ReadinessCheck reports whether the database is reachable.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable", "error": "database handle unavailable",
		})
	}

	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable", "error": "database unreachable",
		})
	}

	return c.JSON(fiber.Map{"status": "ready"})
}

// AuthRequired returns a middleware that enforces bearer authentication.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization header required"))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid authorization header format"))
		}

		userID, err := s.parseToken(parts[1])
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		c.Locals("userID", userID)
		return c.Next()
	}
}

// WebSocketAuthRequired validates tokens from the query string, falling back
// to the Authorization header.
func (s *Server) WebSocketAuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			parts := strings.Split(c.Get("Authorization"), " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token required"))
			}
			token = parts[1]
		}

		userID, err := s.parseToken(token)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		c.Locals("userID", userID)
		return c.Next()
	}
}

// parseToken validates the signature and extracts the user ID from the
// "sub" claim.
func (s *Server) parseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}

	subStr, ok := claims["sub"].(string)
	if !ok {
		return 0, fmt.Errorf("missing subject claim")
	}

	userID, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID in token")
	}
	return uint(userID), nil
}

// Shutdown releases server resources: the hub's connections, the pub/sub
// subscription and the Redis client.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		return err
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return err
		}
	}
	return nil
}
