package server

import (
	"fmt"
	"strconv"
	"time"

	"campusfind/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"campusfind/internal/service"
)

const tokenTTL = time.Hour

// SignupRequest is the body for POST /api/users/signup.
type SignupRequest struct {
	StudentID string `json:"student_id"`
	Password  string `json:"password"`
	Nickname  string `json:"nickname"`
	Email     string `json:"email"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	StudentID string `json:"student_id"`
	Password  string `json:"password"`
}

// AuthResponse carries a bearer token and the authenticated user.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup handles POST /api/users/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Signup(c.Context(), service.SignupInput{
		StudentID: req.StudentID,
		Password:  req.Password,
		Nickname:  req.Nickname,
		Email:     req.Email,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.StudentID == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("student_id and password are required"))
	}

	user, err := s.userService.Authenticate(c.Context(), req.StudentID, req.Password)
	if err != nil {
		return serviceError(c, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(AuthResponse{Token: token, User: user})
}

// generateToken issues a signed HS256 bearer token for the user.
func (s *Server) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"nickname": user.Nickname,
		"iss":      "campusfind",
		"exp":      now.Add(tokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
