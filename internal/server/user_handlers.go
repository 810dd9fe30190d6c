package server

import (
	"campusfind/internal/models"
	"campusfind/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpdateProfileRequest is the body for PUT /api/users/me. Empty fields are
// left unchanged.
type UpdateProfileRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.Get(c.Context(), currentUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), currentUserID(c), service.UpdateProfileInput{
		Nickname: req.Nickname,
		Password: req.Password,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(user)
}
