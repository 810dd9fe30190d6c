package server

import (
	"campusfind/internal/middleware"
	"campusfind/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateRoomRequest is the body for POST /api/chats.
type CreateRoomRequest struct {
	PostID      uint `json:"post_id"`
	OtherUserID uint `json:"other_user_id"`
}

// GetOrCreateRoom handles POST /api/chats. Calling it twice with the same
// post and partner returns the same room.
func (s *Server) GetOrCreateRoom(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.PostID == 0 || req.OtherUserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("post_id and other_user_id are required"))
	}

	room, err := s.chatService.GetOrCreateRoom(c.Context(), req.PostID, currentUserID(c), req.OtherUserID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(room)
}

// GetMyRooms handles GET /api/chats/rooms
func (s *Server) GetMyRooms(c *fiber.Ctx) error {
	rooms, err := s.chatService.ListRooms(c.Context(), currentUserID(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"rooms": rooms})
}

// GetRoomMessages handles GET /api/chats/messages/:roomId. Fetching a room's
// history also marks the partner's messages as read.
func (s *Server) GetRoomMessages(c *fiber.Ctx) error {
	roomID, err := parseID(c, "roomId")
	if err != nil {
		return serviceError(c, err)
	}
	userID := currentUserID(c)

	messages, err := s.chatService.ListMessages(c.Context(), roomID, userID)
	if err != nil {
		return serviceError(c, err)
	}

	if err := s.chatService.MarkRead(c.Context(), roomID, userID); err != nil {
		// Read receipts are cosmetic; the history itself was served.
		middleware.Logger.Warn("failed to mark room messages read",
			"room_id", roomID, "error", err.Error())
	}

	return c.JSON(fiber.Map{"messages": messages})
}
