package server

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"campusfind/internal/models"
	"campusfind/internal/repository"
	"campusfind/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// maxImageSize caps uploaded post images at 5 MiB.
const maxImageSize = 5 << 20

// PostListResponse is a paginated page of posts.
type PostListResponse struct {
	Posts []*models.Post `json:"posts"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// GetPosts handles GET /api/posts with optional type/status/q filters.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)

	posts, total, err := s.postService.List(c.Context(), repository.PostFilter{
		Type:   c.Query("type"),
		Status: c.Query("status"),
		Query:  c.Query("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(PostListResponse{
		Posts: posts,
		Total: total,
		Page:  offset/limit + 1,
		Limit: limit,
	})
}

// GetMyPosts handles GET /api/posts/my
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)

	posts, err := s.postService.MyPosts(c.Context(), currentUserID(c), limit, offset)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(c, err)
	}

	post, err := s.postService.Get(c.Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts. The body is multipart form data so an
// image can ride along with the fields; the image itself is optional.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	itemDate, err := parseItemDate(c.FormValue("item_date"))
	if err != nil {
		return serviceError(c, err)
	}

	imageURL := ""
	if file, err := c.FormFile("image"); err == nil && file != nil {
		imageURL, err = s.uploadImage(c, file)
		if err != nil {
			return serviceError(c, err)
		}
	}

	post, err := s.postService.Create(c.Context(), service.CreatePostInput{
		AuthorID:     currentUserID(c),
		PostType:     c.FormValue("post_type"),
		Title:        c.FormValue("title"),
		Content:      c.FormValue("content"),
		ImageURL:     imageURL,
		ItemDate:     itemDate,
		Location:     c.FormValue("location"),
		CategoryMain: c.FormValue("category_main"),
		CategorySub:  c.FormValue("category_sub"),
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePostRequest is a partial update; omitted fields stay as they are.
type UpdatePostRequest struct {
	Title        *string `json:"title"`
	Content      *string `json:"content"`
	Status       *string `json:"status"`
	Location     *string `json:"location"`
	CategoryMain *string `json:"category_main"`
	CategorySub  *string `json:"category_sub"`
	ItemDate     *string `json:"item_date"`
	ImageURL     *string `json:"image_url"`
}

// UpdatePost handles PATCH /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(c, err)
	}

	var req UpdatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.UpdatePostInput{
		Title:        req.Title,
		Content:      req.Content,
		Status:       req.Status,
		Location:     req.Location,
		CategoryMain: req.CategoryMain,
		CategorySub:  req.CategorySub,
		ImageURL:     req.ImageURL,
	}
	if req.ItemDate != nil {
		itemDate, err := parseItemDate(*req.ItemDate)
		if err != nil {
			return serviceError(c, err)
		}
		in.ItemDate = &itemDate
	}

	post, err := s.postService.Update(c.Context(), id, currentUserID(c), in)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return serviceError(c, err)
	}

	if err := s.postService.Delete(c.Context(), id, currentUserID(c)); err != nil {
		return serviceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// uploadImage stores the attached image under a random key and returns its URL.
func (s *Server) uploadImage(c *fiber.Ctx, file *multipart.FileHeader) (string, error) {
	if s.uploader == nil {
		return "", models.NewValidationError("Image upload is not available")
	}
	if file.Size > maxImageSize {
		return "", models.NewValidationError("Image exceeds the 5MB limit")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		return "", models.NewValidationError("Unsupported image format")
	}

	src, err := file.Open()
	if err != nil {
		return "", models.NewInternalError(fmt.Errorf("open upload: %w", err))
	}
	defer func() { _ = src.Close() }()

	key := fmt.Sprintf("posts/%s%s", uuid.NewString(), ext)
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := s.uploader.Upload(c.Context(), key, src, contentType)
	if err != nil {
		return "", models.NewInternalError(fmt.Errorf("store image: %w", err))
	}
	return url, nil
}

// parseItemDate accepts RFC 3339 or a bare date.
func parseItemDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, models.NewValidationError("item_date is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, models.NewValidationError("item_date must be RFC 3339 or YYYY-MM-DD")
}
