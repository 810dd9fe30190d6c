package service

import (
	"context"
	"strings"
	"time"

	"campusfind/internal/models"
	"campusfind/internal/repository"
)

// SimilarityIndexer registers a post with the external similarity-search
// service and returns the handle it assigned. Calls are best-effort: a
// failure must never block or roll back a post write.
type SimilarityIndexer interface {
	IndexPost(ctx context.Context, post *models.Post) (string, error)
	Enabled() bool
}

// PostService provides listing business logic.
type PostService struct {
	postRepo repository.PostRepository
	indexer  SimilarityIndexer
}

// NewPostService returns a new PostService. indexer may be nil.
func NewPostService(postRepo repository.PostRepository, indexer SimilarityIndexer) *PostService {
	return &PostService{postRepo: postRepo, indexer: indexer}
}

// CreatePostInput is the input for creating a post.
type CreatePostInput struct {
	AuthorID     uint
	PostType     string
	Title        string
	Content      string
	ImageURL     string
	ItemDate     time.Time
	Location     string
	CategoryMain string
	CategorySub  string
}

// UpdatePostInput is a partial update; nil fields are left unchanged.
type UpdatePostInput struct {
	Title        *string
	Content      *string
	Status       *string
	Location     *string
	CategoryMain *string
	CategorySub  *string
	ItemDate     *time.Time
	ImageURL     *string
}

// Create validates and persists a new listing, then kicks off best-effort
// similarity indexing in the background.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if !models.ValidPostType(in.PostType) {
		return nil, models.NewValidationError("post_type must be 'lost' or 'found'")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if strings.TrimSpace(in.Location) == "" {
		return nil, models.NewValidationError("Location is required")
	}
	if strings.TrimSpace(in.CategoryMain) == "" {
		return nil, models.NewValidationError("Main category is required")
	}
	if in.ItemDate.IsZero() {
		return nil, models.NewValidationError("Item date is required")
	}

	post := &models.Post{
		AuthorID:     in.AuthorID,
		PostType:     in.PostType,
		Title:        in.Title,
		Content:      in.Content,
		ImageURL:     in.ImageURL,
		ItemDate:     in.ItemDate,
		Location:     in.Location,
		CategoryMain: in.CategoryMain,
		CategorySub:  in.CategorySub,
		Status:       models.PostStatusStored,
		EmbeddingID:  "none",
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.indexAsync(post)

	return post, nil
}

// indexAsync registers the post with the similarity service without blocking
// the caller. Failures are logged and swallowed.
func (s *PostService) indexAsync(post *models.Post) {
	if s.indexer == nil || !s.indexer.Enabled() {
		return
	}

	snapshot := *post
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		embeddingID, err := s.indexer.IndexPost(ctx, &snapshot)
		if err != nil {
			logWarn(ctx, "similarity indexing failed", "post_id", snapshot.ID, "error", err.Error())
			return
		}
		if err := s.postRepo.UpdateEmbeddingID(ctx, snapshot.ID, embeddingID); err != nil {
			logWarn(ctx, "failed to store embedding ID", "post_id", snapshot.ID, "error", err.Error())
			return
		}
		logInfo(ctx, "post indexed for similarity search", "post_id", snapshot.ID, "embedding_id", embeddingID)
	}()
}

// Get returns a single post with its author.
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

// List returns a filtered, paginated page of posts plus the total count.
func (s *PostService) List(ctx context.Context, filter repository.PostFilter) ([]*models.Post, int64, error) {
	if filter.Type != "" && !models.ValidPostType(filter.Type) {
		return nil, 0, models.NewValidationError("type must be 'lost' or 'found'")
	}
	if filter.Status != "" && !models.ValidPostStatus(filter.Status) {
		return nil, 0, models.NewValidationError("invalid status filter")
	}
	return s.postRepo.List(ctx, filter)
}

// MyPosts returns the caller's own posts.
func (s *PostService) MyPosts(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.postRepo.GetByAuthorID(ctx, userID, limit, offset)
}

// Update applies a partial update. Only the author may mutate a post.
func (s *PostService) Update(ctx context.Context, postID, userID uint, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", postID)
	}
	if post.AuthorID != userID {
		return nil, models.NewForbiddenError("Only the author may modify this post")
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, models.NewValidationError("Title must not be empty")
		}
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Status != nil {
		if !models.ValidPostStatus(*in.Status) {
			return nil, models.NewValidationError("invalid status")
		}
		post.Status = *in.Status
	}
	if in.Location != nil {
		post.Location = *in.Location
	}
	if in.CategoryMain != nil {
		post.CategoryMain = *in.CategoryMain
	}
	if in.CategorySub != nil {
		post.CategorySub = *in.CategorySub
	}
	if in.ItemDate != nil {
		post.ItemDate = *in.ItemDate
	}
	if in.ImageURL != nil {
		post.ImageURL = *in.ImageURL
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete removes a post. Only the author may delete it.
func (s *PostService) Delete(ctx context.Context, postID, userID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return models.NewNotFoundError("Post", postID)
	}
	if post.AuthorID != userID {
		return models.NewForbiddenError("Only the author may delete this post")
	}
	return s.postRepo.Delete(ctx, postID)
}
