package repository

import (
	"context"
	"errors"

	"campusfind/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EverytimeRepository stores posts mirrored from the external community site.
type EverytimeRepository interface {
	// Upsert writes the post, updating the existing row in place when the
	// link already exists. Link uniqueness is the sole dedup mechanism.
	Upsert(ctx context.Context, post *models.EverytimePost) error
	GetByLink(ctx context.Context, link string) (*models.EverytimePost, error)
	List(ctx context.Context, limit, offset int) ([]*models.EverytimePost, error)
	Count(ctx context.Context) (int64, error)
}

type everytimeRepository struct {
	db *gorm.DB
}

// NewEverytimeRepository creates a new everytime repository
func NewEverytimeRepository(db *gorm.DB) EverytimeRepository {
	return &everytimeRepository{db: db}
}

func (r *everytimeRepository) Upsert(ctx context.Context, post *models.EverytimePost) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "link"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "content", "time", "updated_at"}),
	}).Create(post).Error
}

func (r *everytimeRepository) GetByLink(ctx context.Context, link string) (*models.EverytimePost, error) {
	var post models.EverytimePost
	err := r.db.WithContext(ctx).Where("link = ?", link).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *everytimeRepository) List(ctx context.Context, limit, offset int) ([]*models.EverytimePost, error) {
	var posts []*models.EverytimePost
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *everytimeRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.EverytimePost{}).Count(&total).Error
	return total, err
}
