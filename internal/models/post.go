package models

import (
	"time"

	"gorm.io/gorm"
)

// Post type values.
const (
	PostTypeLost  = "lost"
	PostTypeFound = "found"
)

// Post status values.
const (
	PostStatusStored    = "stored"
	PostStatusInContact = "in_contact"
	PostStatusCompleted = "completed"
)

// Post represents a lost/found item listing owned by exactly one user.
type Post struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AuthorID     uint      `gorm:"not null;index" json:"author_id"`
	Author       *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	PostType     string    `gorm:"not null" json:"post_type"` // lost, found
	Title        string    `gorm:"not null" json:"title"`
	Content      string    `gorm:"type:text" json:"content"`
	ImageURL     string    `json:"image_url"`
	ItemDate     time.Time `gorm:"not null" json:"item_date"`
	Location     string    `gorm:"not null" json:"location"`
	CategoryMain string    `gorm:"not null" json:"category_main"`
	CategorySub  string    `json:"category_sub"`
	Status       string    `gorm:"default:'stored'" json:"status"` // stored, in_contact, completed
	// EmbeddingID is the handle assigned by the external similarity-search
	// service. "none" until the post has been indexed.
	EmbeddingID string         `gorm:"default:'none'" json:"embedding_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// ValidPostType reports whether t is an accepted post type.
func ValidPostType(t string) bool {
	return t == PostTypeLost || t == PostTypeFound
}

// ValidPostStatus reports whether s is an accepted post status.
func ValidPostStatus(s string) bool {
	return s == PostStatusStored || s == PostStatusInContact || s == PostStatusCompleted
}
