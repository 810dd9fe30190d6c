// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account. StudentID is the login handle.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	StudentID string         `gorm:"unique;not null" json:"student_id"`
	Password  string         `gorm:"not null" json:"-"`
	Nickname  string         `gorm:"unique;not null" json:"nickname"`
	Email     string         `gorm:"unique;not null" json:"email"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Posts     []Post         `gorm:"foreignKey:AuthorID" json:"posts,omitempty"`
}
