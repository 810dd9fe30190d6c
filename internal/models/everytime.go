package models

import "time"

// EverytimePost is a listing mirrored from the external community site.
// Link is the sole deduplication key: crawler writes upsert on it.
type EverytimePost struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Title   string `gorm:"not null" json:"title"`
	Content string `gorm:"type:text" json:"content"`
	Link    string `gorm:"unique;not null" json:"link"`
	// Time is the display time string as scraped (e.g. "3 minutes ago"),
	// kept verbatim because the source does not expose real timestamps.
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
