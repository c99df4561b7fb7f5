package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxThumbnailSize caps forum logos and member avatars at 5 MB.
const MaxThumbnailSize = 5 * 1024 * 1024

// Theme is a display theme a forum can pick at creation.
type Theme struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
}

// Forum is the top-level tenant entity. The slug is derived from the name at
// first save and never changes afterwards, so stored URLs stay valid across
// renames.
type Forum struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerID     uint      `gorm:"index;not null" json:"owner_id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Slug        string    `gorm:"size:120;index" json:"slug"`
	ThemeID     uint      `gorm:"not null" json:"theme_id"`
	Description string    `gorm:"size:3000" json:"description"`
	Thumbnail   string    `gorm:"size:512" json:"thumbnail"`
	CreatedAt   time.Time `json:"created_at"`

	Owner User  `json:"-"`
	Theme Theme `json:"theme"`
}

// BeforeCreate derives the slug once. An explicitly supplied slug is kept.
func (f *Forum) BeforeCreate(tx *gorm.DB) error {
	if f.Slug == "" {
		f.Slug = Slugify(f.Name)
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	return nil
}
