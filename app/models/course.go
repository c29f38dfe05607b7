package models

import (
	"time"

	"gorm.io/gorm"
)

// Course is a catalog entry. Lessons are ordered by Position; lessons flagged
// FreePreview are playable without an active subscription.
type Course struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"type:varchar(200);not null" json:"title"`
	Slug        string         `gorm:"type:varchar(200);not null;uniqueIndex" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	CoverURL    string         `gorm:"type:varchar(255);default:''" json:"cover_url"`
	MinPlan     string         `gorm:"type:varchar(50);not null;default:'basico'" json:"min_plan"`
	IsPublished bool           `gorm:"default:false;index" json:"is_published"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Lessons []Lesson `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`
}

// Lesson is a single video unit inside a course. VideoPlaybackID points at the
// external video CDN; the backend never touches the media itself.
type Lesson struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	CourseID        uint           `gorm:"not null;index" json:"course_id"`
	Title           string         `gorm:"type:varchar(200);not null" json:"title"`
	Position        int            `gorm:"not null;default:0" json:"position"`
	DurationSeconds int            `gorm:"not null;default:0" json:"duration_seconds"`
	VideoPlaybackID string         `gorm:"type:varchar(191);default:''" json:"video_playback_id,omitempty"`
	FreePreview     bool           `gorm:"default:false" json:"free_preview"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
