package models

import (
	"time"

	"gorm.io/gorm"
)

// ForumPost is a community thread opened by a subscriber.
type ForumPost struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Title     string         `gorm:"type:varchar(200);not null" json:"title"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	LikeCount int            `gorm:"not null;default:0" json:"like_count"`
	IsPinned  bool           `gorm:"default:false;index" json:"is_pinned"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User    *User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Replies []ForumReply `gorm:"foreignKey:PostID" json:"replies,omitempty"`
}

// ForumReply is a direct answer to a post.
type ForumReply struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PostID    uint           `gorm:"not null;index" json:"post_id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
