package repository

import (
	"github.com/andresvl/aulaviva/app/models"
	"gorm.io/gorm"
)

// forumRepository implements the ForumRepository interface
type forumRepository struct {
	db *gorm.DB
}

// NewForumRepository creates a new forum repository instance
func NewForumRepository(db *gorm.DB) ForumRepository {
	return &forumRepository{db: db}
}

// CreatePost creates a new forum post
func (r *forumRepository) CreatePost(post *models.ForumPost) error {
	return r.db.Create(post).Error
}

// GetPost retrieves a post with its author and replies
func (r *forumRepository) GetPost(id uint) (*models.ForumPost, error) {
	var post models.ForumPost
	err := r.db.Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("forum_replies.created_at ASC")
		}).
		Preload("Replies.User").
		First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPosts retrieves posts with pagination, pinned threads first
func (r *forumRepository) ListPosts(offset, limit int) ([]models.ForumPost, error) {
	var posts []models.ForumPost
	err := r.db.Preload("User").
		Offset(offset).Limit(limit).
		Order("is_pinned DESC, created_at DESC").
		Find(&posts).Error
	return posts, err
}

// CreateReply creates a new reply on a post
func (r *forumRepository) CreateReply(reply *models.ForumReply) error {
	return r.db.Create(reply).Error
}

// LikePost atomically increments the like counter
func (r *forumRepository) LikePost(id uint) error {
	result := r.db.Model(&models.ForumPost{}).
		Where("id = ?", id).
		UpdateColumn("like_count", gorm.Expr("like_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountPosts returns the total number of posts
func (r *forumRepository) CountPosts() (int64, error) {
	var count int64
	err := r.db.Model(&models.ForumPost{}).Count(&count).Error
	return count, err
}
