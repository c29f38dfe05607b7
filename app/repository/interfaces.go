package repository

import (
	"time"

	"github.com/andresvl/aulaviva/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByProviderExternalID(provider, externalID string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	TouchLastLogin(id uint, at time.Time) error
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	GetAll() ([]models.Setting, error)
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// PromoCodeRepository defines the interface for promo code administration
type PromoCodeRepository interface {
	Create(code *models.PromoCode) error
	GetByID(id uint) (*models.PromoCode, error)
	GetByCode(code string) (*models.PromoCode, error)
	Update(code *models.PromoCode) error
	Delete(id uint) error
	List(offset, limit int) ([]models.PromoCode, error)
	Count() (int64, error)
}

// CourseRepository defines the interface for catalog reads and admin writes
type CourseRepository interface {
	Create(course *models.Course) error
	GetByID(id uint) (*models.Course, error)
	GetBySlug(slug string) (*models.Course, error)
	GetPublished(offset, limit int) ([]models.Course, error)
	Update(course *models.Course) error
	Delete(id uint) error
	Count() (int64, error)
}

// ForumRepository defines the interface for community posts and replies
type ForumRepository interface {
	CreatePost(post *models.ForumPost) error
	GetPost(id uint) (*models.ForumPost, error)
	ListPosts(offset, limit int) ([]models.ForumPost, error)
	CreateReply(reply *models.ForumReply) error
	LikePost(id uint) error
	CountPosts() (int64, error)
}

// ProofRepository defines the interface for transfer receipt reviews
type ProofRepository interface {
	Create(proof *models.PaymentProof) error
	GetByID(id uint) (*models.PaymentProof, error)
	GetPendingByTransaction(transactionID uint) (*models.PaymentProof, error)
	ListPending(offset, limit int) ([]models.PaymentProof, error)
	ListOverdue(now time.Time) ([]models.PaymentProof, error)
	Update(proof *models.PaymentProof) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Setting SettingRepository
	Promo   PromoCodeRepository
	Course  CourseRepository
	Forum   ForumRepository
	Proof   ProofRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Setting: NewSettingRepository(db),
		Promo:   NewPromoCodeRepository(db),
		Course:  NewCourseRepository(db),
		Forum:   NewForumRepository(db),
		Proof:   NewProofRepository(db),
	}
}
