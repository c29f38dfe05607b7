package repository

import (
	"github.com/andresvl/aulaviva/app/models"
	"gorm.io/gorm"
)

// courseRepository implements the CourseRepository interface
type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository creates a new course repository instance
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

// Create creates a new course
func (r *courseRepository) Create(course *models.Course) error {
	return r.db.Create(course).Error
}

// GetByID retrieves a course with its lessons by ID
func (r *courseRepository) GetByID(id uint) (*models.Course, error) {
	var course models.Course
	err := r.db.Preload("Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("lessons.position ASC")
	}).First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// GetBySlug retrieves a course with its lessons by slug
func (r *courseRepository) GetBySlug(slug string) (*models.Course, error) {
	var course models.Course
	err := r.db.Preload("Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("lessons.position ASC")
	}).Where("slug = ?", slug).First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// GetPublished retrieves published courses with pagination, lessons excluded
func (r *courseRepository) GetPublished(offset, limit int) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.Where("is_published = ?", true).
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&courses).Error
	return courses, err
}

// Update updates an existing course
func (r *courseRepository) Update(course *models.Course) error {
	return r.db.Save(course).Error
}

// Delete soft-deletes a course by ID
func (r *courseRepository) Delete(id uint) error {
	return r.db.Delete(&models.Course{}, id).Error
}

// Count returns the total number of courses
func (r *courseRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Course{}).Count(&count).Error
	return count, err
}
