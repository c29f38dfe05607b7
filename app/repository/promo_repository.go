package repository

import (
	"strings"

	"github.com/andresvl/aulaviva/app/models"
	"gorm.io/gorm"
)

// promoCodeRepository implements the PromoCodeRepository interface
type promoCodeRepository struct {
	db *gorm.DB
}

// NewPromoCodeRepository creates a new promo code repository instance
func NewPromoCodeRepository(db *gorm.DB) PromoCodeRepository {
	return &promoCodeRepository{db: db}
}

// Create creates a new promo code; the code is stored uppercased
func (r *promoCodeRepository) Create(code *models.PromoCode) error {
	code.Code = strings.ToUpper(strings.TrimSpace(code.Code))
	return r.db.Create(code).Error
}

// GetByID retrieves a promo code by ID
func (r *promoCodeRepository) GetByID(id uint) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.db.First(&promo, id).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// GetByCode retrieves a promo code by its normalized code
func (r *promoCodeRepository) GetByCode(code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.db.Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

// Update updates an existing promo code
func (r *promoCodeRepository) Update(code *models.PromoCode) error {
	return r.db.Save(code).Error
}

// Delete removes a promo code by ID
func (r *promoCodeRepository) Delete(id uint) error {
	return r.db.Delete(&models.PromoCode{}, id).Error
}

// List retrieves promo codes with pagination
func (r *promoCodeRepository) List(offset, limit int) ([]models.PromoCode, error) {
	var codes []models.PromoCode
	err := r.db.Offset(offset).Limit(limit).Order("created_at DESC").Find(&codes).Error
	return codes, err
}

// Count returns the total number of promo codes
func (r *promoCodeRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.PromoCode{}).Count(&count).Error
	return count, err
}
