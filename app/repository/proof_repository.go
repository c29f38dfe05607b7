package repository

import (
	"time"

	"github.com/andresvl/aulaviva/app/models"
	"gorm.io/gorm"
)

// proofRepository implements the ProofRepository interface
type proofRepository struct {
	db *gorm.DB
}

// NewProofRepository creates a new payment proof repository instance
func NewProofRepository(db *gorm.DB) ProofRepository {
	return &proofRepository{db: db}
}

// Create creates a new payment proof
func (r *proofRepository) Create(proof *models.PaymentProof) error {
	return r.db.Create(proof).Error
}

// GetByID retrieves a proof with its transaction by ID
func (r *proofRepository) GetByID(id uint) (*models.PaymentProof, error) {
	var proof models.PaymentProof
	err := r.db.Preload("Transaction").First(&proof, id).Error
	if err != nil {
		return nil, err
	}
	return &proof, nil
}

// GetPendingByTransaction retrieves the open proof for a transaction, if any
func (r *proofRepository) GetPendingByTransaction(transactionID uint) (*models.PaymentProof, error) {
	var proof models.PaymentProof
	err := r.db.Where("transaction_id = ? AND status = ?", transactionID, models.ProofStatusPendiente).
		First(&proof).Error
	if err != nil {
		return nil, err
	}
	return &proof, nil
}

// ListPending retrieves unreviewed proofs, oldest first
func (r *proofRepository) ListPending(offset, limit int) ([]models.PaymentProof, error) {
	var proofs []models.PaymentProof
	err := r.db.Preload("Transaction").
		Where("status = ?", models.ProofStatusPendiente).
		Offset(offset).Limit(limit).
		Order("created_at ASC").
		Find(&proofs).Error
	return proofs, err
}

// ListOverdue retrieves unreviewed proofs past their review deadline
func (r *proofRepository) ListOverdue(now time.Time) ([]models.PaymentProof, error) {
	var proofs []models.PaymentProof
	err := r.db.Where("status = ? AND review_deadline < ?", models.ProofStatusPendiente, now).
		Order("review_deadline ASC").
		Find(&proofs).Error
	return proofs, err
}

// Update updates an existing proof
func (r *proofRepository) Update(proof *models.PaymentProof) error {
	return r.db.Save(proof).Error
}
