package models

import "time"

const (
	ProofStatusPendiente  = "pendiente"
	ProofStatusVerificado = "verificado"
	ProofStatusRechazado  = "rechazado"
)

// PaymentProof is an uploaded bank-transfer receipt for the manual QR payment
// path. An operator is expected to review it before ReviewDeadline; the sweeper
// only surfaces overdue proofs, it never auto-approves.
type PaymentProof struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	TransactionID    uint       `gorm:"not null;index" json:"transaction_id"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	ObjectKey        string     `gorm:"type:varchar(255);not null" json:"object_key"`
	OriginalFilename string     `gorm:"type:varchar(255);default:''" json:"original_filename"`
	Status           string     `gorm:"type:varchar(16);not null;default:'pendiente';index" json:"status"`
	ReviewerNote     string     `gorm:"type:text" json:"reviewer_note,omitempty"`
	ReviewDeadline   time.Time  `gorm:"not null" json:"review_deadline"`
	ReviewedAt       *time.Time `gorm:"type:timestamp;default:null" json:"reviewed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Transaction *PaymentTransaction `gorm:"foreignKey:TransactionID" json:"transaction,omitempty"`
}
