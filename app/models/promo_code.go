package models

import "time"

const (
	DiscountTypePercent = "percent"
	DiscountTypeFixed   = "fixed"
)

// PromoCode is a discount code with a usage cap and a validity window. Its
// effective status (Inactivo/Programado/Expirado/Agotado/Activo) is never
// stored; internal/pkg/promocode derives it from these fields on every read.
type PromoCode struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Code          string     `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Description   string     `gorm:"type:varchar(255);default:''" json:"description"`
	DiscountType  string     `gorm:"type:varchar(16);not null;default:'percent'" json:"discount_type"`
	DiscountValue int64      `gorm:"not null" json:"discount_value"` // percent points or minor units
	MaxUses       int        `gorm:"not null;default:0" json:"max_uses"` // 0 = unlimited
	UsedCount     int        `gorm:"not null;default:0" json:"used_count"`
	ValidFrom     *time.Time `gorm:"type:timestamp;default:null" json:"valid_from,omitempty"`
	ValidUntil    *time.Time `gorm:"type:timestamp;default:null" json:"valid_until,omitempty"`
	IsActive      bool       `gorm:"default:true;index" json:"is_active"`
	PlanName      string     `gorm:"type:varchar(50);default:''" json:"plan_name,omitempty"` // empty = any plan
	MinPurchase   int64      `gorm:"not null;default:0" json:"min_purchase"`                 // minor units
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
