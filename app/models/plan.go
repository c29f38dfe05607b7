package models

import "time"

const (
	PlanGratis  = "gratis"
	PlanBasico  = "basico"
	PlanPremium = "premium"
)

const (
	BillingCycleMonthly   = "monthly"
	BillingCycleQuarterly = "quarterly"
)

// Plan is the DB anchor for a subscription plan. The in-code catalog in
// internal/pkg/pricing is the source of truth; rows are seeded at startup so
// foreign keys resolve and the request path never has to create one.
type Plan struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	DisplayName  string    `gorm:"type:varchar(150);not null" json:"display_name"`
	Description  string    `gorm:"type:text" json:"description"`
	BaseAmount   int64     `gorm:"not null;default:0" json:"base_amount"` // minor units
	Currency     string    `gorm:"type:varchar(3);not null;default:'COP'" json:"currency"`
	BillingCycle string    `gorm:"type:varchar(16);not null;default:'monthly'" json:"billing_cycle"`
	FeaturesJSON string    `gorm:"type:text" json:"features_json"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsFree reports whether the plan never charges.
func (p *Plan) IsFree() bool {
	return p.Name == PlanGratis || p.BaseAmount == 0
}

var planRank = map[string]int{
	PlanGratis:  0,
	PlanBasico:  1,
	PlanPremium: 2,
}

// PlanRank orders plans by entitlement. Unknown names rank below gratis.
func PlanRank(name string) int {
	if r, ok := planRank[name]; ok {
		return r
	}
	return -1
}
