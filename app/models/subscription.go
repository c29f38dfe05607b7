package models

import "time"

const (
	SubscriptionStatusPending   = "pending"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// Subscription ties a user to a plan with a price snapshot taken at creation
// time. Status transitions run exclusively through billing.ApplyPaymentResult
// so every writer (processor webhook, test endpoint, proof verification)
// shares one state machine.
type Subscription struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             uint       `gorm:"not null;index:idx_subscriptions_user_plan,priority:1" json:"user_id"`
	PlanID             uint       `gorm:"not null;index:idx_subscriptions_user_plan,priority:2" json:"plan_id"`
	Status             string     `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	IsActive           bool       `gorm:"default:false;index" json:"is_active"`
	BillingCycle       string     `gorm:"type:varchar(16);not null;default:'monthly'" json:"billing_cycle"`
	Amount             int64      `gorm:"not null;default:0" json:"amount"` // minor units at creation
	Currency           string     `gorm:"type:varchar(3);not null;default:'COP'" json:"currency"`
	CountryCode        string     `gorm:"type:varchar(2);default:''" json:"country_code"`
	CurrentPeriodStart *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Plan *Plan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// PeriodLength returns the subscription window for a billing cycle.
func PeriodLength(cycle string) time.Duration {
	if cycle == BillingCycleQuarterly {
		return 3 * 30 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}
