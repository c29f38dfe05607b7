package models

import "time"

const (
	PaymentStatusPending   = "pending"
	PaymentStatusApproved  = "approved"
	PaymentStatusDeclined  = "declined"
	PaymentStatusAbandoned = "abandoned"
)

const (
	PaymentMethodPayU     = "payu"
	PaymentMethodTransfer = "transfer"
	PaymentMethodTest     = "test"
)

// PaymentTransaction records one charge attempt against a subscription.
// ReferenceCode is the value round-tripped through the processor;
// IdempotencyKey dedupes intent creation on replay. Extra1..3 carry opaque
// correlation data (external user id, plan name, billing cycle) the processor
// echoes back on confirmation.
type PaymentTransaction struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	SubscriptionID         uint      `gorm:"not null;index" json:"subscription_id"`
	UserID                 uint      `gorm:"not null;index" json:"user_id"`
	ReferenceCode          string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference_code"`
	IdempotencyKey         string    `gorm:"type:varchar(128);not null;default:'';index:ux_payment_transactions_idem,unique" json:"-"`
	Status                 string    `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	Method                 string    `gorm:"type:varchar(16);not null;default:'payu'" json:"method"`
	Amount                 int64     `gorm:"not null" json:"amount"` // minor units
	Currency               string    `gorm:"type:varchar(3);not null" json:"currency"`
	PromoCode              string    `gorm:"type:varchar(50);default:''" json:"promo_code,omitempty"`
	ProcessorTransactionID string    `gorm:"type:varchar(191);default:'';index" json:"processor_transaction_id,omitempty"`
	Extra1                 string    `gorm:"type:varchar(255);default:''" json:"-"`
	Extra2                 string    `gorm:"type:varchar(255);default:''" json:"-"`
	Extra3                 string    `gorm:"type:varchar(255);default:''" json:"-"`
	CreatedAt              time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Subscription *Subscription `gorm:"foreignKey:SubscriptionID" json:"subscription,omitempty"`
	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsTerminal reports whether the transaction reached a final state.
func (t *PaymentTransaction) IsTerminal() bool {
	switch t.Status {
	case PaymentStatusApproved, PaymentStatusDeclined, PaymentStatusAbandoned:
		return true
	}
	return false
}
