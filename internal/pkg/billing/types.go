package billing

import (
	"github.com/andresvl/aulaviva/app/models"
	"github.com/andresvl/aulaviva/internal/pkg/pricing"
)

// PaymentIntentInput is the normalized input for intent creation. UserID is
// the already-resolved local user; identity resolution happens at the
// controller boundary.
type PaymentIntentInput struct {
	UserID         uint
	ExternalID     string
	BuyerEmail     string
	PlanName       string
	BillingCycle   string
	CountryCode    string
	PromoCode      string
	IdempotencyKey string
	ResponseURL    string
	Method         string // payu or transfer
}

// PaymentIntent is the outcome of intent creation. Free plans short-circuit
// with Redirect=true and no rows written; Replayed marks an idempotency-key
// hit that returned the original intent instead of creating a duplicate.
type PaymentIntent struct {
	Redirect    bool
	RedirectURL string
	Replayed    bool
	CheckoutURL string

	Transaction  *models.PaymentTransaction
	Subscription *models.Subscription
	Plan         *models.Plan
	Pricing      *pricing.PricePoint
	Amount       int64 // charged minor units after any promo discount
}

// PaymentResult is a terminal verdict delivered by any writer: the processor
// confirmation webhook, the test endpoint or a proof review.
type PaymentResult struct {
	Status                 string // approved, declined or abandoned
	ProcessorTransactionID string
	Note                   string
}

// ActivationInput feeds the direct (test/manual) activation path. The user
// is resolved by UserID, then ExternalID, then Email; at least one selector
// is required.
type ActivationInput struct {
	UserID       uint
	Email        string
	ExternalID   string
	Name         string
	PlanName     string
	BillingCycle string
	CountryCode  string
}
