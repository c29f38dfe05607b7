package promocode

import (
	"errors"
	"strings"
	"time"

	"github.com/andresvl/aulaviva/app/models"
)

// Status is the derived state of a promo code. It is computed from the stored
// fields on every read and never persisted.
type Status string

const (
	StatusInactivo   Status = "Inactivo"
	StatusProgramado Status = "Programado"
	StatusExpirado   Status = "Expirado"
	StatusAgotado    Status = "Agotado"
	StatusActivo     Status = "Activo"
)

var (
	ErrNotRedeemable  = errors.New("promo code is not redeemable")
	ErrPlanRestricted = errors.New("promo code does not apply to this plan")
	ErrMinPurchase    = errors.New("amount below promo code minimum purchase")
)

// DeriveStatus evaluates the code's effective state, in precedence order:
// Inactivo, Programado, Expirado, Agotado, Activo. The validity window is
// inclusive on both ends: a code is live exactly at ValidFrom and exactly at
// ValidUntil.
func DeriveStatus(now time.Time, pc *models.PromoCode) Status {
	if !pc.IsActive {
		return StatusInactivo
	}
	if pc.ValidFrom != nil && now.Before(*pc.ValidFrom) {
		return StatusProgramado
	}
	if pc.ValidUntil != nil && now.After(*pc.ValidUntil) {
		return StatusExpirado
	}
	if pc.MaxUses > 0 && pc.UsedCount >= pc.MaxUses {
		return StatusAgotado
	}
	return StatusActivo
}

// Normalize uppercases and trims a user-entered code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Apply returns the discounted minor-unit amount for a charge, enforcing the
// derived status, plan restriction and minimum purchase. A fixed discount
// never pushes the amount below zero.
func Apply(now time.Time, pc *models.PromoCode, planName string, amount int64) (int64, error) {
	if DeriveStatus(now, pc) != StatusActivo {
		return 0, ErrNotRedeemable
	}
	if pc.PlanName != "" && pc.PlanName != planName {
		return 0, ErrPlanRestricted
	}
	if pc.MinPurchase > 0 && amount < pc.MinPurchase {
		return 0, ErrMinPurchase
	}

	switch pc.DiscountType {
	case models.DiscountTypeFixed:
		discounted := amount - pc.DiscountValue
		if discounted < 0 {
			discounted = 0
		}
		return discounted, nil
	case models.DiscountTypePercent:
		if pc.DiscountValue >= 100 {
			return 0, nil
		}
		return amount - amount*pc.DiscountValue/100, nil
	default:
		return 0, errors.New("unknown discount type: " + pc.DiscountType)
	}
}
