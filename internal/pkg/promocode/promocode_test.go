package promocode

import (
	"testing"
	"time"

	"github.com/andresvl/aulaviva/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	validFrom  = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	validUntil = time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
)

func code(mut func(*models.PromoCode)) *models.PromoCode {
	pc := &models.PromoCode{
		Code:          "LANZAMIENTO",
		DiscountType:  models.DiscountTypePercent,
		DiscountValue: 20,
		MaxUses:       100,
		UsedCount:     0,
		ValidFrom:     &validFrom,
		ValidUntil:    &validUntil,
		IsActive:      true,
	}
	if mut != nil {
		mut(pc)
	}
	return pc
}

func TestDeriveStatus(t *testing.T) {
	inWindow := validFrom.Add(10 * 24 * time.Hour)

	tests := []struct {
		name string
		now  time.Time
		mut  func(*models.PromoCode)
		want Status
	}{
		{name: "inactive wins over everything", now: inWindow, mut: func(pc *models.PromoCode) {
			pc.IsActive = false
			pc.UsedCount = pc.MaxUses
		}, want: StatusInactivo},
		{name: "before window", now: validFrom.Add(-time.Second), want: StatusProgramado},
		{name: "exactly at validFrom", now: validFrom, want: StatusActivo},
		{name: "inside window", now: inWindow, want: StatusActivo},
		{name: "exactly at validUntil", now: validUntil, want: StatusActivo},
		{name: "after window", now: validUntil.Add(time.Second), want: StatusExpirado},
		{name: "exhausted", now: inWindow, mut: func(pc *models.PromoCode) {
			pc.UsedCount = pc.MaxUses
		}, want: StatusAgotado},
		{name: "expired wins over exhausted", now: validUntil.Add(time.Second), mut: func(pc *models.PromoCode) {
			pc.UsedCount = pc.MaxUses
		}, want: StatusExpirado},
		{name: "zero max uses means unlimited", now: inWindow, mut: func(pc *models.PromoCode) {
			pc.MaxUses = 0
			pc.UsedCount = 9999
		}, want: StatusActivo},
		{name: "no window means always live", now: inWindow, mut: func(pc *models.PromoCode) {
			pc.ValidFrom = nil
			pc.ValidUntil = nil
		}, want: StatusActivo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.now, code(tt.mut)))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "LANZAMIENTO", Normalize("  lanzamiento "))
}

func TestApplyPercent(t *testing.T) {
	now := validFrom.Add(time.Hour)

	got, err := Apply(now, code(nil), models.PlanBasico, 10_000)
	require.NoError(t, err)
	assert.Equal(t, int64(8_000), got)

	// 100% discount floors at zero.
	got, err = Apply(now, code(func(pc *models.PromoCode) { pc.DiscountValue = 100 }), models.PlanBasico, 10_000)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestApplyFixed(t *testing.T) {
	now := validFrom.Add(time.Hour)
	fixed := code(func(pc *models.PromoCode) {
		pc.DiscountType = models.DiscountTypeFixed
		pc.DiscountValue = 4_000
	})

	got, err := Apply(now, fixed, models.PlanBasico, 10_000)
	require.NoError(t, err)
	assert.Equal(t, int64(6_000), got)

	// A fixed discount larger than the amount never goes negative.
	got, err = Apply(now, fixed, models.PlanBasico, 3_000)
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestApplyGuards(t *testing.T) {
	now := validFrom.Add(time.Hour)

	_, err := Apply(now, code(func(pc *models.PromoCode) { pc.IsActive = false }), models.PlanBasico, 10_000)
	assert.ErrorIs(t, err, ErrNotRedeemable)

	_, err = Apply(now, code(func(pc *models.PromoCode) { pc.PlanName = models.PlanPremium }), models.PlanBasico, 10_000)
	assert.ErrorIs(t, err, ErrPlanRestricted)

	_, err = Apply(now, code(func(pc *models.PromoCode) { pc.MinPurchase = 50_000 }), models.PlanBasico, 10_000)
	assert.ErrorIs(t, err, ErrMinPurchase)
}
