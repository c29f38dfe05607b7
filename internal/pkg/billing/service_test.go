package billing

import (
	"context"
	"testing"

	"github.com/andresvl/aulaviva/app/models"
	"github.com/andresvl/aulaviva/internal/pkg/payu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*Service, *fakeRepo, *payu.FakeClient) {
	repo := newFakeRepo()
	repo.seedPlan(models.Plan{Name: models.PlanGratis, DisplayName: "Plan Gratis", IsActive: true})
	repo.seedPlan(models.Plan{Name: models.PlanBasico, DisplayName: "Plan Básico", BaseAmount: 3_990_000, Currency: "COP", IsActive: true})
	repo.seedPlan(models.Plan{Name: models.PlanPremium, DisplayName: "Plan Premium", BaseAmount: 7_990_000, Currency: "COP", IsActive: true})
	processor := payu.NewFakeClient()
	return NewService(repo, processor), repo, processor
}

func seedBuyer(repo *fakeRepo) *models.User {
	return repo.seedUser(models.User{
		Provider:   "google",
		ExternalID: "ext-123",
		Name:       "Carolina Mejía",
		Email:      "carolina@example.com",
		Role:       models.ROLE_USER,
		Status:     models.STATUS_ACTIVE,
	})
}

func TestCreatePaymentIntentHappyPath(t *testing.T) {
	svc, repo, _ := newTestService()
	user := seedBuyer(repo)

	intent, err := svc.CreatePaymentIntent(context.Background(), PaymentIntentInput{
		UserID:       user.ID,
		BuyerEmail:   user.Email,
		PlanName:     models.PlanBasico,
		BillingCycle: models.BillingCycleMonthly,
		CountryCode:  "CO",
	})
	require.NoError(t, err)
	require.NotNil(t, intent)

	assert.False(t, intent.Redirect)
	assert.False(t, intent.Replayed)
	assert.NotEmpty(t, intent.CheckoutURL)
	assert.Equal(t, int64(3_990_000), intent.Amount)
	assert.Equal(t, "COP", intent.Pricing.Currency)

	require.NotNil(t, intent.Subscription)
	assert.Equal(t, models.SubscriptionStatusPending, intent.Subscription.Status)
	require.NotNil(t, intent.Transaction)
	assert.Equal(t, models.PaymentStatusPending, intent.Transaction.Status)
	assert.NotEmpty(t, intent.Transaction.ReferenceCode)
	assert.Equal(t, 1, repo.subscriptionCount())
	assert.Equal(t, 1, repo.transactionCount())
}

func TestCreatePaymentIntentValidation(t *testing.T) {
	svc, repo, _ := newTestService()
	user := seedBuyer(repo)

	tests := []struct {
		name string
		in   PaymentIntentInput
	}{
		{name: "bad cycle", in: PaymentIntentInput{UserID: user.ID, PlanName: models.PlanBasico, BillingCycle: "weekly"}},
		{name: "unknown plan", in: PaymentIntentInput{UserID: user.ID, PlanName: "platino", BillingCycle: models.BillingCycleMonthly}},
		{name: "unsupported country", in: PaymentIntentInput{UserID: user.ID, PlanName: models.PlanBasico, BillingCycle: models.BillingCycleMonthly, CountryCode: "FR"}},
		{name: "missing user", in: PaymentIntentInput{PlanName: models.PlanBasico, BillingCycle: models.BillingCycleMonthly}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePaymentIntent(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Equal(t, 0, repo.subscriptionCount())
}

func TestCreatePaymentIntentFreePlanShortCircuits(t *testing.T) {
	svc, repo, processor := newTestService()
	user := seedBuyer(repo)

	intent, err := svc.CreatePaymentIntent(context.Background(), PaymentIntentInput{
		UserID:       user.ID,
		PlanName:     models.PlanGratis,
		BillingCycle: models.BillingCycleMonthly,
		CountryCode:  "CO",
		ResponseURL:  "https://app.example/gracias",
	})
	require.NoError(t, err)

	assert.True(t, intent.Redirect)
	assert.Equal(t, "https://app.example/gracias", intent.RedirectURL)
	assert.Nil(t, intent.Transaction)
	assert.Equal(t, 0, repo.subscriptionCount())
	assert.Equal(t, 0, repo.transactionCount())
	assert.Equal(t, 0, processor.RequestCount())
}

func TestCreatePaymentIntentProcessorFailureCompensates(t *testing.T) {
	svc, repo, processor := newTestService()
	user := seedBuyer(repo)
	processor.FailNext = true

	_, err := svc.CreatePaymentIntent(context.Background(), PaymentIntentInput{
		UserID:       user.ID,
		PlanName:     models.PlanBasico,
		BillingCycle: models.BillingCycleMonthly,
		CountryCode:  "CO",
	})
	require.ErrorIs(t, err, ErrProcessor)

	// The pending subscription created before the checkout call is gone.
	assert.Equal(t, 0, repo.subscriptionCount())
	assert.Equal(t, 0, repo.transactionCount())
}

func TestCreatePaymentIntentIdempotencyReplay(t *testing.T) {
	svc, repo, _ := newTestService()
	user := seedBuyer(repo)

	in := PaymentIntentInput{
		UserID:         user.ID,
		PlanName:       models.PlanBasico,
		BillingCycle:   models.BillingCycleMonthly,
		CountryCode:    "CO",
		IdempotencyKey: "cliente-abc-1",
	}
	first, err := svc.CreatePaymentIntent(context.Background(), in)
	require.NoError(t, err)

	second, err := svc.CreatePaymentIntent(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Transaction.ReferenceCode, second.Transaction.ReferenceCode)
	assert.Equal(t, 1, repo.subscriptionCount())
	assert.Equal(t, 1, repo.transactionCount())
}

func TestCreatePaymentIntentPromoCode(t *testing.T) {
	svc, repo, _ := newTestService()
	user := seedBuyer(repo)
	repo.seedPromo(models.PromoCode{
		Code:          "BIENVENIDA50",
		DiscountType:  models.DiscountTypePercent,
		DiscountValue: 50,
		IsActive:      true,
	})

	intent, err := svc.CreatePaymentIntent(context.Background(), PaymentIntentInput{
		UserID:       user.ID,
		PlanName:     models.PlanBasico,
		BillingCycle: models.BillingCycleMonthly,
		CountryCode:  "CO",
		PromoCode:    "bienvenida50",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1_995_000), intent.Amount)
	assert.Equal(t, "BIENVENIDA50", intent.Transaction.PromoCode)

	_, err = svc.CreatePaymentIntent(context.Background(), PaymentIntentInput{
		UserID:       user.ID,
		PlanName:     models.PlanBasico,
		BillingCycle: models.BillingCycleMonthly,
		CountryCode:  "CO",
		PromoCode:    "NOEXISTE",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreatePaymentIntentTransferMethod(t *testing.T) {
	svc, repo, processor := newTestService()
	user := seedBuyer(repo)

	intent, err := svc.CreatePaymentIntent(context.Background(), PaymentIntentInput{
		UserID:       user.ID,
		PlanName:     models.PlanBasico,
		BillingCycle: models.BillingCycleMonthly,
		CountryCode:  "CO",
		Method:       models.PaymentMethodTransfer,
	})
	require.NoError(t, err)

	// A transfer settles through proof review; no hosted checkout is requested.
	assert.Empty(t, intent.CheckoutURL)
	assert.Zero(t, processor.RequestCount())
	assert.Equal(t, models.PaymentMethodTransfer, intent.Transaction.Method)
	assert.Equal(t, models.PaymentStatusPending, intent.Transaction.Status)

	_, err = svc.CreatePaymentIntent(context.Background(), PaymentIntentInput{
		UserID:       user.ID,
		PlanName:     models.PlanBasico,
		BillingCycle: models.BillingCycleMonthly,
		CountryCode:  "CO",
		Method:       "bitcoin",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetPaymentStatusSelectors(t *testing.T) {
	svc, repo, _ := newTestService()
	user := seedBuyer(repo)

	_, err := svc.GetPaymentStatus(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.GetPaymentStatus(context.Background(), "AV-NOPE", "")
	assert.ErrorIs(t, err, ErrNotFound)

	intent, err := svc.CreatePaymentIntent(context.Background(), PaymentIntentInput{
		UserID:       user.ID,
		PlanName:     models.PlanBasico,
		BillingCycle: models.BillingCycleMonthly,
		CountryCode:  "CO",
	})
	require.NoError(t, err)

	got, err := svc.GetPaymentStatus(context.Background(), intent.Transaction.ReferenceCode, "")
	require.NoError(t, err)
	assert.Equal(t, intent.Transaction.ID, got.ID)
	require.NotNil(t, got.Subscription)
	require.NotNil(t, got.Subscription.Plan)
	assert.Equal(t, models.PlanBasico, got.Subscription.Plan.Name)
}

func TestActivateDirectIsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService()

	in := ActivationInput{
		Email:       "nuevo@example.com",
		Name:        "Nuevo Usuario",
		PlanName:    models.PlanBasico,
		CountryCode: "CO",
	}
	sub1, tx1, err := svc.ActivateDirect(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, sub1.Status)
	assert.Equal(t, models.PaymentStatusApproved, tx1.Status)

	sub2, tx2, err := svc.ActivateDirect(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, sub1.ID, sub2.ID)
	assert.Equal(t, tx1.ID, tx2.ID)

	assert.Equal(t, 1, repo.subscriptionCount())
	assert.Equal(t, 1, repo.transactionCount())

	user, err := repo.GetUserByEmail("nuevo@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.PlanBasico, user.PlanName)
}

func TestActivateDirectDuplicateEmailFallback(t *testing.T) {
	svc, repo, _ := newTestService()
	existing := seedBuyer(repo)

	sub, _, err := svc.ActivateDirect(context.Background(), ActivationInput{
		Email:    existing.Email,
		PlanName: models.PlanPremium,
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, sub.UserID)
}

func TestActivateDirectSelectorResolution(t *testing.T) {
	svc, repo, _ := newTestService()
	existing := seedBuyer(repo)

	// externalId alone resolves the existing account.
	sub, _, err := svc.ActivateDirect(context.Background(), ActivationInput{
		ExternalID: existing.ExternalID,
		PlanName:   models.PlanBasico,
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, sub.UserID)

	// So does a bare userId.
	sub, _, err = svc.ActivateDirect(context.Background(), ActivationInput{
		UserID:   existing.ID,
		PlanName: models.PlanBasico,
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, sub.UserID)

	// A userId that points nowhere is a lookup failure, not a new account.
	_, _, err = svc.ActivateDirect(context.Background(), ActivationInput{
		UserID:   9999,
		PlanName: models.PlanBasico,
	})
	assert.ErrorIs(t, err, ErrNotFound)

	// No selector at all is rejected.
	_, _, err = svc.ActivateDirect(context.Background(), ActivationInput{
		PlanName: models.PlanBasico,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestActivateDirectUnknownExternalIDCreatesUser(t *testing.T) {
	svc, repo, _ := newTestService()

	sub, tx, err := svc.ActivateDirect(context.Background(), ActivationInput{
		ExternalID: "ext-nueva",
		Name:       "Cuenta Nueva",
		PlanName:   models.PlanBasico,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusApproved, tx.Status)

	owner, err := repo.GetUserByID(sub.UserID)
	require.NoError(t, err)
	assert.Equal(t, "ext-nueva", owner.ExternalID)
	assert.Equal(t, "google_ext-nueva@google.oauth.local", owner.Email)
}
