package billing

import (
	"context"
	"testing"
	"time"

	"github.com/andresvl/aulaviva/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepAbandonedTransactions(t *testing.T) {
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

	// Backdate the pending transaction past the checkout window.
	intent.Transaction.CreatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, repo.SaveTransaction(intent.Transaction))

	swept, err := svc.SweepAbandonedTransactions(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	tx, err := repo.GetTransactionByReference(intent.Transaction.ReferenceCode)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusAbandoned, tx.Status)
	assert.Equal(t, models.SubscriptionStatusCancelled, tx.Subscription.Status)
}

func TestSweepSkipsFreshPendingTransactions(t *testing.T) {
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

	swept, err := svc.SweepAbandonedTransactions(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, swept)

	tx, err := repo.GetTransactionByReference(intent.Transaction.ReferenceCode)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, tx.Status)
}

func TestExpireLapsedSubscriptions(t *testing.T) {
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

	_, err = svc.ApplyPaymentResult(context.Background(), intent.Transaction.ReferenceCode, PaymentResult{
		Status:                 models.PaymentStatusApproved,
		ProcessorTransactionID: "payu-1",
	})
	require.NoError(t, err)

	// Rewind the paid period so the subscription has lapsed.
	past := time.Now().Add(-time.Hour)
	start := past.Add(-30 * 24 * time.Hour)
	sub := repo.subscriptions[intent.Subscription.ID]
	sub.CurrentPeriodStart = &start
	sub.CurrentPeriodEnd = &past
	require.NoError(t, repo.SaveSubscription(sub))

	expired, err := svc.ExpireLapsedSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	assert.Equal(t, models.SubscriptionStatusExpired, repo.subscriptions[sub.ID].Status)
	assert.False(t, repo.subscriptions[sub.ID].IsActive)

	// With no other active subscription the user drops back to the free plan.
	owner, err := repo.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanGratis, owner.PlanName)

	// A second sweep finds nothing.
	expired, err = svc.ExpireLapsedSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestSweepLeavesTransferPaymentsPending(t *testing.T) {
	svc, repo, _ := newTestService()
	user := seedBuyer(repo)

	intent, err := svc.CreatePaymentIntent(context.Background(), PaymentIntentInput{
		UserID:       user.ID,
		BuyerEmail:   user.Email,
		PlanName:     models.PlanBasico,
		BillingCycle: models.BillingCycleMonthly,
		CountryCode:  "CO",
		Method:       models.PaymentMethodTransfer,
	})
	require.NoError(t, err)

	// Well past the checkout window, but still inside the proof review SLA.
	intent.Transaction.CreatedAt = time.Now().Add(-30 * time.Hour)
	require.NoError(t, repo.SaveTransaction(intent.Transaction))

	swept, err := svc.SweepAbandonedTransactions(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, swept)

	tx, err := repo.GetTransactionByReference(intent.Transaction.ReferenceCode)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, tx.Status)

	// The reviewer's later approval still lands.
	_, err = svc.ApplyPaymentResult(context.Background(), tx.ReferenceCode, PaymentResult{
		Status: models.PaymentStatusApproved,
	})
	require.NoError(t, err)
}

func TestExpireLapsedKeepsBestRemainingPlan(t *testing.T) {
	svc, repo, _ := newTestService()
	user := seedBuyer(repo)

	var refs []string
	for _, plan := range []string{models.PlanBasico, models.PlanPremium} {
		intent, err := svc.CreatePaymentIntent(context.Background(), PaymentIntentInput{
			UserID:       user.ID,
			BuyerEmail:   user.Email,
			PlanName:     plan,
			BillingCycle: models.BillingCycleMonthly,
			CountryCode:  "CO",
		})
		require.NoError(t, err)
		refs = append(refs, intent.Transaction.ReferenceCode)
	}
	for _, ref := range refs {
		_, err := svc.ApplyPaymentResult(context.Background(), ref, PaymentResult{
			Status:                 models.PaymentStatusApproved,
			ProcessorTransactionID: "payu-" + ref,
		})
		require.NoError(t, err)
	}

	owner, err := repo.GetUserByID(user.ID)
	require.NoError(t, err)
	require.Equal(t, models.PlanPremium, owner.PlanName)

	// Only the premium subscription lapses.
	past := time.Now().Add(-time.Hour)
	for _, sub := range repo.subscriptions {
		if plan := repo.planByID(sub.PlanID); plan != nil && plan.Name == models.PlanPremium {
			sub.CurrentPeriodEnd = &past
			require.NoError(t, repo.SaveSubscription(sub))
		}
	}

	expired, err := svc.ExpireLapsedSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	// The cached plan falls back to the best subscription still active.
	owner, err = repo.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlanBasico, owner.PlanName)
}
