package billing

import (
	"context"
	"time"

	"github.com/andresvl/aulaviva/app/models"
)

const sweepBatchSize = 200

// SweepAbandonedTransactions marks pending card checkouts older than the
// checkout window as abandoned, through the same transition function the
// webhook uses. Transfer payments are never swept; they wait for a reviewer
// verdict on the uploaded proof. Returns how many were swept.
func (s *Service) SweepAbandonedTransactions(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	txs, err := s.repo.ListStalePendingTransactions(cutoff, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for i := range txs {
		if err := ctx.Err(); err != nil {
			return swept, err
		}
		_, err := s.ApplyPaymentResult(ctx, txs[i].ReferenceCode, PaymentResult{
			Status: models.PaymentStatusAbandoned,
			Note:   "checkout window elapsed",
		})
		if err != nil {
			// A confirmation may have landed between the listing and the
			// transition. Leave that transaction to its verdict.
			continue
		}
		swept++
	}
	return swept, nil
}

// ExpireLapsedSubscriptions closes active subscriptions whose paid period has
// ended and recomputes the owner's cached plan from whatever remains active.
// Returns how many subscriptions were expired.
func (s *Service) ExpireLapsedSubscriptions(ctx context.Context) (int, error) {
	subs, err := s.repo.ListLapsedActiveSubscriptions(s.now(), sweepBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range subs {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		sub := subs[i]
		sub.Status = models.SubscriptionStatusExpired
		sub.IsActive = false
		if err := s.repo.SaveSubscription(&sub); err != nil {
			continue
		}
		expired++

		_ = s.ReconcileUserPlan(sub.UserID)
	}
	return expired, nil
}

// ReconcileUserPlan sets the user's cached plan to the best plan among their
// remaining active subscriptions, or gratis when none are left.
func (s *Service) ReconcileUserPlan(userID uint) error {
	subs, err := s.repo.ListActiveSubscriptionsByUser(userID)
	if err != nil {
		return err
	}
	best := models.PlanGratis
	for i := range subs {
		if subs[i].Plan != nil && models.PlanRank(subs[i].Plan.Name) > models.PlanRank(best) {
			best = subs[i].Plan.Name
		}
	}
	return s.repo.SetUserPlan(userID, best)
}
