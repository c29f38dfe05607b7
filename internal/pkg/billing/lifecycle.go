package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/andresvl/aulaviva/app/models"
)

// validResults are the terminal transaction states a writer may request.
var validResults = map[string]bool{
	models.PaymentStatusApproved:  true,
	models.PaymentStatusDeclined:  true,
	models.PaymentStatusAbandoned: true,
}

// ApplyPaymentResult is the single exit transition of the payment state
// machine. Every writer — webhook, test endpoint, proof review, sweeper —
// calls it with a reference code and a terminal verdict.
//
// Rules: pending moves to any terminal state; redelivery of the same terminal
// state is a no-op; conflicting terminal states are rejected with ErrConflict.
// An approval activates the subscription, stamps the billing period, redeems
// the promo code and updates the user's cached plan. A decline or abandon
// cancels the pending subscription.
func (s *Service) ApplyPaymentResult(ctx context.Context, referenceCode string, result PaymentResult) (*models.PaymentTransaction, error) {
	_ = ctx
	status := strings.ToLower(strings.TrimSpace(result.Status))
	if !validResults[status] {
		return nil, fmt.Errorf("%w: invalid payment result %q", ErrValidation, result.Status)
	}

	tx, err := s.repo.GetTransactionByReference(strings.TrimSpace(referenceCode))
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: payment transaction %q", ErrNotFound, referenceCode)
		}
		return nil, err
	}

	if tx.IsTerminal() {
		if tx.Status == status {
			return tx, nil
		}
		return nil, fmt.Errorf("%w: transaction %s is already %s, cannot set %s",
			ErrConflict, tx.ReferenceCode, tx.Status, status)
	}

	tx.Status = status
	if result.ProcessorTransactionID != "" {
		tx.ProcessorTransactionID = result.ProcessorTransactionID
	}
	if err := s.repo.SaveTransaction(tx); err != nil {
		return nil, err
	}

	sub := tx.Subscription
	if sub == nil {
		return tx, nil
	}

	switch status {
	case models.PaymentStatusApproved:
		now := s.now()
		periodEnd := now.Add(models.PeriodLength(sub.BillingCycle))
		sub.Status = models.SubscriptionStatusActive
		sub.IsActive = true
		sub.CurrentPeriodStart = &now
		sub.CurrentPeriodEnd = &periodEnd
		if err := s.repo.SaveSubscription(sub); err != nil {
			return nil, err
		}
		if tx.PromoCode != "" {
			if err := s.repo.IncrementPromoUse(tx.PromoCode); err != nil {
				return nil, err
			}
		}
		if err := s.ReconcileUserPlan(sub.UserID); err != nil {
			return nil, err
		}
	case models.PaymentStatusDeclined, models.PaymentStatusAbandoned:
		if sub.Status == models.SubscriptionStatusPending {
			sub.Status = models.SubscriptionStatusCancelled
			sub.IsActive = false
			if err := s.repo.SaveSubscription(sub); err != nil {
				return nil, err
			}
		}
	}

	return tx, nil
}

// RecordWebhookEvent persists a processor confirmation payload idempotently.
// The bool result is false when the event was seen before, in which case the
// caller must not process it again.
func (s *Service) RecordWebhookEvent(ctx context.Context, provider, providerEventID, eventType, payloadJSON string, signatureValid bool) (bool, *models.WebhookEvent, error) {
	_ = ctx
	p := strings.ToLower(strings.TrimSpace(provider))
	if p == "" {
		return false, nil, fmt.Errorf("%w: provider is required", ErrValidation)
	}
	eventID := strings.TrimSpace(providerEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(payloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		Provider:        p,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(eventType),
		PayloadJSON:     payloadJSON,
		SignatureValid:  signatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed stamps an event as handled, storing the processing
// error when there was one.
func (s *Service) MarkWebhookProcessed(ctx context.Context, eventID uint, processingErr error) error {
	_ = ctx
	if eventID == 0 {
		return fmt.Errorf("%w: webhook event id is required", ErrValidation)
	}
	msg := ""
	if processingErr != nil {
		msg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(eventID, msg)
}
