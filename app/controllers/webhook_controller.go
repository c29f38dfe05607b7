package controllers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/andresvl/aulaviva/app/models"
	"github.com/andresvl/aulaviva/app/repository"
	"github.com/andresvl/aulaviva/internal/pkg/billing"
	"github.com/andresvl/aulaviva/internal/pkg/env"
	"github.com/andresvl/aulaviva/internal/pkg/mail"
	"github.com/andresvl/aulaviva/internal/pkg/metrics/counter"
	"github.com/andresvl/aulaviva/internal/pkg/payu"
)

// confirmationEventID builds the dedup key for a confirmation delivery. PayU
// reuses the same transaction_id for the intermediate and final deliveries of
// one payment, so the state has to be part of the key or the final verdict
// would be dropped as a redelivery of the intermediate one.
func confirmationEventID(transactionID, statePol string) string {
	if transactionID == "" {
		return ""
	}
	return transactionID + ":" + statePol
}

// HandlePayUConfirmation receives the server-to-server confirmation PayU
// sends after a checkout. The flow is: verify the signature, record the event
// idempotently, then run the result through the payment state machine.
// PayU retries on non-2xx, so duplicate deliveries answer 200 without
// reprocessing.
func HandlePayUConfirmation(c *fiber.Ctx) error {
	form := map[string]string{}
	for _, key := range []string{
		"merchant_id", "state_pol", "reference_sale", "reference_pol",
		"transaction_id", "value", "currency", "sign", "response_message_pol",
		"payment_method_name",
	} {
		form[key] = strings.TrimSpace(c.FormValue(key))
	}

	apiKey := env.GetEnv("PAYU_API_KEY", "")
	signatureValid := payu.VerifyConfirmationSignature(
		apiKey,
		form["merchant_id"],
		form["reference_sale"],
		form["value"],
		form["currency"],
		form["state_pol"],
		form["sign"],
	)

	payload, _ := json.Marshal(form)
	svc := BillingService()

	fresh, event, err := svc.RecordWebhookEvent(c.UserContext(), "payu",
		confirmationEventID(form["transaction_id"], form["state_pol"]),
		"confirmation", string(payload), signatureValid)
	if err != nil {
		fiberlog.Errorf("payu confirmation: recording event failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}
	if !fresh {
		// Redelivery of an event we already stored.
		return c.SendStatus(fiber.StatusOK)
	}

	if !signatureValid {
		fiberlog.Warnf("payu confirmation: invalid signature for reference=%s", form["reference_sale"])
		_ = svc.MarkWebhookProcessed(c.UserContext(), event.ID, errors.New("invalid signature"))
		return jsonError(c, fiber.StatusBadRequest, "invalid signature", "")
	}

	var status string
	switch form["state_pol"] {
	case payu.StatePolApproved:
		status = models.PaymentStatusApproved
	case payu.StatePolDeclined:
		status = models.PaymentStatusDeclined
	case payu.StatePolExpired:
		status = models.PaymentStatusAbandoned
	default:
		// Intermediate states (pending, in validation) are acknowledged and
		// left for the final confirmation.
		_ = svc.MarkWebhookProcessed(c.UserContext(), event.ID, nil)
		return c.SendStatus(fiber.StatusOK)
	}

	tx, err := svc.ApplyPaymentResult(c.UserContext(), form["reference_sale"], billing.PaymentResult{
		Status:                 status,
		ProcessorTransactionID: form["transaction_id"],
		Note:                   form["response_message_pol"],
	})
	_ = svc.MarkWebhookProcessed(c.UserContext(), event.ID, err)

	if err != nil {
		if errors.Is(err, billing.ErrConflict) {
			// A different terminal verdict was already applied. Answer 200 so
			// PayU stops retrying; the stored event keeps the evidence.
			fiberlog.Warnf("payu confirmation: conflicting verdict for reference=%s: %v", form["reference_sale"], err)
			return c.SendStatus(fiber.StatusOK)
		}
		fiberlog.Errorf("payu confirmation: applying result failed for reference=%s: %v", form["reference_sale"], err)
		return billingError(c, err)
	}

	_ = counter.AddConfirmation()

	// Receipt mail is best effort; the payment is settled either way.
	if status == models.PaymentStatusApproved && tx != nil {
		if user, uerr := repository.GetGlobalRepositories().User.GetByID(tx.UserID); uerr == nil {
			planName := ""
			if tx.Subscription != nil && tx.Subscription.Plan != nil {
				planName = tx.Subscription.Plan.DisplayName
			}
			if merr := mail.SendActivationReceipt(user.Email, planName, tx); merr != nil {
				fiberlog.Warnf("payu confirmation: receipt mail failed user=%d: %v", user.ID, merr)
			}
		}
	}

	return c.SendStatus(fiber.StatusOK)
}
