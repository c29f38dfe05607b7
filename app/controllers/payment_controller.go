package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/andresvl/aulaviva/internal/pkg/billing"
	"github.com/andresvl/aulaviva/internal/pkg/metrics/counter"
	"github.com/andresvl/aulaviva/internal/pkg/pricing"
	"github.com/andresvl/aulaviva/internal/pkg/usercontext"
)

type createPaymentRequest struct {
	PlanID       string `json:"planId"`
	BillingCycle string `json:"billingCycle"`
	Country      string `json:"country"`
	PromoCode    string `json:"promoCode"`
	Method       string `json:"method"`
	ResponseURL  string `json:"responseUrl"`
}

// HandleCreatePayment starts a checkout: it resolves the plan price for the
// caller's country, creates the pending subscription/transaction pair and
// returns the hosted checkout URL.
func HandleCreatePayment(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "login required", "")
	}

	var req createPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body", err.Error())
	}
	if strings.TrimSpace(req.PlanID) == "" {
		return jsonError(c, fiber.StatusBadRequest, "planId is required", "")
	}
	if req.BillingCycle == "" {
		req.BillingCycle = "monthly"
	}

	country := pricing.DetectCountry(c.UserContext(), GeoIPClient(), req.Country, GetClientIP(c))

	intent, err := BillingService().CreatePaymentIntent(c.UserContext(), billing.PaymentIntentInput{
		UserID:         userCtx.UserID,
		ExternalID:     userCtx.ExternalID,
		BuyerEmail:     userCtx.Email,
		PlanName:       req.PlanID,
		BillingCycle:   req.BillingCycle,
		CountryCode:    country,
		PromoCode:      req.PromoCode,
		IdempotencyKey: strings.TrimSpace(c.Get("X-Idempotency-Key")),
		ResponseURL:    req.ResponseURL,
		Method:         req.Method,
	})
	if err != nil {
		fiberlog.Warnf("create-payment failed user=%d plan=%s: %v", userCtx.UserID, req.PlanID, err)
		return billingError(c, err)
	}

	// Free plans need no processor round-trip.
	if intent.Redirect {
		return c.JSON(fiber.Map{
			"success":  true,
			"redirect": intent.RedirectURL,
		})
	}

	if !intent.Replayed {
		_ = counter.AddPaymentIntent()
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"replayed": intent.Replayed,
		"payment": fiber.Map{
			"checkoutUrl":    intent.CheckoutURL,
			"referenceCode":  intent.Transaction.ReferenceCode,
			"transactionId":  intent.Transaction.ID,
			"subscriptionId": intent.Subscription.ID,
			"status":         intent.Transaction.Status,
		},
		"pricing": fiber.Map{
			"country":  country,
			"currency": intent.Pricing.Currency,
			"amount":   intent.Amount,
			"display":  pricing.FormatAmount(intent.Amount, intent.Pricing.Currency),
		},
		"plan": fiber.Map{
			"id":    intent.Plan.Name,
			"name":  intent.Plan.DisplayName,
			"cycle": req.BillingCycle,
		},
	})
}

// HandlePaymentStatus reconciles a transaction by referenceCode or
// transactionId for clients returning from the processor.
func HandlePaymentStatus(c *fiber.Ctx) error {
	referenceCode := strings.TrimSpace(c.Query("referenceCode"))
	processorID := strings.TrimSpace(c.Query("transactionId"))

	tx, err := BillingService().GetPaymentStatus(c.UserContext(), referenceCode, processorID)
	if err != nil {
		return billingError(c, err)
	}

	resp := fiber.Map{
		"success": true,
		"payment": fiber.Map{
			"referenceCode": tx.ReferenceCode,
			"status":        tx.Status,
			"method":        tx.Method,
			"amount":        tx.Amount,
			"currency":      tx.Currency,
		},
	}
	if tx.Subscription != nil {
		sub := fiber.Map{
			"id":     tx.Subscription.ID,
			"status": tx.Subscription.Status,
			"cycle":  tx.Subscription.BillingCycle,
		}
		if tx.Subscription.Plan != nil {
			sub["plan"] = tx.Subscription.Plan.Name
		}
		resp["subscription"] = sub
	}
	return c.JSON(resp)
}
