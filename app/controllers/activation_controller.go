package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/andresvl/aulaviva/internal/pkg/billing"
	"github.com/andresvl/aulaviva/internal/pkg/metrics/counter"
)

// activationTestCode gates the manual activation endpoint. The code is a
// shared secret with the QA flow, not an authentication mechanism.
const activationTestCode = "PRUEBA"

type activateSubscriptionRequest struct {
	Email        string `json:"email"`
	UserID       uint   `json:"userId"`
	ExternalID   string `json:"externalId"`
	Name         string `json:"name"`
	PlanID       string `json:"planId"`
	BillingCycle string `json:"billingCycle"`
	Country      string `json:"country"`
	TestCode     string `json:"testCode"`
}

// HandleActivateSubscription activates a subscription directly, without a
// processor round-trip. Used by QA and for manual recovery; requires the
// fixed test code and is idempotent per (user, plan).
func HandleActivateSubscription(c *fiber.Ctx) error {
	var req activateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body", err.Error())
	}

	if req.TestCode != activationTestCode {
		return jsonError(c, fiber.StatusBadRequest, "invalid test code", "")
	}
	if strings.TrimSpace(req.Email) == "" && strings.TrimSpace(req.ExternalID) == "" && req.UserID == 0 {
		return jsonError(c, fiber.StatusBadRequest, "userId, externalId or email is required", "")
	}
	if strings.TrimSpace(req.PlanID) == "" {
		return jsonError(c, fiber.StatusBadRequest, "planId is required", "")
	}
	if req.BillingCycle == "" {
		req.BillingCycle = "monthly"
	}

	sub, tx, err := BillingService().ActivateDirect(c.UserContext(), billing.ActivationInput{
		UserID:       req.UserID,
		Email:        req.Email,
		ExternalID:   req.ExternalID,
		Name:         req.Name,
		PlanName:     req.PlanID,
		BillingCycle: req.BillingCycle,
		CountryCode:  req.Country,
	})
	if err != nil {
		fiberlog.Warnf("test activation failed email=%s plan=%s: %v", req.Email, req.PlanID, err)
		return billingError(c, err)
	}

	_ = counter.AddActivation()

	return c.JSON(fiber.Map{
		"success": true,
		"subscription": fiber.Map{
			"id":     sub.ID,
			"status": sub.Status,
			"cycle":  sub.BillingCycle,
			"planId": sub.PlanID,
		},
		"payment": fiber.Map{
			"referenceCode": tx.ReferenceCode,
			"status":        tx.Status,
			"method":        tx.Method,
		},
	})
}

// HandleListActiveSubscriptions returns the active subscriptions for a user
// selected by userId or email.
func HandleListActiveSubscriptions(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Query("email"))
	var userID uint
	if raw := strings.TrimSpace(c.Query("userId")); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "userId must be numeric", "")
		}
		userID = uint(v)
	}

	subs, err := BillingService().ListActiveSubscriptions(c.UserContext(), userID, email)
	if err != nil {
		return billingError(c, err)
	}

	items := make([]fiber.Map, 0, len(subs))
	for _, sub := range subs {
		item := fiber.Map{
			"id":     sub.ID,
			"status": sub.Status,
			"cycle":  sub.BillingCycle,
		}
		if sub.Plan != nil {
			item["plan"] = sub.Plan.Name
		}
		if sub.CurrentPeriodEnd != nil {
			item["currentPeriodEnd"] = sub.CurrentPeriodEnd
		}
		items = append(items, item)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"subscriptions": items,
	})
}
