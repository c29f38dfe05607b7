package controllers

import (
	"errors"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/andresvl/aulaviva/internal/pkg/billing"
	"github.com/andresvl/aulaviva/internal/pkg/database"
	"github.com/andresvl/aulaviva/internal/pkg/env"
	"github.com/andresvl/aulaviva/internal/pkg/payu"
	"github.com/andresvl/aulaviva/internal/pkg/pricing"
)

var (
	billingOnce sync.Once
	billingSvc  *billing.Service

	geoOnce sync.Once
	geoCli  *pricing.GeoClient
)

// BillingService returns the process-wide billing service, built once on the
// shared pooled DB handle and the configured processor client.
func BillingService() *billing.Service {
	billingOnce.Do(func() {
		billingSvc = billing.NewServiceFromDB(database.GetDB(), payu.NewClientFromEnv())
	})
	return billingSvc
}

// GeoIPClient returns the shared GeoIP lookup client.
func GeoIPClient() *pricing.GeoClient {
	geoOnce.Do(func() {
		geoCli = pricing.NewGeoClientFromEnv()
	})
	return geoCli
}

// jsonError writes the API error envelope. The detail string is only echoed
// in development; production clients get the generic message.
func jsonError(c *fiber.Ctx, status int, message, detail string) error {
	body := fiber.Map{
		"success": false,
		"error":   message,
	}
	if detail != "" && env.IsDev() {
		body["details"] = detail
	}
	return c.Status(status).JSON(body)
}

// billingError maps billing/pricing sentinel errors onto HTTP status codes.
func billingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, billing.ErrValidation),
		errors.Is(err, pricing.ErrUnsupportedCountry),
		errors.Is(err, pricing.ErrUnknownPlan):
		return jsonError(c, fiber.StatusBadRequest, err.Error(), "")
	case errors.Is(err, billing.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return jsonError(c, fiber.StatusNotFound, "not found", err.Error())
	case errors.Is(err, billing.ErrConflict):
		return jsonError(c, fiber.StatusConflict, "conflicting state", err.Error())
	case errors.Is(err, billing.ErrProcessor):
		return jsonError(c, fiber.StatusBadGateway, "payment processor error", err.Error())
	default:
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}
}

// GetClientIP determines the actual client IP address considering proxies.
func GetClientIP(c *fiber.Ctx) string {
	if cf := strings.TrimSpace(c.Get("CF-Connecting-IP")); cf != "" {
		return cf
	}
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	return c.IP()
}
