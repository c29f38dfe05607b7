package controllers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	app.Post("/api/payu/create-payment", HandleCreatePayment)
	app.Get("/api/payu/create-payment", HandlePaymentStatus)
	app.Post("/api/test/activate-subscription", HandleActivateSubscription)
	return app
}

func TestCreatePaymentRequiresLogin(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("POST", "/api/payu/create-payment",
		strings.NewReader(`{"planId":"basico"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestPaymentStatusRequiresSelector(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("GET", "/api/payu/create-payment", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestActivateSubscriptionRejectsWrongTestCode(t *testing.T) {
	app := newTestApp()

	for _, body := range []string{
		`{"email":"qa@example.com","planId":"basico","testCode":"NOPE"}`,
		`{"email":"qa@example.com","planId":"basico"}`,
		`{"email":"qa@example.com","planId":"basico","testCode":"prueba"}`,
	} {
		req := httptest.NewRequest("POST", "/api/test/activate-subscription",
			strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "body: %s", body)
	}
}

func TestActivateSubscriptionRequiresIdentityAndPlan(t *testing.T) {
	app := newTestApp()

	for _, body := range []string{
		`{"planId":"basico","testCode":"PRUEBA"}`,
		`{"email":"qa@example.com","testCode":"PRUEBA"}`,
	} {
		req := httptest.NewRequest("POST", "/api/test/activate-subscription",
			strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "body: %s", body)
	}
}

func TestGetClientIP(t *testing.T) {
	app := fiber.New()
	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		got = GetClientIP(c)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("CF-Connecting-IP", "203.0.113.7")
	_, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", got)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	_, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "198.51.100.4", got)
}
