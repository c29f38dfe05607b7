package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresvl/aulaviva/internal/pkg/usercontext"
)

func newGuardedApp(guard fiber.Handler, ctx *usercontext.UserContext) *fiber.App {
	app := fiber.New()
	if ctx != nil {
		app.Use(func(c *fiber.Ctx) error {
			c.Locals("USER_CONTEXT", *ctx)
			return c.Next()
		})
	}
	app.Get("/guarded", guard, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireAuth(t *testing.T) {
	app := newGuardedApp(RequireAuth, nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	app = newGuardedApp(RequireAuth, &usercontext.UserContext{UserID: 7, IsLoggedIn: true})
	resp, err = app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAdmin(t *testing.T) {
	app := newGuardedApp(RequireAdmin, nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	app = newGuardedApp(RequireAdmin, &usercontext.UserContext{UserID: 7, IsLoggedIn: true})
	resp, err = app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	app = newGuardedApp(RequireAdmin, &usercontext.UserContext{UserID: 7, IsLoggedIn: true, IsAdmin: true})
	resp, err = app.Test(httptest.NewRequest("GET", "/guarded", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
