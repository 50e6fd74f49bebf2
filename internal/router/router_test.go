package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/capstone-portal-api/internal/config"
)

func TestRegisterHealthAndMetrics(t *testing.T) {
	app := fiber.New()
	Register(app, config.Config{AppName: "Capstone Portal API", AppEnv: "test"}, Dependencies{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "Capstone Portal API", resp.Header.Get("X-Application"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRegisterGuardsMetricsWithToken(t *testing.T) {
	app := fiber.New()
	Register(app, config.Config{AppName: "Capstone Portal API", MetricsToken: "scrape-secret"}, Dependencies{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterAppliesJWTMiddleware(t *testing.T) {
	app := fiber.New()
	Register(app, config.Config{AppName: "Capstone Portal API"}, Dependencies{
		JWTMiddleware: func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusUnauthorized) },
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/groups/1/dashboard", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
