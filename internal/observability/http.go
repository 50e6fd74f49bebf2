package observability

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the portal collectors in the Prometheus or OpenMetrics
// text format. When token is set, scrapers must send it as a bearer token.
func MetricsHandler(token string) fiber.Handler {
	RegisterMetrics()

	scrape := adaptor.HTTPHandler(promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		}),
	))
	token = strings.TrimSpace(token)
	if token == "" {
		return scrape
	}

	expected := []byte("Bearer " + token)
	return func(c *fiber.Ctx) error {
		if subtle.ConstantTimeCompare([]byte(c.Get(fiber.HeaderAuthorization)), expected) != 1 {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		return scrape(c)
	}
}
