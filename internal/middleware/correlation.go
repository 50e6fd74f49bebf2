package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	correlationHeader   = "X-Correlation-ID"
	correlationLocal    = "correlation_id"
	maxCorrelationIDLen = 64
)

type correlationIDKey struct{}

// CorrelationID tags each request with an id taken from X-Correlation-ID or
// X-Request-ID. Ids that are too long or carry characters outside
// [A-Za-z0-9._-] are replaced with a fresh UUID before they reach the logs.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := ""
		for _, header := range []string{correlationHeader, fiber.HeaderXRequestID} {
			if candidate := strings.TrimSpace(c.Get(header)); validCorrelationID(candidate) {
				id = candidate
				break
			}
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(correlationLocal, id)
		c.Set(correlationHeader, id)
		c.SetUserContext(context.WithValue(c.UserContext(), correlationIDKey{}, id))

		return c.Next()
	}
}

func validCorrelationID(id string) bool {
	if id == "" || len(id) > maxCorrelationIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}

// CorrelationIDFromContext returns the id stored by CorrelationID, if any.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// GetCorrelationID returns the correlation id bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(correlationLocal).(string); ok {
		return id
	}
	return CorrelationIDFromContext(c.UserContext())
}
