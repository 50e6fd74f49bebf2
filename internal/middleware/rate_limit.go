package middleware

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/capstone-portal-api/internal/utils"
)

// RateLimit throttles turn-ins per group and assignment, so every member of a
// group draws from one budget. Requests without that scope fall back to the
// caller's user id and then to the client IP.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:          max,
		Expiration:   window,
		KeyGenerator: func(c *fiber.Ctx) string { return identifier + ":" + turnInScope(c) },
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many turn-ins, retry later")
		},
	})
}

func turnInScope(c *fiber.Ctx) string {
	assignment := scopeValue(c, "assignment_id")
	group := scopeValue(c, "group_id")
	if assignment != "" && group != "" {
		return fmt.Sprintf("assignment-%s:group-%s", assignment, group)
	}
	if id, ok := c.Locals("user_id").(uint); ok && id != 0 {
		return "user-" + strconv.FormatUint(uint64(id), 10)
	}
	return "ip-" + c.IP()
}

// scopeValue reads a positive id from the query string or the form body.
func scopeValue(c *fiber.Ctx, key string) string {
	value := strings.TrimSpace(c.FormValue(key))
	if id, err := strconv.ParseUint(value, 10, 64); err == nil && id > 0 {
		return strconv.FormatUint(id, 10)
	}
	return ""
}
