package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/capstone-portal-api/internal/utils"
	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

// RequireRole admits callers whose role claim is one of roles. A missing claim
// is rejected rather than treated as a student.
func RequireRole(roles ...versioning.ViewerRole) fiber.Handler {
	allowed := make(map[versioning.ViewerRole]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		if _, dup := allowed[role]; dup {
			continue
		}
		allowed[role] = struct{}{}
		names = append(names, string(role))
	}
	denied := "requires role " + strings.Join(names, " or ")

	return func(c *fiber.Ctx) error {
		role, ok := ViewerRoleFrom(c)
		if !ok {
			return utils.SendError(c, fiber.StatusForbidden, "role claim missing")
		}
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, denied)
		}
		return c.Next()
	}
}

// RequireReviewer admits advisors, staff and admins.
func RequireReviewer() fiber.Handler {
	return RequireRole(versioning.RoleAdvisor, versioning.RoleStaff, versioning.RoleAdmin)
}

// ViewerRoleFrom reads the caller's role claim. Unrecognised claims map to the
// student role.
func ViewerRoleFrom(c *fiber.Ctx) (versioning.ViewerRole, bool) {
	raw, _ := c.Locals("user_role").(string)
	if strings.TrimSpace(raw) == "" {
		return "", false
	}
	return versioning.ParseViewerRole(raw), true
}
