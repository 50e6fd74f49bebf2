package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/capstone-portal-api/internal/service"
	"github.com/noah-isme/capstone-portal-api/internal/utils"
)

// GroupDashboardHandler serves the per-group progress overview.
type GroupDashboardHandler struct {
	service service.GroupDashboardService
	logger  zerolog.Logger
}

// NewGroupDashboardHandler constructs the dashboard handler.
func NewGroupDashboardHandler(service service.GroupDashboardService, logger zerolog.Logger) *GroupDashboardHandler {
	return &GroupDashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "group_dashboard_handler").Logger(),
	}
}

// Register wires dashboard routes under a groups group.
func (h *GroupDashboardHandler) Register(router fiber.Router) {
	router.Get("/:id/dashboard", h.get)
}

func (h *GroupDashboardHandler) get(c *fiber.Ctx) error {
	groupID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	dashboard, err := h.service.Get(c.Context(), groupID)
	if err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "group not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("group_id", groupID).Msg("failed to load group dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load dashboard")
	}

	if dashboard.CacheHit {
		c.Set("X-Cache-Hit", "true")
	} else {
		c.Set("X-Cache-Hit", "false")
	}

	return utils.OK(c, dashboard, "group dashboard retrieved", fiber.Map{"cache_hit": dashboard.CacheHit})
}
