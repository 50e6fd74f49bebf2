package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/capstone-portal-api/internal/dto"
	"github.com/noah-isme/capstone-portal-api/internal/middleware"
	"github.com/noah-isme/capstone-portal-api/internal/service"
	"github.com/noah-isme/capstone-portal-api/internal/utils"
	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

// AnnouncementHandler handles course announcement endpoints.
type AnnouncementHandler struct {
	service service.AnnouncementService
	logger  zerolog.Logger
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(service service.AnnouncementService, logger zerolog.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{
		service: service,
		logger:  logger.With().Str("component", "announcement_handler").Logger(),
	}
}

// Register wires announcement routes under a courses group.
func (h *AnnouncementHandler) Register(router fiber.Router) {
	router.Get("/:id/announcements", h.list)
	router.Post("/:id/announcements", middleware.RequireRole(versioning.RoleStaff, versioning.RoleAdmin), h.create)
}

func (h *AnnouncementHandler) list(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	if page <= 0 {
		page = 1
	}
	pageSize, err := parseQueryInt(c, "pageSize")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	result, err := h.service.ListActive(c.Context(), courseID, page, pageSize)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list announcements")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list announcements")
	}

	if result.CacheHit {
		c.Set("X-Cache-Hit", "true")
	} else {
		c.Set("X-Cache-Hit", "false")
	}

	return utils.SendSuccess(c, "announcements retrieved", result)
}

func (h *AnnouncementHandler) create(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AnnouncementCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid announcement payload")
	}
	payload.AuthorID = userIDFromContext(c)

	result, err := h.service.Create(c.Context(), courseID, payload)
	if err != nil {
		if details, ok := validationDetails(err); ok {
			return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
		}
		if errors.Is(err, service.ErrInvalidAnnouncementWindow) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create announcement")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create announcement")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "announcement created", result)
}
