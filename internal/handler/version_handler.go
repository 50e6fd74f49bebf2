package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/capstone-portal-api/internal/dto"
	"github.com/noah-isme/capstone-portal-api/internal/service"
	"github.com/noah-isme/capstone-portal-api/internal/utils"
)

// VersionHandler exposes the stateless file naming and version resolution helpers.
type VersionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewVersionHandler constructs a version handler.
func NewVersionHandler(service service.SubmissionService, logger zerolog.Logger) *VersionHandler {
	return &VersionHandler{
		service: service,
		logger:  logger.With().Str("component", "version_handler").Logger(),
	}
}

// Register wires the preview and resolve routes.
func (h *VersionHandler) Register(router fiber.Router) {
	router.Get("/filenames/preview", h.previewFileName)
	router.Post("/versions/resolve", h.resolve)
}

func (h *VersionHandler) previewFileName(c *fiber.Ctx) error {
	var payload dto.FileNamePreviewRequest
	if err := c.QueryParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	result, err := h.service.PreviewFileName(c.Context(), payload)
	if err != nil {
		return respondSubmissionError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "file name generated", result)
}

func (h *VersionHandler) resolve(c *fiber.Ctx) error {
	var query dto.ResolveQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}
	if query.Role == "" {
		query.Role = userRoleFromContext(c)
	}

	body := c.Body()
	if len(body) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "request body is required")
	}

	result, err := h.service.Resolve(c.Context(), append([]byte(nil), body...), query)
	if err != nil {
		return respondSubmissionError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "versions resolved", result)
}
