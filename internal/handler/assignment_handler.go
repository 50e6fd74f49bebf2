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

// AssignmentHandler wires assignment HTTP routes.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment endpoints to the router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Get("/:id", h.get)
	router.Post("", middleware.RequireRole(versioning.RoleStaff, versioning.RoleAdmin), h.create)
}

// RegisterCourseRoutes attaches the per-course assignment listing.
func (h *AssignmentHandler) RegisterCourseRoutes(router fiber.Router) {
	router.Get("/:id/assignments", h.listByCourse)
}

func (h *AssignmentHandler) listByCourse(c *fiber.Ctx) error {
	courseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignments, err := h.service.ListByCourse(c.Context(), courseID)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	assignment, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment payload")
	}

	assignment, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	if details, ok := validationDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrDuplicateDeliverable),
		errors.Is(err, service.ErrInvalidDeliverable),
		errors.Is(err, service.ErrInvalidAssignmentDueDate):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *AssignmentHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
