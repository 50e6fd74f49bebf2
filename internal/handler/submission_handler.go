package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/capstone-portal-api/internal/dto"
	"github.com/noah-isme/capstone-portal-api/internal/middleware"
	"github.com/noah-isme/capstone-portal-api/internal/service"
	"github.com/noah-isme/capstone-portal-api/internal/utils"
	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

// SubmissionHandler exposes the submission version history and reviewer feedback.
type SubmissionHandler struct {
	submissions service.SubmissionService
	feedback    service.FeedbackService
	logger      zerolog.Logger
}

// NewSubmissionHandler constructs a submission handler.
func NewSubmissionHandler(submissions service.SubmissionService, feedback service.FeedbackService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		feedback:    feedback,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register wires the submission routes. turnInGuards run before a new version is accepted.
func (h *SubmissionHandler) Register(router fiber.Router, turnInGuards ...fiber.Handler) {
	turnIn := append(append([]fiber.Handler{}, turnInGuards...), h.turnIn)
	router.Post("", turnIn...)
	router.Get("", h.list)
	router.Get("/latest", h.latest)
	router.Get("/timeline", h.timeline)
	router.Get("/:id/files", h.files)
	router.Post("/:id/feedback", middleware.RequireReviewer(), h.giveFeedback)
}

func (h *SubmissionHandler) turnIn(c *fiber.Ctx) error {
	var payload dto.SubmissionTurnInRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission payload")
	}
	payload.SubmittedBy = userIDFromContext(c)

	files, err := deliverableUploads(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.submissions.TurnIn(c.Context(), payload, files)
	if err != nil {
		return h.handleError(c, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("assignment_id", payload.AssignmentID).
		Uint("group_id", payload.GroupID).
		Int("version", result.Version).
		Msg("submission turned in")

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission turned in", result)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	query, err := h.parseQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	items, err := h.submissions.List(c.Context(), query)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", items)
}

func (h *SubmissionHandler) latest(c *fiber.Ctx) error {
	query, err := h.parseQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	item, err := h.submissions.Latest(c.Context(), query)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "latest submission retrieved", item)
}

func (h *SubmissionHandler) timeline(c *fiber.Ctx) error {
	query, err := h.parseQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	timeline, err := h.submissions.Timeline(c.Context(), query)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission timeline retrieved", timeline)
}

func (h *SubmissionHandler) files(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	files, err := h.submissions.Files(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission files retrieved", files)
}

func (h *SubmissionHandler) giveFeedback(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FeedbackCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid feedback payload")
	}
	payload.AuthorID = userIDFromContext(c)
	payload.AuthorName = userNameFromContext(c)

	files, err := deliverableUploads(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.feedback.Give(c.Context(), id, payload, files)
	if err != nil {
		return h.handleError(c, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("submission_id", id).
		Str("status", result.Status).
		Msg("feedback recorded")

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "feedback recorded", result)
}

func (h *SubmissionHandler) parseQuery(c *fiber.Ctx) (dto.SubmissionQuery, error) {
	var query dto.SubmissionQuery
	if err := c.QueryParser(&query); err != nil {
		return dto.SubmissionQuery{}, err
	}
	query.Role = userRoleFromContext(c)
	return query, nil
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	return respondSubmissionError(c, h.logger, err)
}

// respondSubmissionError maps submission and feedback failures onto HTTP responses.
func respondSubmissionError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	if details, ok := validationDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	var invalid *versioning.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		return utils.Fail(c, fiber.StatusBadRequest, invalid.Error(), map[string]string{invalid.Field: "invalid"})
	case errors.Is(err, versioning.ErrInvalidPayload):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrGroupNotFound),
		errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSubmissionFinalized),
		errors.Is(err, service.ErrFeedbackClosed),
		errors.Is(err, service.ErrNotLatestVersion),
		errors.Is(err, service.ErrVersionConflict):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSubmissionPastDue):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrNoFiles),
		errors.Is(err, service.ErrUnknownDeliverable),
		errors.Is(err, service.ErrFileTypeNotAccepted),
		errors.Is(err, service.ErrDuplicateFileType),
		errors.Is(err, service.ErrUploadTypeNotAllowed),
		errors.Is(err, service.ErrUploadScanFailed),
		errors.Is(err, service.ErrUploadMissing),
		errors.Is(err, service.ErrInvalidFeedbackStatus),
		errors.Is(err, service.ErrInvalidDueDate):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Str("path", strings.TrimSpace(c.Path())).Msg("submission request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to process submission request")
	}
}
