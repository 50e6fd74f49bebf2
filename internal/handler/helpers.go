package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/capstone-portal-api/internal/middleware"
	"github.com/noah-isme/capstone-portal-api/internal/service"
)

// deliverableFieldPrefix marks multipart file fields as "deliverable_<id>".
const deliverableFieldPrefix = "deliverable_"

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func userNameFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_name"); v != nil {
		if name, ok := v.(string); ok {
			return strings.TrimSpace(name)
		}
	}
	return ""
}

// deliverableUploads collects "deliverable_<id>" multipart fields. A request that is
// not multipart yields an empty set.
func deliverableUploads(c *fiber.Ctx) (service.DeliverableUploads, error) {
	uploads := service.DeliverableUploads{}
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		return uploads, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	for field, headers := range form.File {
		if !strings.HasPrefix(field, deliverableFieldPrefix) {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimPrefix(field, deliverableFieldPrefix), 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid file field %q", field)
		}
		uploads[uint(id)] = append(uploads[uint(id)], headers...)
	}

	return uploads, nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// validationDetails maps each failing field to the rule it broke.
func validationDetails(err error) (map[string]string, bool) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, false
	}
	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details, true
}
