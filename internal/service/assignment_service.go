package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/capstone-portal-api/internal/dto"
	"github.com/noah-isme/capstone-portal-api/internal/models"
	"github.com/noah-isme/capstone-portal-api/internal/repository"
	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

var (
	// ErrAssignmentNotFound indicates the requested assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrInvalidAssignmentDueDate indicates an unparsable or past due date.
	ErrInvalidAssignmentDueDate = errors.New("assignment due date must be a future RFC3339 timestamp")
	// ErrDuplicateDeliverable indicates two deliverables would produce the same file name segment.
	ErrDuplicateDeliverable = errors.New("duplicate deliverable name")
	// ErrInvalidDeliverable indicates a deliverable name that sanitises to nothing.
	ErrInvalidDeliverable = errors.New("invalid deliverable name")
)

// AssignmentService exposes assignment domain use cases.
type AssignmentService interface {
	ListByCourse(ctx context.Context, courseID uint) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(repo repository.AssignmentRepository, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "assignment_service").Logger(),
		now:       time.Now,
	}
}

func (s *assignmentService) ListByCourse(ctx context.Context, courseID uint) ([]dto.AssignmentResponse, error) {
	assignments, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, ErrInvalidAssignmentDueDate
	}

	if !dueDate.After(s.now()) {
		return dto.AssignmentResponse{}, ErrInvalidAssignmentDueDate
	}

	assignment := models.Assignment{
		CourseID:    payload.CourseID,
		Title:       strings.TrimSpace(payload.Title),
		Description: payload.Description,
		DueDate:     dueDate,
	}

	seen := map[string]struct{}{}
	for idx, item := range payload.Deliverables {
		name := strings.TrimSpace(item.Name)
		// Deliverable names end up in generated file names.
		key := strings.ToLower(versioning.Sanitize(name))
		if key == "" {
			return dto.AssignmentResponse{}, fmt.Errorf("%w: %q has no usable characters", ErrInvalidDeliverable, item.Name)
		}
		if _, dup := seen[key]; dup {
			return dto.AssignmentResponse{}, fmt.Errorf("%w: %q", ErrDuplicateDeliverable, item.Name)
		}
		seen[key] = struct{}{}

		types := make([]versioning.AllowedFileType, 0, len(item.AllowedFileTypes))
		for _, allowed := range item.AllowedFileTypes {
			types = append(types, versioning.AllowedFileType{
				Type: strings.TrimSpace(allowed.Type),
				MIME: versioning.NormalizeMIME(allowed.MIME),
			})
		}

		deliverable := models.Deliverable{Name: name, Position: idx + 1}
		deliverable.SetAllowedTypes(types)
		assignment.Deliverables = append(assignment.Deliverables, deliverable)
	}

	if err := s.repo.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Int("deliverables", len(assignment.Deliverables)).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}
