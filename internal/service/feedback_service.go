package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/capstone-portal-api/internal/dto"
	"github.com/noah-isme/capstone-portal-api/internal/models"
	"github.com/noah-isme/capstone-portal-api/internal/observability"
	"github.com/noah-isme/capstone-portal-api/internal/repository"
	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

var (
	// ErrFeedbackClosed indicates the latest version already carries feedback.
	ErrFeedbackClosed = errors.New("feedback already given, awaiting new version")
	// ErrNotLatestVersion indicates feedback aimed at a superseded version.
	ErrNotLatestVersion = errors.New("feedback is only accepted on the latest version")
	// ErrInvalidFeedbackStatus indicates a status a reviewer cannot assign.
	ErrInvalidFeedbackStatus = errors.New("invalid feedback status")
	// ErrInvalidDueDate indicates an unparsable or past extension date.
	ErrInvalidDueDate = errors.New("invalid new due date")
)

// FeedbackService records reviewer responses to submission versions.
type FeedbackService interface {
	Give(ctx context.Context, submissionID uint, payload dto.FeedbackCreateRequest, files DeliverableUploads) (dto.FeedbackCreatedResponse, error)
}

type feedbackService struct {
	submissions repository.SubmissionRepository
	uploads     UploadService
	events      EventPublisher
	invalidator CacheInvalidator
	validator   *validator.Validate
	policy      *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewFeedbackService constructs a FeedbackService instance.
func NewFeedbackService(
	subRepo repository.SubmissionRepository,
	uploads UploadService,
	events EventPublisher,
	invalidator CacheInvalidator,
	validate *validator.Validate,
	logger zerolog.Logger,
) FeedbackService {
	return &feedbackService{
		submissions: subRepo,
		uploads:     uploads,
		events:      events,
		invalidator: invalidator,
		validator:   validate,
		policy:      bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "feedback_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/capstone-portal-api/internal/service/feedback"),
		now:         time.Now,
	}
}

func (s *feedbackService) Give(ctx context.Context, submissionID uint, payload dto.FeedbackCreateRequest, files DeliverableUploads) (dto.FeedbackCreatedResponse, error) {
	ctx, span := s.tracer.Start(ctx, "feedback.give")
	defer span.End()
	span.SetAttributes(attribute.Int("submission.id", int(submissionID)))

	response, err := s.give(ctx, submissionID, payload, files)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "feedback rejected")
		return dto.FeedbackCreatedResponse{}, err
	}

	observability.FeedbackGiven().WithLabelValues(response.Status).Inc()
	span.SetStatus(codes.Ok, "stored")
	return response, nil
}

func (s *feedbackService) give(ctx context.Context, submissionID uint, payload dto.FeedbackCreateRequest, files DeliverableUploads) (dto.FeedbackCreatedResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FeedbackCreatedResponse{}, err
	}

	status, err := versioning.ParseStatus(payload.Status)
	if err != nil || !status.IsFeedbackOutcome() {
		return dto.FeedbackCreatedResponse{}, fmt.Errorf("%w: %s", ErrInvalidFeedbackStatus, payload.Status)
	}

	var newDueDate *time.Time
	if strings.TrimSpace(payload.NewDueDate) != "" {
		parsed, err := time.Parse(time.RFC3339, payload.NewDueDate)
		if err != nil || !parsed.After(s.now()) {
			return dto.FeedbackCreatedResponse{}, ErrInvalidDueDate
		}
		newDueDate = &parsed
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FeedbackCreatedResponse{}, ErrSubmissionNotFound
		}
		return dto.FeedbackCreatedResponse{}, err
	}

	siblings, err := s.submissions.ListByAssignmentAndGroup(ctx, submission.AssignmentID, submission.GroupID)
	if err != nil {
		return dto.FeedbackCreatedResponse{}, err
	}
	history := models.SubmissionsToVersioning(siblings)

	latest := versioning.LatestOf(history)
	if latest == nil || latest.ID != strconv.FormatUint(uint64(submission.ID), 10) {
		return dto.FeedbackCreatedResponse{}, ErrNotLatestVersion
	}
	if err := gateError(versioning.GateFor(latest)); err != nil {
		return dto.FeedbackCreatedResponse{}, err
	}

	stored, err := storeDeliverableFiles(ctx, s.uploads, submission.Assignment, files, payload.AuthorID, false,
		func(deliverable models.Deliverable, mime string) (string, error) {
			return versioning.EncodeFeedbackFileName(versioning.FileNameSpec{
				GroupNumber:     submission.Group.Number,
				DeliverableName: deliverable.Name,
				Version:         strconv.Itoa(submission.Version),
				MIME:            mime,
				Username:        payload.AuthorName,
			})
		})
	if err != nil {
		return dto.FeedbackCreatedResponse{}, err
	}

	feedback := models.Feedback{
		SubmissionID: submission.ID,
		AuthorID:     payload.AuthorID,
		AuthorName:   payload.AuthorName,
		Comment:      strings.TrimSpace(s.policy.Sanitize(payload.Comment)),
		Status:       string(status),
		NewDueDate:   newDueDate,
	}
	for _, entry := range stored {
		file := models.FeedbackFile{
			DeliverableID: deliverableIDPtr(entry.deliverable.ID),
			Name:          entry.displayName(),
		}
		file.SetURLs(entry.urls)
		feedback.Files = append(feedback.Files, file)
	}

	if err := s.submissions.AddFeedback(ctx, &feedback); err != nil {
		s.uploads.Discard(ctx, storedURLs(stored))
		switch {
		case errors.Is(err, repository.ErrAlreadyReviewed):
			return dto.FeedbackCreatedResponse{}, ErrFeedbackClosed
		case errors.Is(err, repository.ErrSupersededVersion):
			return dto.FeedbackCreatedResponse{}, ErrNotLatestVersion
		}
		return dto.FeedbackCreatedResponse{}, err
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, submission.GroupID)
	}
	publishEvent(ctx, s.events, s.logger, EventFeedbackGiven, SubmissionEvent{
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		GroupID:      submission.GroupID,
		Version:      submission.Version,
		Status:       feedback.Status,
		ActorID:      payload.AuthorID,
		OccurredAt:   s.now(),
	})

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("feedback_id", feedback.ID).
		Str("status", feedback.Status).
		Msg("feedback given")

	for i := range history {
		if history[i].ID == latest.ID {
			history[i].Status = status
			history[i].Feedbacks = append(history[i].Feedbacks, feedback.ToVersioning())
		}
	}

	converted := feedback.ToVersioning()
	return dto.FeedbackCreatedResponse{
		ID:           feedback.ID,
		SubmissionID: submission.ID,
		Version:      submission.Version,
		Status:       feedback.Status,
		Comment:      feedback.Comment,
		NewDueDate:   feedback.NewDueDate,
		Files:        dto.NewAttachmentResponses(converted.Files),
		Timeline:     dto.NewSubmissionTimelineResponse(versioning.RoleAdvisor, history, false),
	}, nil
}

func gateError(gate versioning.ReviewGate) error {
	switch gate {
	case versioning.GateOpen:
		return nil
	case versioning.GateFinalized:
		return ErrSubmissionFinalized
	case versioning.GateAwaitingNewVersion:
		return ErrFeedbackClosed
	default:
		return ErrSubmissionNotFound
	}
}
