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
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrGroupNotFound indicates the group does not exist.
	ErrGroupNotFound = errors.New("group not found")
	// ErrSubmissionFinalized indicates the latest version is FINAL and closes the assignment.
	ErrSubmissionFinalized = errors.New("submission already approved")
	// ErrSubmissionPastDue indicates the effective due date has passed.
	ErrSubmissionPastDue = errors.New("assignment is past due")
	// ErrNoFiles indicates a turn-in without any deliverable file.
	ErrNoFiles = errors.New("at least one deliverable file is required")
	// ErrUnknownDeliverable indicates a file targets a deliverable outside the assignment.
	ErrUnknownDeliverable = errors.New("deliverable does not belong to assignment")
	// ErrFileTypeNotAccepted indicates the file does not match the deliverable's allowed types.
	ErrFileTypeNotAccepted = errors.New("file type not accepted for deliverable")
	// ErrDuplicateFileType indicates two files of one extension for the same deliverable.
	ErrDuplicateFileType = errors.New("duplicate file type for deliverable")
	// ErrVersionConflict indicates a concurrent turn-in claimed the same version.
	ErrVersionConflict = errors.New("another version was submitted concurrently")
)

// SubmissionService orchestrates versioned submission workflows.
type SubmissionService interface {
	TurnIn(ctx context.Context, payload dto.SubmissionTurnInRequest, files DeliverableUploads) (dto.SubmissionVersionResponse, error)
	List(ctx context.Context, query dto.SubmissionQuery) ([]dto.SubmissionVersionResponse, error)
	Latest(ctx context.Context, query dto.SubmissionQuery) (dto.SubmissionVersionResponse, error)
	Timeline(ctx context.Context, query dto.SubmissionQuery) (dto.SubmissionTimelineResponse, error)
	Files(ctx context.Context, submissionID uint) (dto.SubmissionFilesResponse, error)
	PreviewFileName(ctx context.Context, payload dto.FileNamePreviewRequest) (dto.FileNamePreviewResponse, error)
	Resolve(ctx context.Context, raw []byte, query dto.ResolveQuery) (dto.SubmissionTimelineResponse, error)
}

// CacheInvalidator drops cached views derived from a group's submissions.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, groupID uint)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	groups      repository.GroupRepository
	uploads     UploadService
	events      EventPublisher
	invalidator CacheInvalidator
	validator   *validator.Validate
	policy      *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	groupRepo repository.GroupRepository,
	uploads UploadService,
	events EventPublisher,
	invalidator CacheInvalidator,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		assignments: assignmentRepo,
		groups:      groupRepo,
		uploads:     uploads,
		events:      events,
		invalidator: invalidator,
		validator:   validate,
		policy:      bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/capstone-portal-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) TurnIn(ctx context.Context, payload dto.SubmissionTurnInRequest, files DeliverableUploads) (dto.SubmissionVersionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.turn_in")
	defer span.End()

	response, err := s.turnIn(ctx, span, payload, files)
	if err != nil {
		observability.TurnIns().WithLabelValues("rejected").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "turn-in failed")
		return dto.SubmissionVersionResponse{}, err
	}

	observability.TurnIns().WithLabelValues("stored").Inc()
	span.SetStatus(codes.Ok, "stored")
	return response, nil
}

func (s *submissionService) turnIn(ctx context.Context, span trace.Span, payload dto.SubmissionTurnInRequest, files DeliverableUploads) (dto.SubmissionVersionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionVersionResponse{}, err
	}
	if countFiles(files) == 0 {
		return dto.SubmissionVersionResponse{}, ErrNoFiles
	}

	span.SetAttributes(
		attribute.Int("submission.assignment_id", int(payload.AssignmentID)),
		attribute.Int("submission.group_id", int(payload.GroupID)),
	)

	assignment, group, err := s.loadScope(ctx, payload.AssignmentID, payload.GroupID)
	if err != nil {
		return dto.SubmissionVersionResponse{}, err
	}

	history, err := s.history(ctx, payload.AssignmentID, payload.GroupID)
	if err != nil {
		return dto.SubmissionVersionResponse{}, err
	}

	if latest := versioning.LatestOf(history); latest != nil && latest.Status == versioning.StatusFinal {
		return dto.SubmissionVersionResponse{}, ErrSubmissionFinalized
	}

	now := s.now()
	if now.After(effectiveDueDate(assignment, history)) {
		return dto.SubmissionVersionResponse{}, ErrSubmissionPastDue
	}

	version := versioning.NextVersion(history)
	span.SetAttributes(attribute.Int("submission.version", version))

	stored, err := storeDeliverableFiles(ctx, s.uploads, assignment, files, payload.SubmittedBy, true,
		func(deliverable models.Deliverable, mime string) (string, error) {
			return versioning.EncodeSubmissionFileName(versioning.FileNameSpec{
				GroupNumber:     group.Number,
				DeliverableName: deliverable.Name,
				Version:         strconv.Itoa(version),
				MIME:            mime,
			})
		})
	if err != nil {
		return dto.SubmissionVersionResponse{}, err
	}

	submission := models.Submission{
		AssignmentID: assignment.ID,
		GroupID:      group.ID,
		Version:      version,
		Status:       string(versioning.StatusSubmitted),
		Comment:      strings.TrimSpace(s.policy.Sanitize(payload.Comment)),
		SubmittedAt:  now,
		SubmittedBy:  payload.SubmittedBy,
	}
	for _, entry := range stored {
		file := models.SubmissionFile{
			DeliverableID: deliverableIDPtr(entry.deliverable.ID),
			Name:          entry.displayName(),
		}
		file.SetURLs(entry.urls)
		submission.Files = append(submission.Files, file)
	}

	if err := s.submissions.CreateVersion(ctx, &submission); err != nil {
		s.uploads.Discard(ctx, storedURLs(stored))
		switch {
		case errors.Is(err, repository.ErrSubmissionsClosed):
			return dto.SubmissionVersionResponse{}, ErrSubmissionFinalized
		case errors.Is(err, repository.ErrVersionConflict):
			return dto.SubmissionVersionResponse{}, ErrVersionConflict
		}
		return dto.SubmissionVersionResponse{}, err
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, group.ID)
	}
	publishEvent(ctx, s.events, s.logger, EventSubmissionTurnedIn, SubmissionEvent{
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		GroupID:      submission.GroupID,
		Version:      submission.Version,
		Status:       submission.Status,
		ActorID:      payload.SubmittedBy,
		OccurredAt:   now,
	})

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("group_id", group.ID).
		Int("version", submission.Version).
		Msg("submission turned in")

	return dto.NewSubmissionVersionResponse(submission.ToVersioning()), nil
}

func (s *submissionService) List(ctx context.Context, query dto.SubmissionQuery) ([]dto.SubmissionVersionResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}

	history, err := s.history(ctx, query.AssignmentID, query.GroupID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionVersionResponseSlice(versioning.SortVersions(history)), nil
}

func (s *submissionService) Latest(ctx context.Context, query dto.SubmissionQuery) (dto.SubmissionVersionResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.SubmissionVersionResponse{}, err
	}

	history, err := s.history(ctx, query.AssignmentID, query.GroupID)
	if err != nil {
		return dto.SubmissionVersionResponse{}, err
	}

	latest := versioning.LatestOf(history)
	if latest == nil {
		return dto.SubmissionVersionResponse{}, ErrSubmissionNotFound
	}

	return dto.NewSubmissionVersionResponse(*latest), nil
}

func (s *submissionService) Timeline(ctx context.Context, query dto.SubmissionQuery) (dto.SubmissionTimelineResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.SubmissionTimelineResponse{}, err
	}

	history, err := s.history(ctx, query.AssignmentID, query.GroupID)
	if err != nil {
		return dto.SubmissionTimelineResponse{}, err
	}

	role := versioning.ParseViewerRole(query.Role)
	return dto.NewSubmissionTimelineResponse(role, history, query.ShowAll), nil
}

func (s *submissionService) Files(ctx context.Context, submissionID uint) (dto.SubmissionFilesResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionFilesResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionFilesResponse{}, err
	}

	deliverables := submission.Assignment.VersioningDeliverables()
	converted := submission.ToVersioning()

	feedbacks := make([]dto.FeedbackFilesResponse, 0, len(converted.Feedbacks))
	for _, feedback := range converted.Feedbacks {
		feedbacks = append(feedbacks, dto.FeedbackFilesResponse{
			Status:       string(feedback.Status),
			Deliverables: dto.NewDeliverableFilesResponses(versioning.GroupByDeliverable(deliverables, feedback.Files)),
		})
	}

	return dto.SubmissionFilesResponse{
		SubmissionID: submission.ID,
		Version:      submission.Version,
		Deliverables: dto.NewDeliverableFilesResponses(versioning.GroupByDeliverable(deliverables, converted.Files)),
		Feedbacks:    feedbacks,
	}, nil
}

func (s *submissionService) PreviewFileName(ctx context.Context, payload dto.FileNamePreviewRequest) (dto.FileNamePreviewResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FileNamePreviewResponse{}, err
	}

	spec := versioning.FileNameSpec{
		GroupNumber:     payload.Group,
		DeliverableName: payload.Deliverable,
		Version:         payload.Version,
		MIME:            payload.MIME,
		Username:        payload.Username,
	}

	var (
		name string
		err  error
	)
	if strings.TrimSpace(payload.Username) != "" {
		name, err = versioning.EncodeFeedbackFileName(spec)
	} else {
		name, err = versioning.EncodeSubmissionFileName(spec)
	}
	if err != nil {
		return dto.FileNamePreviewResponse{}, err
	}

	ext := versioning.ExtensionFor(payload.MIME)
	return dto.FileNamePreviewResponse{
		FileName:  name,
		Extension: ext,
		MIME:      versioning.InferMimeType(name),
	}, nil
}

func (s *submissionService) Resolve(ctx context.Context, raw []byte, query dto.ResolveQuery) (dto.SubmissionTimelineResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.SubmissionTimelineResponse{}, err
	}

	history, err := versioning.DecodeSubmissions(raw)
	if err != nil {
		return dto.SubmissionTimelineResponse{}, err
	}

	return dto.NewSubmissionTimelineResponse(versioning.ParseViewerRole(query.Role), history, query.ShowAll), nil
}

func (s *submissionService) loadScope(ctx context.Context, assignmentID, groupID uint) (models.Assignment, models.Group, error) {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, models.Group{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, models.Group{}, err
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, models.Group{}, ErrGroupNotFound
		}
		return models.Assignment{}, models.Group{}, err
	}

	if group.CourseID != assignment.CourseID {
		return models.Assignment{}, models.Group{}, fmt.Errorf("%w: group %d is not enrolled in course %d", ErrGroupNotFound, group.ID, assignment.CourseID)
	}

	return assignment, group, nil
}

func (s *submissionService) history(ctx context.Context, assignmentID, groupID uint) ([]versioning.Submission, error) {
	submissions, err := s.submissions.ListByAssignmentAndGroup(ctx, assignmentID, groupID)
	if err != nil {
		return nil, err
	}
	return models.SubmissionsToVersioning(submissions), nil
}

func countFiles(files DeliverableUploads) int {
	total := 0
	for _, headers := range files {
		total += len(headers)
	}
	return total
}
