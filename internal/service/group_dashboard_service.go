package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/capstone-portal-api/internal/dto"
	"github.com/noah-isme/capstone-portal-api/internal/models"
	"github.com/noah-isme/capstone-portal-api/internal/observability"
	"github.com/noah-isme/capstone-portal-api/internal/repository"
	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

// GroupDashboardService produces the per-group progress overview.
type GroupDashboardService interface {
	Get(ctx context.Context, groupID uint) (dto.GroupDashboardResponse, error)
	Invalidate(ctx context.Context, groupID uint)
}

type groupDashboardService struct {
	groups      repository.GroupRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGroupDashboardService builds the dashboard aggregator.
func NewGroupDashboardService(groups repository.GroupRepository, assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) GroupDashboardService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &groupDashboardService{
		groups:      groups,
		assignments: assignments,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "group_dashboard_service").Logger(),
		now:         time.Now,
	}
}

func dashboardCacheKey(groupID uint) string {
	return fmt.Sprintf("dashboard:group:%d", groupID)
}

func (s *groupDashboardService) Get(ctx context.Context, groupID uint) (dto.GroupDashboardResponse, error) {
	cacheKey := dashboardCacheKey(groupID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.GroupDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.CacheLookups().WithLabelValues("dashboard", "hit").Inc()
				s.logger.Debug().Uint("group_id", groupID).Msg("dashboard cache hit")
				response.CacheHit = true
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
		observability.CacheLookups().WithLabelValues("dashboard", "miss").Inc()
	}

	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GroupDashboardResponse{}, ErrGroupNotFound
		}
		return dto.GroupDashboardResponse{}, err
	}

	assignments, err := s.assignments.ListByCourse(ctx, group.CourseID)
	if err != nil {
		return dto.GroupDashboardResponse{}, err
	}

	submissions, err := s.submissions.ListByGroup(ctx, groupID)
	if err != nil {
		return dto.GroupDashboardResponse{}, err
	}

	response := s.buildResponse(group, assignments, submissions)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *groupDashboardService) Invalidate(ctx context.Context, groupID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, dashboardCacheKey(groupID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("group_id", groupID).Msg("failed to invalidate dashboard cache")
	}
}

func (s *groupDashboardService) buildResponse(group models.Group, assignments []models.Assignment, submissions []models.Submission) dto.GroupDashboardResponse {
	now := s.now()
	byAssignment := map[uint][]models.Submission{}
	for _, submission := range submissions {
		byAssignment[submission.AssignmentID] = append(byAssignment[submission.AssignmentID], submission)
	}

	summary := dto.GroupDashboardSummary{}
	progress := make([]dto.AssignmentProgress, 0, len(assignments))

	for _, assignment := range assignments {
		summary.TotalAssignments++
		history := models.SubmissionsToVersioning(byAssignment[assignment.ID])
		latest := versioning.LatestOf(history)
		dueDate := effectiveDueDate(assignment, history)

		item := dto.AssignmentProgress{
			AssignmentID: assignment.ID,
			Title:        assignment.Title,
			DueDate:      dueDate,
			Status:       string(versioning.StatusNotSubmitted),
			VersionCount: len(history),
		}

		if latest == nil {
			summary.NotSubmitted++
			item.Overdue = now.After(dueDate)
		} else {
			item.Status = string(latest.Status)
			item.LatestVersion = latest.Version
			item.FeedbackComment = latest.FeedbackComment()
			submittedAt := latest.SubmittedAt
			item.SubmittedAt = &submittedAt
			for _, submission := range byAssignment[assignment.ID] {
				if submission.Version == latest.Version {
					id := submission.ID
					item.SubmissionID = &id
					break
				}
			}

			switch {
			case latest.Status == versioning.StatusFinal:
				summary.Final++
				item.Final = true
			case versioning.AwaitingReview(latest):
				summary.AwaitingReview++
				item.AwaitingReview = true
			default:
				summary.NeedsRevision++
				item.Overdue = now.After(dueDate)
			}
		}

		if item.Overdue {
			summary.Overdue++
		}
		progress = append(progress, item)
	}

	if summary.TotalAssignments > 0 {
		summary.CompletionRate = (float64(summary.Final) / float64(summary.TotalAssignments)) * 100
	}

	return dto.GroupDashboardResponse{
		GroupID:     group.ID,
		GroupNumber: group.Number,
		GroupName:   group.Name,
		Summary:     summary,
		Assignments: progress,
	}
}
