package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/capstone-portal-api/internal/dto"
	"github.com/noah-isme/capstone-portal-api/internal/models"
	"github.com/noah-isme/capstone-portal-api/internal/observability"
	"github.com/noah-isme/capstone-portal-api/internal/repository"
	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

// ErrInvalidAnnouncementWindow indicates unusable starts_at or ends_at values.
var ErrInvalidAnnouncementWindow = errors.New("invalid announcement window")

// AnnouncementService exposes course announcement operations.
type AnnouncementService interface {
	ListActive(ctx context.Context, courseID uint, page, pageSize int) (dto.AnnouncementListResponse, error)
	Create(ctx context.Context, courseID uint, payload dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error)
}

type announcementService struct {
	repo      repository.AnnouncementRepository
	cache     *redis.Client
	ttl       time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	policy    *bluemonday.Policy
	now       func() time.Time
}

// NewAnnouncementService constructs the announcement service.
func NewAnnouncementService(repo repository.AnnouncementRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) AnnouncementService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("p", "strong", "em", "a", "ul", "ol", "li", "br")
	policy.AllowAttrs("href", "title", "target").OnElements("a")
	return &announcementService{
		repo:      repo,
		cache:     cache,
		ttl:       ttl,
		validator: validate,
		logger:    logger.With().Str("component", "announcement_service").Logger(),
		policy:    policy,
		now:       time.Now,
	}
}

func announcementCachePrefix(courseID uint) string {
	return fmt.Sprintf("announcements:course:%d:", courseID)
}

func (s *announcementService) ListActive(ctx context.Context, courseID uint, page, pageSize int) (dto.AnnouncementListResponse, error) {
	page = maxInt(page, 1)
	pageSize = clampPageSize(pageSize)

	cacheKey := ""
	if s.cache != nil {
		cacheKey = fmt.Sprintf("%s%d:%d", announcementCachePrefix(courseID), page, pageSize)
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var response dto.AnnouncementListResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				observability.CacheLookups().WithLabelValues("announcements", "hit").Inc()
				return response, nil
			}
		}
		observability.CacheLookups().WithLabelValues("announcements", "miss").Inc()
	}

	items, total, err := s.repo.ListActive(ctx, repository.AnnouncementFilter{CourseID: courseID, Page: page, PageSize: pageSize})
	if err != nil {
		return dto.AnnouncementListResponse{}, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].IsPinned != items[j].IsPinned {
			return items[i].IsPinned
		}
		return items[i].StartsAt.After(items[j].StartsAt)
	})

	responses := make([]dto.AnnouncementResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, s.toResponse(item))
	}

	pagination := dto.PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
	}
	if pageSize > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	} else {
		pagination.TotalPages = 1
	}

	response := dto.AnnouncementListResponse{Items: responses, Pagination: pagination}

	if cacheKey != "" {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache announcements")
			}
		}
	}

	return response, nil
}

func (s *announcementService) Create(ctx context.Context, courseID uint, payload dto.AnnouncementCreateRequest) (dto.AnnouncementResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	startsAt := s.now()
	if payload.StartsAt != "" {
		parsed, err := time.Parse(time.RFC3339, payload.StartsAt)
		if err != nil {
			return dto.AnnouncementResponse{}, fmt.Errorf("%w: starts_at: %v", ErrInvalidAnnouncementWindow, err)
		}
		startsAt = parsed
	}

	var endsAt *time.Time
	if payload.EndsAt != "" {
		parsed, err := time.Parse(time.RFC3339, payload.EndsAt)
		if err != nil {
			return dto.AnnouncementResponse{}, fmt.Errorf("%w: ends_at: %v", ErrInvalidAnnouncementWindow, err)
		}
		if !parsed.After(startsAt) {
			return dto.AnnouncementResponse{}, fmt.Errorf("%w: ends_at must be after starts_at", ErrInvalidAnnouncementWindow)
		}
		endsAt = &parsed
	}

	title := strings.TrimSpace(payload.Title)
	announcement := models.Announcement{
		CourseID: courseID,
		AuthorID: payload.AuthorID,
		Slug:     announcementSlug(title),
		Title:    title,
		Body:     s.policy.Sanitize(payload.Body),
		StartsAt: startsAt,
		EndsAt:   endsAt,
		IsPinned: payload.IsPinned,
	}

	if err := s.repo.Create(ctx, &announcement); err != nil {
		return dto.AnnouncementResponse{}, err
	}

	s.flushCourse(ctx, courseID)
	s.logger.Info().Uint("announcement_id", announcement.ID).Uint("course_id", courseID).Msg("announcement created")

	return s.toResponse(announcement), nil
}

func (s *announcementService) flushCourse(ctx context.Context, courseID uint) {
	if s.cache == nil {
		return
	}
	iter := s.cache.Scan(ctx, 0, announcementCachePrefix(courseID)+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to flush announcements cache")
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to scan announcements cache")
	}
}

func (s *announcementService) toResponse(item models.Announcement) dto.AnnouncementResponse {
	return dto.AnnouncementResponse{
		ID:        item.ID,
		CourseID:  item.CourseID,
		Slug:      item.Slug,
		Title:     strings.TrimSpace(item.Title),
		Body:      s.policy.Sanitize(item.Body),
		StartsAt:  item.StartsAt,
		EndsAt:    item.EndsAt,
		IsPinned:  item.IsPinned,
		CreatedAt: item.CreatedAt,
	}
}

// announcementSlug appends a short random suffix so equal titles stay unique.
func announcementSlug(title string) string {
	base := strings.ToLower(versioning.Sanitize(title))
	base = strings.Trim(base, "-_")
	if base == "" {
		base = "announcement"
	}
	if len(base) > 96 {
		base = base[:96]
	}
	return base + "-" + uuid.NewString()[:8]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampPageSize(size int) int {
	if size <= 0 {
		return 20
	}
	if size > 100 {
		return 100
	}
	return size
}
