package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/capstone-portal-api/internal/models"
)

// AnnouncementFilter filters announcement list queries.
type AnnouncementFilter struct {
	CourseID uint
	Page     int
	PageSize int
}

// AnnouncementRepository exposes persistence helpers for course announcements.
type AnnouncementRepository interface {
	ListActive(ctx context.Context, filter AnnouncementFilter) ([]models.Announcement, int64, error)
	Create(ctx context.Context, announcement *models.Announcement) error
}

type announcementRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAnnouncementRepository constructs the repository implementation.
func NewAnnouncementRepository(db *gorm.DB) AnnouncementRepository {
	return &announcementRepository{db: db, now: time.Now}
}

func (r *announcementRepository) ListActive(ctx context.Context, filter AnnouncementFilter) ([]models.Announcement, int64, error) {
	now := r.now()
	query := r.db.WithContext(ctx).Model(&models.Announcement{}).Where("course_id = ?", filter.CourseID)
	query = query.Where("is_pinned = ? OR (starts_at <= ? AND (ends_at IS NULL OR ends_at >= ?))", true, now, now)

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var items []models.Announcement
	if err := query.Order("is_pinned DESC, starts_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *announcementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	return r.db.WithContext(ctx).Create(announcement).Error
}
