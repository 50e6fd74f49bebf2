package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/capstone-portal-api/internal/models"
)

// UploadRepository tracks the files stored for turn-ins and feedback.
type UploadRepository interface {
	Create(ctx context.Context, record *models.UploadRecord) error
	// DeleteByURLs drops the records of files that never made it into a version.
	DeleteByURLs(ctx context.Context, urls []string) (int64, error)
}

type uploadRepository struct {
	db *gorm.DB
}

// NewUploadRepository constructs a repository for upload records.
func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(ctx context.Context, record *models.UploadRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *uploadRepository) DeleteByURLs(ctx context.Context, urls []string) (int64, error) {
	if len(urls) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("url IN ?", urls).Delete(&models.UploadRecord{})
	return result.RowsAffected, result.Error
}
