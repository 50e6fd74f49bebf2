package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/capstone-portal-api/internal/models"
)

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	ListByCourse(ctx context.Context, courseID uint) ([]models.Assignment, error)
	GetByID(ctx context.Context, id uint) (models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Assignment{}).
		Preload("Deliverables", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		})
}

func (r *assignmentRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := r.baseQuery(ctx).
		Where("course_id = ?", courseID).
		Order("due_date ASC, id ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.baseQuery(ctx).First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}
