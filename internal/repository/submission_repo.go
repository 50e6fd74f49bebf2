package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/capstone-portal-api/internal/models"
	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

var (
	// ErrSubmissionsClosed indicates the latest version is already FINAL.
	ErrSubmissionsClosed = errors.New("submissions closed for this assignment")
	// ErrAlreadyReviewed indicates the submission already carries feedback.
	ErrAlreadyReviewed = errors.New("submission already reviewed")
	// ErrSupersededVersion indicates a newer version exists for the same group.
	ErrSupersededVersion = errors.New("submission superseded by a newer version")
	// ErrVersionConflict indicates another turn-in claimed the requested version first.
	ErrVersionConflict = errors.New("submission version already taken")
)

// SubmissionRepository defines data operations for versioned submissions.
type SubmissionRepository interface {
	ListByAssignmentAndGroup(ctx context.Context, assignmentID, groupID uint) ([]models.Submission, error)
	ListByGroup(ctx context.Context, groupID uint) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	CreateVersion(ctx context.Context, submission *models.Submission) error
	AddFeedback(ctx context.Context, feedback *models.Feedback) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Files").
		Preload("Feedbacks", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Feedbacks.Files")
}

func (r *submissionRepository) ListByAssignmentAndGroup(ctx context.Context, assignmentID, groupID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("assignment_id = ? AND group_id = ?", assignmentID, groupID).
		Order("version DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) ListByGroup(ctx context.Context, groupID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.baseQuery(ctx).
		Where("group_id = ?", groupID).
		Order("assignment_id ASC, version DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Preload("Assignment.Deliverables", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Group.Members").
		First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

// CreateVersion stores the submission with its files in one transaction. A zero
// Version is assigned the next number; a preset Version must be exactly the next one.
// The unique (assignment, group, version) index rejects concurrent turn-ins that raced
// past the check.
func (r *submissionRepository) CreateVersion(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest models.Submission
		err := tx.Where("assignment_id = ? AND group_id = ?", submission.AssignmentID, submission.GroupID).
			Order("version DESC").
			Limit(1).
			Find(&latest).Error
		if err != nil {
			return err
		}

		if latest.ID != 0 && latest.Status == string(versioning.StatusFinal) {
			return ErrSubmissionsClosed
		}

		next := latest.Version + 1
		if submission.Version != 0 && submission.Version != next {
			return ErrVersionConflict
		}
		submission.Version = next
		if err := tx.Omit("Assignment", "Group", "Feedbacks").Create(submission).Error; err != nil {
			// A concurrent insert of the same version trips the unique index.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrVersionConflict
			}
			return err
		}
		return nil
	})
}

// AddFeedback stores the feedback and applies its status to the submission. The
// submission must still be the newest version and must not carry feedback yet.
func (r *submissionRepository) AddFeedback(ctx context.Context, feedback *models.Feedback) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submission models.Submission
		if err := tx.First(&submission, feedback.SubmissionID).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.Feedback{}).Where("submission_id = ?", submission.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 || submission.Status == string(versioning.StatusFinal) {
			return ErrAlreadyReviewed
		}

		var newer int64
		if err := tx.Model(&models.Submission{}).
			Where("assignment_id = ? AND group_id = ? AND version > ?", submission.AssignmentID, submission.GroupID, submission.Version).
			Count(&newer).Error; err != nil {
			return err
		}
		if newer > 0 {
			return ErrSupersededVersion
		}

		if err := tx.Create(feedback).Error; err != nil {
			return err
		}

		return tx.Model(&models.Submission{}).
			Where("id = ?", submission.ID).
			Update("status", feedback.Status).Error
	})
}
