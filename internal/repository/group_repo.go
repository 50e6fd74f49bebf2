package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/capstone-portal-api/internal/models"
)

// GroupRepository reads project groups and their members.
type GroupRepository interface {
	GetByID(ctx context.Context, id uint) (models.Group, error)
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository instantiates a GORM-backed repository.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).Preload("Members").First(&group, id).Error; err != nil {
		return models.Group{}, err
	}

	return group, nil
}
