package repository

import (
	"context"

	"taskmanager/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkGroupRepository struct {
	db *gorm.DB
}

func NewWorkGroupRepository(db *gorm.DB) *WorkGroupRepository {
	return &WorkGroupRepository{db: db}
}

func (r *WorkGroupRepository) Create(ctx context.Context, group *model.WorkGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

// GetByID returns the group whether or not it is active.
func (r *WorkGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.WorkGroup, error) {
	var group model.WorkGroup
	if err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &group, nil
}

// GetActive returns the group only if it is active.
func (r *WorkGroupRepository) GetActive(ctx context.Context, id uuid.UUID) (*model.WorkGroup, error) {
	var group model.WorkGroup
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&group).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &group, nil
}

func (r *WorkGroupRepository) ListActive(ctx context.Context) ([]model.WorkGroup, error) {
	var groups []model.WorkGroup
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at").
		Find(&groups).Error
	return groups, err
}

// ListForUser returns the active groups the user is currently in.
func (r *WorkGroupRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.WorkGroup, error) {
	var groups []model.WorkGroup
	err := r.db.WithContext(ctx).
		Joins("JOIN work_group_memberships ON work_group_memberships.work_group_id = work_groups.id").
		Where("work_group_memberships.user_id = ? AND work_group_memberships.in_group = ? AND work_groups.active = ?", userID, true, true).
		Order("work_groups.created_at").
		Find(&groups).Error
	return groups, err
}

func (r *WorkGroupRepository) Update(ctx context.Context, group *model.WorkGroup) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Save(group)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
