package repository

import (
	"context"

	"taskmanager/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

func (r *StatusRepository) Create(ctx context.Context, status *model.Status) error {
	return r.db.WithContext(ctx).Create(status).Error
}

func (r *StatusRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Status, error) {
	var status model.Status
	if err := r.db.WithContext(ctx).First(&status, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &status, nil
}

func (r *StatusRepository) FindGlobalByName(ctx context.Context, name string) (*model.Status, error) {
	var status model.Status
	err := r.db.WithContext(ctx).
		Where("name = ? AND work_group_id IS NULL", name).
		First(&status).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &status, nil
}

// ListForGroup returns the global statuses followed by the group's own.
func (r *StatusRepository) ListForGroup(ctx context.Context, groupID uuid.UUID) ([]model.Status, error) {
	var statuses []model.Status
	err := r.db.WithContext(ctx).
		Where("work_group_id IS NULL OR work_group_id = ?", groupID).
		Order("work_group_id IS NOT NULL, name").
		Find(&statuses).Error
	return statuses, err
}

func (r *StatusRepository) Update(ctx context.Context, status *model.Status) error {
	result := r.db.WithContext(ctx).Save(status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StatusRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Status{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
