package repository

import (
	"context"

	"taskmanager/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PriorityRepository struct {
	db *gorm.DB
}

func NewPriorityRepository(db *gorm.DB) *PriorityRepository {
	return &PriorityRepository{db: db}
}

func (r *PriorityRepository) Create(ctx context.Context, priority *model.Priority) error {
	return r.db.WithContext(ctx).Create(priority).Error
}

func (r *PriorityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Priority, error) {
	var priority model.Priority
	if err := r.db.WithContext(ctx).First(&priority, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &priority, nil
}

func (r *PriorityRepository) FindByName(ctx context.Context, name string) (*model.Priority, error) {
	var priority model.Priority
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&priority).Error; err != nil {
		return nil, notFound(err)
	}
	return &priority, nil
}

func (r *PriorityRepository) List(ctx context.Context, includeHidden bool) ([]model.Priority, error) {
	var priorities []model.Priority
	q := r.db.WithContext(ctx)
	if !includeHidden {
		q = q.Where("hidden = ?", false)
	}
	err := q.Order("name").Find(&priorities).Error
	return priorities, err
}

func (r *PriorityRepository) CountTasks(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).Where("priority_id = ?", id).Count(&n).Error
	return n, err
}

func (r *PriorityRepository) Update(ctx context.Context, priority *model.Priority) error {
	result := r.db.WithContext(ctx).Save(priority)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PriorityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Priority{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
