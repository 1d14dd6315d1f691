package repository

import (
	"context"

	"taskmanager/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// GetByID retrieves a task with its status and priority, active or not
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Preload("Status").
		Preload("Priority").
		First(&task, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// GetActive retrieves a task only if it has not been soft-deleted
func (r *TaskRepository) GetActive(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Preload("Status").
		Preload("Priority").
		Where("id = ? AND active = ?", id, true).
		First(&task).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// GetActiveForUpdate locks an active task row for the rest of the
// transaction. Status and Priority are not loaded.
func (r *TaskRepository) GetActiveForUpdate(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND active = ?", id, true).
		First(&task).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// Update saves every column of the task
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Save(task)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Preload("Status").
		Preload("Priority").
		Where(query, args...).
		Order("create_time").
		Find(&tasks).Error
	return tasks, err
}

// ListByGroup returns the active, non-archived tasks of a group
func (r *TaskRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]model.Task, error) {
	return r.list(ctx, "work_group_id = ? AND active = ? AND archived = ?", groupID, true, false)
}

// ListByProject returns the active tasks of a project filtered by archived
func (r *TaskRepository) ListByProject(ctx context.Context, projectID uuid.UUID, archived bool) ([]model.Task, error) {
	return r.list(ctx, "project_id = ? AND active = ? AND archived = ?", projectID, true, archived)
}

// ListSubTasks returns the active children of a task
func (r *TaskRepository) ListSubTasks(ctx context.Context, parentID uuid.UUID) ([]model.Task, error) {
	return r.list(ctx, "parent_task_id = ? AND active = ?", parentID, true)
}

// ListByCreator returns active tasks the user created, either top-level tasks
// or subtasks depending on subtasks
func (r *TaskRepository) ListByCreator(ctx context.Context, userID uuid.UUID, subtasks bool) ([]model.Task, error) {
	if subtasks {
		return r.list(ctx, "creator_id = ? AND active = ? AND parent_task_id IS NOT NULL", userID, true)
	}
	return r.list(ctx, "creator_id = ? AND active = ? AND parent_task_id IS NULL", userID, true)
}

// ListByAssignee returns active tasks the user is assigned to
func (r *TaskRepository) ListByAssignee(ctx context.Context, userID uuid.UUID, subtasks bool) ([]model.Task, error) {
	parent := "parent_task_id IS NULL"
	if subtasks {
		parent = "parent_task_id IS NOT NULL"
	}
	sub := r.db.Model(&model.TaskAssignment{}).Select("task_id").Where("user_id = ?", userID)
	return r.list(ctx, "id IN (?) AND active = ? AND "+parent, sub, true)
}

// CountByStatus returns how many tasks, active or not, reference a status
func (r *TaskRepository) CountByStatus(ctx context.Context, statusID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).Where("status_id = ?", statusID).Count(&n).Error
	return n, err
}

// AssignUser adds a user to the task's assignee set
func (r *TaskRepository) AssignUser(ctx context.Context, taskID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&model.TaskAssignment{TaskID: taskID, UserID: userID}).Error
}

// UnassignUser removes a user from the task's assignee set
func (r *TaskRepository) UnassignUser(ctx context.Context, taskID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Delete(&model.TaskAssignment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AssigneeIDs returns the ids of the users assigned to a task
func (r *TaskRepository) AssigneeIDs(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.TaskAssignment{}).
		Where("task_id = ?", taskID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// ListAssignees returns the users assigned to a task
func (r *TaskRepository) ListAssignees(ctx context.Context, taskID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Joins("JOIN task_assignments ON task_assignments.user_id = users.id").
		Where("task_assignments.task_id = ?", taskID).
		Order("users.login").
		Find(&users).Error
	return users, err
}
