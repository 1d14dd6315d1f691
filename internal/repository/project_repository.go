package repository

import (
	"context"

	"taskmanager/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error
}

// GetActive returns an active project by id.
func (r *ProjectRepository) GetActive(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&project).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

// GetActiveForUpdate is GetActive with the row locked until the
// surrounding transaction ends.
func (r *ProjectRepository) GetActiveForUpdate(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND active = ?", id, true).
		First(&project).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

// GetByID returns a project whether or not it is active.
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

func (r *ProjectRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.WithContext(ctx).
		Where("work_group_id = ? AND active = ?", groupID, true).
		Order("created_at").
		Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) ListByCreator(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.WithContext(ctx).
		Where("creator_id = ? AND active = ?", userID, true).
		Order("created_at").
		Find(&projects).Error
	return projects, err
}

// ListByMember returns the active projects the user is assigned to.
func (r *ProjectRepository) ListByMember(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.WithContext(ctx).
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ? AND projects.active = ?", userID, true).
		Order("projects.created_at").
		Find(&projects).Error
	return projects, err
}

func (r *ProjectRepository) Update(ctx context.Context, project *model.Project) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Save(project)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&model.ProjectMember{ProjectID: projectID, UserID: userID}).Error
}

func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&model.ProjectMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MemberIDs returns the ids of every user assigned to the project.
func (r *ProjectRepository) MemberIDs(ctx context.Context, projectID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.ProjectMember{}).
		Where("project_id = ?", projectID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *ProjectRepository) ListMembers(ctx context.Context, projectID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Joins("JOIN project_members ON project_members.user_id = users.id").
		Where("project_members.project_id = ?", projectID).
		Order("users.login").
		Find(&users).Error
	return users, err
}
