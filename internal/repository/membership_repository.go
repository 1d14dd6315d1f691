package repository

import (
	"context"

	"taskmanager/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(ctx context.Context, m *model.WorkGroupMembership) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error
}

// Find returns the (user, group) row regardless of InGroup.
func (r *MembershipRepository) Find(ctx context.Context, groupID, userID uuid.UUID) (*model.WorkGroupMembership, error) {
	var m model.WorkGroupMembership
	err := r.db.WithContext(ctx).
		Where("work_group_id = ? AND user_id = ?", groupID, userID).
		First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// FindActive returns the row only while the user is in the group.
func (r *MembershipRepository) FindActive(ctx context.Context, groupID, userID uuid.UUID) (*model.WorkGroupMembership, error) {
	var m model.WorkGroupMembership
	err := r.db.WithContext(ctx).
		Where("work_group_id = ? AND user_id = ? AND in_group = ?", groupID, userID, true).
		First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// FindActiveForUpdate is FindActive with the row locked until the
// surrounding transaction ends.
func (r *MembershipRepository) FindActiveForUpdate(ctx context.Context, groupID, userID uuid.UUID) (*model.WorkGroupMembership, error) {
	var m model.WorkGroupMembership
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("work_group_id = ? AND user_id = ? AND in_group = ?", groupID, userID, true).
		First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// ListActive returns the in-group memberships of a group with their users.
func (r *MembershipRepository) ListActive(ctx context.Context, groupID uuid.UUID) ([]model.WorkGroupMembership, error) {
	var members []model.WorkGroupMembership
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("work_group_id = ? AND in_group = ?", groupID, true).
		Order("created_at").
		Find(&members).Error
	return members, err
}

// ActiveUserIDs returns the subset of userIDs that are in the group.
func (r *MembershipRepository) ActiveUserIDs(ctx context.Context, groupID uuid.UUID, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(userIDs) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).
		Model(&model.WorkGroupMembership{}).
		Where("work_group_id = ? AND in_group = ? AND user_id IN ?", groupID, true, userIDs).
		Pluck("user_id", &ids).Error
	return ids, err
}

// CountOwners returns the number of in-group OWNER rows of a group.
func (r *MembershipRepository) CountOwners(ctx context.Context, groupID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.WorkGroupMembership{}).
		Where("work_group_id = ? AND in_group = ? AND role = ?", groupID, true, model.RoleOwner).
		Count(&n).Error
	return n, err
}

func (r *MembershipRepository) Update(ctx context.Context, m *model.WorkGroupMembership) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Save(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRole moves an in-group member from one role to another. It returns
// ErrNotFound when the row is gone or no longer holds the from role.
func (r *MembershipRepository) SetRole(ctx context.Context, groupID, userID uuid.UUID, from, to model.GroupRole) error {
	result := r.db.WithContext(ctx).
		Model(&model.WorkGroupMembership{}).
		Where("work_group_id = ? AND user_id = ? AND in_group = ? AND role = ?", groupID, userID, true, from).
		Update("role", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
