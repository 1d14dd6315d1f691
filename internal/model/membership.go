package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GroupRole is a user's tier inside a work group, in descending privilege.
type GroupRole string

const (
	RoleOwner     GroupRole = "OWNER"
	RoleModerator GroupRole = "MODERATOR"
	RoleMember    GroupRole = "MEMBER"
)

func (r GroupRole) Valid() bool {
	switch r {
	case RoleOwner, RoleModerator, RoleMember:
		return true
	}
	return false
}

// WorkGroupMembership links a user to a group. Rows are never deleted:
// leaving or being removed clears InGroup and a later rejoin reuses the row.
type WorkGroupMembership struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_user_group"`
	WorkGroupID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_membership_user_group;index"`
	Role        GroupRole `gorm:"type:varchar(20);not null"`
	InGroup     bool      `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	User      User      `gorm:"foreignKey:UserID"`
	WorkGroup WorkGroup `gorm:"foreignKey:WorkGroupID"`
}

func (m *WorkGroupMembership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
