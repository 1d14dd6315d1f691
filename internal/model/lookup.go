package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusDone is the only status name from which a task may be archived.
const StatusDone = "DONE"

// Default reference data seeded on first start.
var (
	DefaultStatuses   = []string{"TODO", "WORKING_ON_IT", StatusDone}
	DefaultPriorities = []string{"LOW", "MEDIUM", "HIGH"}
)

// Status is a task state lookup row. A nil WorkGroupID marks a global status.
type Status struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name        string     `gorm:"not null"`
	WorkGroupID *uuid.UUID `gorm:"type:uuid;index"`
}

func (s *Status) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// UsableIn reports whether tasks of the given group may reference the status.
func (s *Status) UsableIn(groupID uuid.UUID) bool {
	return s.WorkGroupID == nil || *s.WorkGroupID == groupID
}

// Priority is an admin-managed lookup row. Hidden priorities stay valid on
// existing tasks but cannot be picked for new ones.
type Priority struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name   string    `gorm:"uniqueIndex;not null"`
	Hidden bool      `gorm:"not null"`
}

func (p *Priority) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&WorkGroup{},
		&WorkGroupMembership{},
		&Project{},
		&ProjectMember{},
		&Status{},
		&Priority{},
		&Task{},
		&TaskAssignment{},
		&Comment{},
	}
}
