package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task rows form a shallow tree through ParentTaskID; children are looked up
// by id, never embedded.
type Task struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title        string    `gorm:"not null"`
	Description  string
	PriorityID   uuid.UUID  `gorm:"type:uuid;not null"`
	StatusID     uuid.UUID  `gorm:"type:uuid;not null"`
	CreateTime   time.Time  `gorm:"not null"`
	UpdateTime   time.Time  `gorm:"not null"`
	Archived     bool       `gorm:"not null"`
	Active       bool       `gorm:"not null"`
	CreatorID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	WorkGroupID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProjectID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ParentTaskID *uuid.UUID `gorm:"type:uuid;index"`

	Priority Priority `gorm:"foreignKey:PriorityID"`
	Status   Status   `gorm:"foreignKey:StatusID"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Task) IsSubTask() bool {
	return t.ParentTaskID != nil
}

// TaskAssignment is one row of a task's assignee set.
type TaskAssignment struct {
	TaskID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time
}
