package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkGroup is the unit that owns projects and tasks. It is never hard-deleted.
type WorkGroup struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Description string
	Active      bool `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (g *WorkGroup) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
