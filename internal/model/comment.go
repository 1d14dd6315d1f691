package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Content     string    `gorm:"type:text;not null"`
	CreatedDate time.Time `gorm:"not null"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null"`
	TaskID      uuid.UUID `gorm:"type:uuid;not null;index"`

	Author User `gorm:"foreignKey:AuthorID"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
