package repository

import (
	"errors"

	"gorm.io/gorm"
)

// Common repository errors
var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
