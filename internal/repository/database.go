package repository

import (
	"context"
	"errors"
	"fmt"

	"taskmanager/internal/config"
	"taskmanager/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database selected by cfg.DBDriver.
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres", "":
		dialector = postgres.Open(cfg.PostgresDSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	if cfg.LogLevel == "debug" {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema of every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Seed inserts the default global statuses and priorities that are missing.
// It is safe to run repeatedly.
func Seed(ctx context.Context, db *gorm.DB) error {
	store := NewStore(db)
	return store.WithTx(ctx, func(tx *Store) error {
		for _, name := range model.DefaultStatuses {
			_, err := tx.Statuses.FindGlobalByName(ctx, name)
			if err == nil {
				continue
			}
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			if err := tx.Statuses.Create(ctx, &model.Status{Name: name}); err != nil {
				return fmt.Errorf("seed status %s: %w", name, err)
			}
		}
		for _, name := range model.DefaultPriorities {
			_, err := tx.Priorities.FindByName(ctx, name)
			if err == nil {
				continue
			}
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			if err := tx.Priorities.Create(ctx, &model.Priority{Name: name}); err != nil {
				return fmt.Errorf("seed priority %s: %w", name, err)
			}
		}
		return nil
	})
}
