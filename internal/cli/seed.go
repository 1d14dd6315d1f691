package cli

import (
	"context"
	"errors"
	"fmt"

	"taskmanager/internal/auth"
	"taskmanager/internal/logger"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"

	"github.com/spf13/cobra"
)

var (
	adminLogin    string
	adminEmail    string
	adminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed lookup data and optionally create an admin user",
	Long: `Seed inserts the default statuses and priorities.

With --admin-login, --admin-email and --admin-password it also creates a
system administrator, or grants admin rights to an existing user with that
login.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := repository.Open(cfg)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		if err := repository.Migrate(db); err != nil {
			return err
		}
		if err := repository.Seed(cmd.Context(), db); err != nil {
			return err
		}
		if adminLogin == "" {
			logger.Info().Msg("lookup data seeded")
			return nil
		}

		user, err := ensureAdmin(cmd.Context(), repository.NewStore(db), adminLogin, adminEmail, adminPassword)
		if err != nil {
			return err
		}
		logger.Info().Str("login", user.Login).Str("id", user.ID.String()).Msg("admin user ready")
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&adminLogin, "admin-login", "", "login of the admin user to create")
	seedCmd.Flags().StringVar(&adminEmail, "admin-email", "", "email of the admin user")
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "", "password of the admin user")
	seedCmd.MarkFlagsRequiredTogether("admin-login", "admin-email", "admin-password")
}

// ensureAdmin creates an admin user, or promotes the existing user with
// that login. The password of an existing user is left untouched.
func ensureAdmin(ctx context.Context, store *repository.Store, login, email, password string) (*model.User, error) {
	existing, err := store.Users.FindByLogin(ctx, login)
	switch {
	case err == nil:
		if existing.Admin {
			return existing, nil
		}
		existing.Admin = true
		if err := store.Users.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("promote admin: %w", err)
		}
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("find admin: %w", err)
	}

	if len(password) < 6 {
		return nil, errors.New("admin password must be at least 6 characters")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Login:          login,
		Email:          email,
		Name:           login,
		HashedPassword: hash,
		Admin:          true,
	}
	if err := store.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return user, nil
}
