package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"homecare-app-server/internal/models"
	"homecare-app-server/internal/store"
)

// newCreateAdminCommand bootstraps the first super admin, who can then create
// everyone else through the API.
func newCreateAdminCommand() *cobra.Command {
	var email, password, firstName, lastName string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a super admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(password) < 8 {
				return errors.New("password must be at least 8 characters")
			}
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := store.Open(cfg.Database.DSN, false)
			if err != nil {
				return err
			}
			st := store.New(db)
			ctx := cmd.Context()

			email = strings.ToLower(strings.TrimSpace(email))
			if _, err := st.GetUserByEmail(ctx, email); err == nil {
				return fmt.Errorf("user %s already exists", email)
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			u := &models.User{
				Email:     email,
				FirstName: firstName,
				LastName:  lastName,
				Role:      models.RoleSuperAdmin,
				IsActive:  true,
			}
			if err := u.SetPassword(password); err != nil {
				return err
			}
			if err := st.CreateUser(ctx, u); err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			log.Info("super admin created", zap.String("user_id", u.ID), zap.String("email", email))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	cmd.Flags().StringVar(&firstName, "first-name", "Site", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "Admin", "Last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
