package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"taxdesk-backend/internal/app"
	"taxdesk-backend/internal/infrastructure/repo"
	"taxdesk-backend/internal/usecase"
	"taxdesk-backend/internal/validation"
)

func newCreateAdminCmd() *cobra.Command {
	var in usecase.RegisterInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Seed an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()
			db, err := app.OpenDB(cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			auth := &usecase.AuthService{Users: repo.NewUserRepo(db), Validator: validation.New()}
			u, err := auth.CreateAdmin(cmd.Context(), in)
			if err != nil {
				var ve *usecase.ValidationError
				if errors.As(err, &ve) {
					return fmt.Errorf("invalid admin: %v", ve.Fields)
				}
				return err
			}
			log.Info("admin created", "user_id", u.ID, "email", u.Email)
			fmt.Fprintln(cmd.OutOrStdout(), u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&in.Name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (min 8 chars, one uppercase)")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
