package main

import (
	"context"
	"fmt"
	"os"

	"service-jobs-api/config"
	"service-jobs-api/internal/database"
	"service-jobs-api/internal/logger"
	"service-jobs-api/internal/services"
	"service-jobs-api/internal/storage/postgres"
	"service-jobs-api/internal/transport/dto"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

// adminPasswordEnv is read when --password is omitted, keeping the secret out
// of shell history.
const adminPasswordEnv = "ADMIN_PASSWORD"

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}
	cmd.AddCommand(adminCreateCmd())
	return cmd
}

func adminCreateCmd() *cobra.Command {
	req := &dto.CreateAdminRequest{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				req.Password = os.Getenv(adminPasswordEnv)
			}
			if err := validator.New().Struct(req); err != nil {
				return fmt.Errorf("invalid admin account: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			undo, err := logger.Init(cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to initialise logger: %w", err)
			}
			defer undo()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pool, err := database.NewConnectionPool(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()

			// Creating an account issues no tokens, so no refresh store is needed.
			userService := services.NewUserService(postgres.NewUserRepo(pool), nil, services.TokenConfig{})
			admin, err := userService.CreateAdmin(ctx, req)
			if err != nil {
				return fmt.Errorf("failed to create admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", admin.Email, admin.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "admin email address")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (defaults to $"+adminPasswordEnv+")")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
