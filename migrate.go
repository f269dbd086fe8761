package main

import (
	"context"
	"fmt"

	"service-jobs-api/config"
	"service-jobs-api/internal/database"
	"service-jobs-api/internal/logger"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|reset]",
		Short:     "Manage the database schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status", "reset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
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

			return database.Migrate(ctx, pool, command)
		},
	}
}
