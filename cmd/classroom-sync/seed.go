package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"classroom_sync/internal/app"
	"classroom_sync/internal/infra/config"
	"classroom_sync/internal/infra/logger"
)

func newSeedCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo courses, students and submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), cfg)
		},
	}
}

func runSeed(ctx context.Context, cfg *config.AppConfig) error {
	if cfg.StoreDriver == "memory" {
		logger.Log.Warn("Seeding the memory store; data is lost when the command exits")
	}
	c, err := buildComponents(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.seeder.Seed(ctx, time.Now()); err != nil {
		return err
	}
	logger.Log.Infof("Demo data loaded. Log in as %s or %s with dev auth.", app.SeedCoordinatorEmail, app.SeedTeacherEmail)
	return nil
}
