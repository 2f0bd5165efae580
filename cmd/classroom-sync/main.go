package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"classroom_sync/internal/infra/config"
	"classroom_sync/internal/infra/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config.AppConfig{}

	root := &cobra.Command{
		Use:           "classroom-sync",
		Short:         "Sync Google Classroom data and serve delivery metrics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			*cfg = *loaded
			logger.Init(cfg)
			logger.Log.Infof("Configuration loaded. Store: %s, Environment: %s", cfg.StoreDriver, cfg.Environment)
			return nil
		},
	}
	root.AddCommand(
		newServeCmd(cfg),
		newSyncCmd(cfg),
		newSeedCmd(cfg),
		newMigrateCmd(cfg),
	)
	return root
}
