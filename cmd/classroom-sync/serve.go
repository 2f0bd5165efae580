package main

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"classroom_sync/internal/domain/classroom"
	gclassroom "classroom_sync/internal/infra/classroom"
	"classroom_sync/internal/infra/config"
	"classroom_sync/internal/infra/httpapi"
	"classroom_sync/internal/infra/logger"
	"classroom_sync/internal/infra/scheduler"
	"classroom_sync/internal/infra/telegram"
)

func newServeCmd(cfg *config.AppConfig) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the periodic sync and the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Apply the database schema on startup")
	return cmd
}

func runServe(ctx context.Context, cfg *config.AppConfig, migrate bool) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	c, err := buildComponents(ctx, cfg, migrate)
	if err != nil {
		return err
	}
	defer c.Close()

	base := logrus.NewEntry(logger.Log)

	bot, err := newBot(cfg)
	if err != nil {
		return err
	}
	var reporters []scheduler.Reporter
	if n := syncNotifier(cfg, bot); n != nil {
		reporters = append(reporters, n)
	}

	syncScheduler := scheduler.NewSyncScheduler(
		c.sync,
		classroom.Credential{AccessToken: cfg.GoogleAccessToken, RefreshToken: cfg.GoogleRefreshToken},
		cfg.CronSpecSync,
		cfg.SyncTimeout,
		base,
		reporters...,
	)
	if err := syncScheduler.Start(); err != nil {
		return err
	}
	defer syncScheduler.Stop()

	if bot != nil {
		telegram.RegisterBotCommands(ctx, bot, cfg.TelegramAdminID, c.progress, base)
		go bot.Start()
		defer bot.Stop()
		logger.Log.Info("Telegram bot started.")
	}

	server := httpapi.NewServer(httpapi.Deps{
		Sync:        c.sync,
		Progress:    c.progress,
		Invitations: c.invitations,
		Accounts:    c.accounts,
		Identity: func(ctx context.Context, accessToken string) (string, string, error) {
			id, err := gclassroom.LookupIdentity(ctx, accessToken)
			if err != nil {
				return "", "", err
			}
			return id.Email, id.Name, nil
		},
	}, httpapi.Options{
		JWTSecret:   cfg.JWTSecret,
		FrontendURL: cfg.FrontendURL,
		DevAuth:     cfg.DevAuth,
		SyncTimeout: cfg.SyncTimeout,
	}, base)

	if cfg.DevAuth {
		logger.Log.Warn("DEV_AUTH is enabled, /dev routes accept unauthenticated logins")
	}
	return server.Run(ctx, cfg.HTTPAddr)
}
