package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"classroom_sync/internal/domain/classroom"
	"classroom_sync/internal/infra/config"
	"classroom_sync/internal/infra/logger"
)

type syncOptions struct {
	accessToken  string
	refreshToken string
	notify       bool
}

func newSyncCmd(cfg *config.AppConfig) *cobra.Command {
	var opts syncOptions

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync against Google Classroom and print the summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.accessToken, "access-token", "", "Google access token (default: GOOGLE_ACCESS_TOKEN)")
	cmd.Flags().StringVar(&opts.refreshToken, "refresh-token", "", "Google refresh token (default: GOOGLE_REFRESH_TOKEN)")
	cmd.Flags().BoolVar(&opts.notify, "notify", false, "Post the summary to the Telegram report chat")
	return cmd
}

func runSync(ctx context.Context, cfg *config.AppConfig, opts syncOptions, out io.Writer) error {
	cred := classroom.Credential{AccessToken: opts.accessToken, RefreshToken: opts.refreshToken}
	if cred.Empty() {
		cred = classroom.Credential{AccessToken: cfg.GoogleAccessToken, RefreshToken: cfg.GoogleRefreshToken}
	}

	c, err := buildComponents(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer c.Close()

	if cfg.SyncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.SyncTimeout)
		defer cancel()
	}

	result, syncErr := c.sync.Sync(ctx, cred)
	if result != nil {
		fmt.Fprintln(out, result.Summary())
	}

	if opts.notify {
		bot, err := newBot(cfg)
		if err != nil {
			return err
		}
		if n := syncNotifier(cfg, bot); n != nil {
			n.Report(context.WithoutCancel(ctx), result, syncErr)
		} else {
			logger.Log.Warn("Telegram report chat not configured, skipping notification")
		}
	}
	if syncErr != nil {
		return syncErr
	}
	if result.Partial() {
		logger.Log.Warnf("Sync finished with %d item errors", len(result.Errors))
	}
	return nil
}
