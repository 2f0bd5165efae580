package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"classroom_sync/internal/app"
	"classroom_sync/internal/infra/classroom"
	"classroom_sync/internal/infra/config"
	"classroom_sync/internal/infra/logger"
	"classroom_sync/internal/infra/storage"
	"classroom_sync/internal/infra/telegram"
)

// components is the object graph shared by the commands.
type components struct {
	backend     *storage.Backend
	reconciler  *app.Reconciler
	sync        *app.SyncService
	progress    *app.ProgressService
	invitations *app.InvitationService
	accounts    *app.AccountService
	seeder      *app.Seeder
}

func buildComponents(ctx context.Context, cfg *config.AppConfig, migrate bool) (*components, error) {
	backend, err := storage.Open(ctx, cfg, migrate)
	if err != nil {
		return nil, err
	}
	logger.Log.Infof("Store %s opened.", backend.Driver)

	base := logrus.NewEntry(logger.Log)
	repos := backend.Repos
	resolver := app.NewIdentityResolver(repos.Students)
	reconciler := app.NewReconciler(repos.Courses, repos.Students, repos.Assignments, repos.Submissions, resolver, base)
	providers := classroom.NewProviderFactory(
		classroom.OAuthClient{ClientID: cfg.GoogleClientID, ClientSecret: cfg.GoogleClientSecret},
		classroom.DefaultRetryPolicy,
		cfg.SyncCourseStates,
		base,
	)
	invitations := app.NewInvitationService(repos.Invitations, base)

	return &components{
		backend:    backend,
		reconciler: reconciler,
		sync: app.NewSyncService(providers, reconciler, resolver, app.SyncOptions{
			Workers:         cfg.SyncWorkers,
			RequestTimeout:  cfg.SyncRequestTimeout,
			DueDateLocation: cfg.DueDateLocation,
		}, base),
		progress:    app.NewProgressService(repos, base),
		invitations: invitations,
		accounts:    app.NewAccountService(repos.Users, repos.Students, invitations, base),
		seeder:      app.NewSeeder(reconciler, repos, cfg.DueDateLocation, base),
	}, nil
}

func (c *components) Close() {
	if err := c.backend.Close(); err != nil {
		logger.Log.WithError(err).Warn("Failed to close store")
	}
}

// newBot returns nil when no Telegram token is configured.
func newBot(cfg *config.AppConfig) (*telebot.Bot, error) {
	if cfg.TelegramToken == "" {
		return nil, nil
	}
	log := logger.Component("telebot")
	return telebot.NewBot(telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := log.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
			}
			entry.Error("telebot error")
		},
	})
}

// syncNotifier returns nil unless both the bot and a report chat are configured.
func syncNotifier(cfg *config.AppConfig, bot *telebot.Bot) *telegram.SyncNotifier {
	if bot == nil || cfg.TelegramReportChatID == 0 {
		return nil
	}
	return telegram.NewSyncNotifier(telegram.NewTelebotAdapter(bot), cfg.TelegramReportChatID, logrus.NewEntry(logger.Log))
}
