package telegram

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"classroom_sync/internal/app"
	domaintg "classroom_sync/internal/domain/telegram"
)

// SyncNotifier posts the summary of scheduled sync runs to a report chat.
type SyncNotifier struct {
	client domaintg.Client
	chatID int64
	logger *logrus.Entry
}

func NewSyncNotifier(client domaintg.Client, chatID int64, logger *logrus.Entry) *SyncNotifier {
	return &SyncNotifier{client: client, chatID: chatID, logger: logger.WithField("component", "telegram_notifier")}
}

func (n *SyncNotifier) Report(_ context.Context, result *app.SyncResult, err error) {
	text := syncReport(result, err)
	if sendErr := n.client.SendMessage(n.chatID, text, nil); sendErr != nil {
		n.logger.WithError(sendErr).WithField("chat_id", n.chatID).Error("Failed to send sync report")
	}
}

func syncReport(result *app.SyncResult, err error) string {
	switch {
	case result == nil && err != nil:
		return fmt.Sprintf("Sync failed: %v", err)
	case err != nil:
		return fmt.Sprintf("Sync failed: %v\n%s", err, result.Summary())
	case result.Partial():
		return "Sync finished with problems\n" + result.Summary()
	default:
		return "Sync finished\n" + result.Summary()
	}
}
