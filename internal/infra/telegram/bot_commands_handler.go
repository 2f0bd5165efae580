// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"classroom_sync/internal/app"
	"classroom_sync/internal/domain/student"
)

// ProgressReader looks up the metrics of one student.
type ProgressReader interface {
	StudentSummary(ctx context.Context, email string) (*app.StudentProgress, error)
}

// RegisterBotCommands wires /start, /help and the admin-only /progress command.
func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	adminID int64,
	progress ProgressReader,
	baseLogger *logrus.Entry,
) {
	logger := baseLogger.WithField("handler_group", "commands")

	b.Handle("/start", func(c telebot.Context) error {
		logger.WithFields(logrus.Fields{"command": "/start", "sender_id": c.Sender().ID}).Info("Processing command")
		if c.Sender().ID == adminID {
			return c.Send(fmt.Sprintf("Hi %s! Sync reports will arrive in the report chat. Use /help for commands.", c.Sender().FirstName))
		}
		return c.Send("Hi! This bot reports classroom sync results to the coordinators.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		if c.Sender().ID != adminID {
			return c.Send("No commands are available for you.")
		}
		var help strings.Builder
		help.WriteString("Available commands:\n\n")
		help.WriteString("`/progress <email>`\n - Show delivery metrics of a student.\n\n")
		help.WriteString("`/help`\n - Show this message.")
		return c.Send(help.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})

	b.Handle("/progress", func(c telebot.Context) error {
		handlerLogger := logger.WithFields(logrus.Fields{"command": "/progress", "sender_id": c.Sender().ID})
		if c.Sender().ID != adminID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("Error: you are not allowed to run this command.")
		}
		return c.Send(progressReply(ctx, progress, c.Args(), handlerLogger))
	})
}

func progressReply(ctx context.Context, progress ProgressReader, args []string, logger *logrus.Entry) string {
	if len(args) != 1 || !strings.Contains(args[0], "@") {
		return "Usage: /progress <email>"
	}
	email := strings.ToLower(strings.TrimSpace(args[0]))
	sp, err := progress.StudentSummary(ctx, email)
	if errors.Is(err, student.ErrNotFound) {
		return fmt.Sprintf("No student with email %s.", email)
	}
	if err != nil {
		logger.WithError(err).WithField("email", email).Error("Failed to load progress")
		return "Could not load progress, try again later."
	}
	return formatProgress(sp)
}

func formatProgress(sp *app.StudentProgress) string {
	p := sp.Progress
	var b strings.Builder
	fmt.Fprintf(&b, "%s <%s>\n", sp.Student.Name, sp.Student.Email)
	if sp.Student.Cohort.Valid {
		fmt.Fprintf(&b, "Cohort: %s\n", sp.Student.Cohort.String)
	}
	fmt.Fprintf(&b, "Assignments: %d\n", p.Total)
	fmt.Fprintf(&b, "Delivered: %d (%d%%)\n", p.Delivered, p.DeliveredPercentage)
	fmt.Fprintf(&b, "Late: %d (%d%%)\n", p.Late, p.LatePercentage)
	fmt.Fprintf(&b, "Missing: %d (%d%%)\n", p.Missing, p.MissingPercentage)
	fmt.Fprintf(&b, "Resubmission: %d (%d%%)", p.Resubmission, p.ResubmissionPercentage)
	if p.Unclassified > 0 {
		fmt.Fprintf(&b, "\nUnclassified: %d", p.Unclassified)
	}
	return b.String()
}
