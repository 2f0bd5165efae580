package telegram

import "gopkg.in/telebot.v3"

// Client sends messages to a Telegram chat. The sync job uses it to report
// run summaries; the application never talks to telebot.Bot directly.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
