package middleware

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Next continues processing of an update
type Next func(ctx context.Context, update tgbotapi.Update)

// Sender is the part of the Telegram Bot API used for notices
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// updateOrigin extracts user and chat ids; zero when the update has no message
func updateOrigin(update tgbotapi.Update) (userID, chatID int64) {
	if update.Message == nil {
		return 0, 0
	}
	if update.Message.From != nil {
		userID = update.Message.From.ID
	}
	if update.Message.Chat != nil {
		chatID = update.Message.Chat.ID
	}
	return userID, chatID
}
