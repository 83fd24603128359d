package handlers

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// QAUsecase answers questions within a conversation session
type QAUsecase interface {
	Answer(ctx context.Context, sessionID, question string) (*entity.Answer, error)
}

// API is the part of the Telegram Bot API used for replies
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}
