package telegram

import (
	"context"
	"fmt"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/telegram/bot"
	"github.com/futig/docqa-backend/internal/telegram/handlers"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot authorizes against the Bot API and wires the question handler
func NewBot(cfg *config.TelegramConfig, qaUC handlers.QAUsecase, logger *zap.Logger) (Bot, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}
	api.Debug = false

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	questions := handlers.NewQuestionHandler(api, qaUC, cfg.MaxSources, logger)
	b := bot.New(api, cfg, questions, logger)

	logger.Info("telegram bot initialized successfully")

	return b, nil
}
