package handlers

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/futig/docqa-backend/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	maxSendAttempts = 3
	sendRetryDelay  = time.Second
)

// MessageSender provides centralized message sending functionality
type MessageSender struct {
	api       API
	logger    *zap.Logger
	retryOpts []retry.Option
}

// NewMessageSender creates a new MessageSender
func NewMessageSender(api API, logger *zap.Logger) *MessageSender {
	return &MessageSender{
		api:    api,
		logger: logger,
		retryOpts: []retry.Option{
			retry.Attempts(maxSendAttempts),
			retry.Delay(sendRetryDelay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
		},
	}
}

// Send delivers text to the chat, split into several messages when it exceeds
// the Telegram length limit. Each part is retried on failure.
func (s *MessageSender) Send(ctx context.Context, chatID int64, text string) error {
	for _, part := range render.SplitMessage(text, render.MaxMessageLength) {
		if err := s.sendPart(ctx, chatID, part); err != nil {
			return err
		}
	}
	return nil
}

func (s *MessageSender) sendPart(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)

	opts := append([]retry.Option{
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "failed to send message, retrying",
				zap.Error(err),
				zap.Uint("attempt", n+1),
				zap.Int64("chat_id", chatID),
			)
		}),
	}, s.retryOpts...)

	err := retry.Do(func() error {
		_, err := s.api.Send(msg)
		return err
	}, opts...)
	if err != nil {
		s.logger.Error("failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
		return err
	}

	return nil
}
