package handlers

import (
	"context"
	"strings"

	"github.com/futig/docqa-backend/internal/pkg/logger"
	"github.com/futig/docqa-backend/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// QuestionHandler answers free-text messages; every chat is its own session
type QuestionHandler struct {
	BaseHandler
	api        API
	qa         QAUsecase
	maxSources int
	logger     *zap.Logger
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(api API, qa QAUsecase, maxSources int, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler: BaseHandler{
			messageSender: NewMessageSender(api, logger),
		},
		api:        api,
		qa:         qa,
		maxSources: maxSources,
		logger:     logger,
	}
}

// Handle implements Handler
func (h *QuestionHandler) Handle(ctx context.Context, msg *Message) error {
	sessionID := SessionID(msg.ChatID)
	ctx = logger.WithAction(ctx, "AnswerQuestion")
	ctx = logger.WithSession(ctx, sessionID)

	if strings.TrimSpace(msg.Text) == "" {
		h.sendMessage(ctx, msg.ChatID, render.MsgTextOnly)
		return nil
	}

	typing := NewTypingNotifier(h.api, msg.ChatID, h.logger)
	typing.Start(ctx)
	answer, err := h.qa.Answer(ctx, sessionID, msg.Text)
	typing.Stop()

	if err != nil {
		h.HandleError(ctx, msg.ChatID, err)
		return nil
	}

	ctxzap.Info(ctx, "question answered", zap.Int("sources", len(answer.Sources)))

	return h.messageSender.Send(ctx, msg.ChatID, render.FormatAnswer(answer, h.maxSources))
}
