package handlers

import (
	"context"
	"errors"
	"net"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// userFacingError pairs a failure with the reply shown in the chat
type userFacingError struct {
	reply  string
	reason string
	warn   bool // caused by the user's input
}

type errorRule struct {
	match func(error) bool
	userFacingError
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNetError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

// order matters: ErrMissingField wraps ErrInvalidRequest, and timeouts must win
// over the pipeline sentinels they are wrapped in
var errorRules = []errorRule{
	{is(entity.ErrMissingField), userFacingError{render.ErrEmptyQuestion, "empty question", true}},
	{is(entity.ErrInvalidRequest), userFacingError{render.ErrQuestionTooLong, "invalid question", true}},
	{is(context.DeadlineExceeded), userFacingError{render.ErrTimeout, "answer timed out", false}},
	{is(context.Canceled), userFacingError{render.ErrTimeout, "answer cancelled", false}},
	{is(entity.ErrGeneration), userFacingError{render.ErrModelUnavailable, "model provider failure", false}},
	{is(entity.ErrRetrieval), userFacingError{render.ErrModelUnavailable, "retrieval failure", false}},
	{is(entity.ErrMemoryStore), userFacingError{render.ErrStorageUnavailable, "session store failure", false}},
	{isNetTimeout, userFacingError{render.ErrTimeout, "network timeout", false}},
	{isNetError, userFacingError{render.ErrNetworkIssue, "network error", false}},
}

func classifyError(err error) userFacingError {
	for _, rule := range errorRules {
		if rule.match(err) {
			return rule.userFacingError
		}
	}
	return userFacingError{render.ErrGeneric, "unexpected answering failure", false}
}

// HandleError logs err and tells the user what went wrong in plain words
func (h *BaseHandler) HandleError(ctx context.Context, chatID int64, err error) {
	if err == nil {
		return
	}

	classified := classifyError(err)
	fields := []zap.Field{zap.Error(err), zap.Int64("chat_id", chatID)}
	if classified.warn {
		ctxzap.Warn(ctx, classified.reason, fields...)
	} else {
		ctxzap.Error(ctx, classified.reason, fields...)
	}

	h.sendMessage(ctx, chatID, classified.reply)
}
