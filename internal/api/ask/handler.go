package ask

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/logger"
	"github.com/futig/docqa-backend/internal/pkg/response"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

const (
	msgMissingFields  = "Missing question or session_id"
	msgInvalidBody    = "Invalid request body"
	msgGeneration     = "Failed to generate answer"
	msgRetrieval      = "Failed to retrieve context"
	msgMemoryStore    = "Session store unavailable"
	msgTimeout        = "Request timed out"
	msgInternalServer = "Internal server error"
)

type Handler struct {
	usecase QAUsecase
}

func NewHandler(usecase QAUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// Ask handles POST /ask - answer a question within a session
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Ask")

	var req entity.AskRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		ctxzap.Warn(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	ctx = logger.WithSession(ctx, req.SessionID)

	answer, err := h.usecase.Answer(ctx, req.SessionID, req.Question)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "question answered", zap.Int("sources", len(answer.Sources)))
	response.Success(w, toAskResponse(answer))
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrMissingField):
		h.respondError(ctx, w, http.StatusBadRequest, msgMissingFields, err)
	case errors.Is(err, entity.ErrInvalidRequest):
		h.respondError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, entity.ErrRateLimited):
		h.respondError(ctx, w, http.StatusTooManyRequests, "Too many requests", err)
	case errors.Is(err, context.DeadlineExceeded):
		h.respondError(ctx, w, http.StatusGatewayTimeout, msgTimeout, err)
	case errors.Is(err, entity.ErrGeneration):
		h.respondError(ctx, w, http.StatusBadGateway, msgGeneration, err)
	case errors.Is(err, entity.ErrRetrieval):
		h.respondError(ctx, w, http.StatusBadGateway, msgRetrieval, err)
	case errors.Is(err, entity.ErrMemoryStore):
		h.respondError(ctx, w, http.StatusServiceUnavailable, msgMemoryStore, err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, msgInternalServer, err)
	}
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Warn(ctx, message, zap.Error(err))
	}
	response.Error(w, status, message)
}
