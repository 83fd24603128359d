package qa

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
)

type Retriever interface {
	Query(ctx context.Context, text string, k int) (*entity.RetrievalResult, error)
}

type LLMConnector interface {
	Chat(ctx context.Context, messages []entity.ChatMessage) (string, error)
}

type SessionStore interface {
	Load(ctx context.Context, sessionID string) ([]entity.SessionTurn, error)
	Append(ctx context.Context, sessionID string, turns ...entity.SessionTurn) error
}
