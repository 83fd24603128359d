package ask

import (
	"context"

	"github.com/futig/docqa-backend/internal/entity"
)

type QAUsecase interface {
	Answer(ctx context.Context, sessionID, question string) (*entity.Answer, error)
}
