package repository

import (
	"fmt"
	"time"

	"github.com/futig/docqa-backend/internal/entity"
)

type sessionTurnRow struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

func toEntitySessionTurn(row *sessionTurnRow) entity.SessionTurn {
	return entity.SessionTurn{
		Role:      entity.TurnRole(row.Role),
		Content:   row.Content,
		CreatedAt: row.CreatedAt,
	}
}

func validateTurns(turns []entity.SessionTurn) error {
	for i, turn := range turns {
		if !turn.Role.IsValid() {
			return fmt.Errorf("%w: turn %d has invalid role %q", entity.ErrInvalidRequest, i, turn.Role)
		}
	}
	return nil
}

func stampTurns(turns []entity.SessionTurn) []entity.SessionTurn {
	stamped := make([]entity.SessionTurn, len(turns))
	now := time.Now().UTC()
	for i, turn := range turns {
		if turn.CreatedAt.IsZero() {
			turn.CreatedAt = now
		}
		stamped[i] = turn
	}
	return stamped
}
