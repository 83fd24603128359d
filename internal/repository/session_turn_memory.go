package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/patrickmn/go-cache"
)

var _ SessionTurnRepository = &SessionTurnMemory{}

// SessionTurnMemory keeps sessions in process memory. Sessions idle for longer
// than the TTL are dropped. Not durable; meant for development and tests.
type SessionTurnMemory struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewSessionTurnMemory creates the store; ttl <= 0 keeps sessions forever.
func NewSessionTurnMemory(ttl time.Duration) *SessionTurnMemory {
	if ttl <= 0 {
		return &SessionTurnMemory{cache: cache.New(cache.NoExpiration, 0)}
	}
	return &SessionTurnMemory{cache: cache.New(ttl, ttl)}
}

func (r *SessionTurnMemory) Load(_ context.Context, sessionID string) ([]entity.SessionTurn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.get(sessionID)
	if len(stored) > 0 {
		r.cache.SetDefault(sessionID, stored)
	}

	turns := make([]entity.SessionTurn, len(stored))
	copy(turns, stored)
	return turns, nil
}

func (r *SessionTurnMemory) Append(ctx context.Context, sessionID string, turns ...entity.SessionTurn) error {
	if len(turns) == 0 {
		return nil
	}
	if err := validateTurns(turns); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrMemoryStore, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.get(sessionID)
	updated := make([]entity.SessionTurn, 0, len(stored)+len(turns))
	updated = append(updated, stored...)
	updated = append(updated, stampTurns(turns)...)
	r.cache.SetDefault(sessionID, updated)

	return nil
}

func (r *SessionTurnMemory) get(sessionID string) []entity.SessionTurn {
	v, ok := r.cache.Get(sessionID)
	if !ok {
		return nil
	}
	return v.([]entity.SessionTurn)
}
