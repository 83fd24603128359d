package repository

import (
	"context"
	"fmt"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionTurnRepository stores the ordered conversation of every session
type SessionTurnRepository interface {
	Load(ctx context.Context, sessionID string) ([]entity.SessionTurn, error)
	Append(ctx context.Context, sessionID string, turns ...entity.SessionTurn) error
}

var _ SessionTurnRepository = &SessionTurnPostgres{}

// SessionTurnPostgres implements SessionTurnRepository using PostgreSQL
type SessionTurnPostgres struct {
	db *pgxpool.Pool
}

func NewSessionTurnPostgres(db *pgxpool.Pool) *SessionTurnPostgres {
	return &SessionTurnPostgres{
		db: db,
	}
}

// Load returns turns in append order. Unknown sessions have no turns.
func (r *SessionTurnPostgres) Load(ctx context.Context, sessionID string) ([]entity.SessionTurn, error) {
	rows, err := r.db.Query(ctx, `
		SELECT role, content, created_at
		FROM session_turns
		WHERE session_id = $1
		ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: load session turns: %v", entity.ErrMemoryStore, err)
	}
	defer rows.Close()

	turns := make([]entity.SessionTurn, 0)
	for rows.Next() {
		var row sessionTurnRow
		if err := rows.Scan(&row.Role, &row.Content, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan session turn: %v", entity.ErrMemoryStore, err)
		}
		turns = append(turns, toEntitySessionTurn(&row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate session turns: %v", entity.ErrMemoryStore, err)
	}

	return turns, nil
}

// Append writes all turns in one transaction. The per-session advisory lock keeps
// concurrent appends to the same session from interleaving.
func (r *SessionTurnPostgres) Append(ctx context.Context, sessionID string, turns ...entity.SessionTurn) error {
	if len(turns) == 0 {
		return nil
	}
	if err := validateTurns(turns); err != nil {
		return err
	}
	turns = stampTurns(turns)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", entity.ErrMemoryStore, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sessionID); err != nil {
		return fmt.Errorf("%w: lock session: %v", entity.ErrMemoryStore, err)
	}

	var next int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(position), -1) + 1
		FROM session_turns
		WHERE session_id = $1`, sessionID).Scan(&next)
	if err != nil {
		return fmt.Errorf("%w: read next position: %v", entity.ErrMemoryStore, err)
	}

	batch := &pgx.Batch{}
	for i, turn := range turns {
		batch.Queue(`
			INSERT INTO session_turns (session_id, position, role, content, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			sessionID, next+i, string(turn.Role), turn.Content, turn.CreatedAt)
	}

	br := tx.SendBatch(ctx, batch)
	for range turns {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("%w: insert session turn: %v", entity.ErrMemoryStore, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("%w: close batch: %v", entity.ErrMemoryStore, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit session turns: %v", entity.ErrMemoryStore, err)
	}

	return nil
}
