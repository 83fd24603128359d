package qa

import (
	"context"
	"fmt"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// TrimPolicy controls how much stored history is sent to the model.
type TrimPolicy string

const (
	TrimNone    TrimPolicy = "none"
	TrimWindow  TrimPolicy = "window"
	TrimSummary TrimPolicy = "summary"
)

func ParseTrimPolicy(value string) (TrimPolicy, error) {
	switch p := TrimPolicy(value); p {
	case TrimNone, TrimWindow, TrimSummary:
		return p, nil
	case "":
		return TrimNone, nil
	default:
		return "", fmt.Errorf("%w: unknown memory trim policy %q", entity.ErrInvalidConfig, value)
	}
}

// dialogue turns stored history into model messages according to the trim policy.
// Stored history itself is never modified.
func (uc *Usecase) dialogue(ctx context.Context, turns []entity.SessionTurn) ([]entity.ChatMessage, error) {
	messages := entity.TurnsToMessages(turns)

	window := uc.opts.MemoryWindow
	if uc.opts.TrimPolicy == TrimNone || window <= 0 || len(messages) <= window {
		return messages, nil
	}

	recent := messages[len(messages)-window:]
	if uc.opts.TrimPolicy == TrimWindow {
		return recent, nil
	}

	older := messages[:len(messages)-window]
	prompt, err := uc.prompts.summaryPrompt(older)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrGeneration, err)
	}

	summary, err := uc.llm.Chat(ctx, []entity.ChatMessage{{Role: entity.ChatRoleUser, Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("%w: summarize history: %v", entity.ErrGeneration, err)
	}

	ctxzap.Debug(ctx, "older history summarized", zap.Int("summarized_turns", len(older)))

	out := make([]entity.ChatMessage, 0, len(recent)+1)
	out = append(out, entity.ChatMessage{
		Role:    entity.ChatRoleSystem,
		Content: "Summary of the earlier conversation: " + summary,
	})
	return append(out, recent...), nil
}
