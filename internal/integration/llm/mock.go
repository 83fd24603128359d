package llm

import (
	"context"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const mockExcerptLen = 300

// MockConnector answers without a model: it echoes the follow up question for
// rewrite prompts and the first context line for answer prompts.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

func (m *MockConnector) Chat(ctx context.Context, messages []entity.ChatMessage) (string, error) {
	ctxzap.Info(ctx, "[MOCK] chat completion", zap.Int("message_count", len(messages)))

	var prompt string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == entity.ChatRoleUser {
			prompt = messages[i].Content
			break
		}
	}

	lines := strings.Split(prompt, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if rest, ok := strings.CutPrefix(trimmed, "Follow Up Input:"); ok {
			return strings.TrimSpace(rest), nil
		}

		if trimmed == "Context:" {
			for _, next := range lines[i+1:] {
				if next = strings.TrimSpace(next); next != "" {
					return "[MOCK] " + truncate(next), nil
				}
			}
		}
	}

	return "[MOCK] " + truncate(strings.TrimSpace(prompt)), nil
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= mockExcerptLen {
		return s
	}
	return string(runes[:mockExcerptLen]) + "..."
}
