package entity

type ChatRole string

const (
	ChatRoleSystem    ChatRole = "system"
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

type LLMChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type LLMChatChoice struct {
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type LLMChatResponse struct {
	Choices []LLMChatChoice `json:"choices"`
}

type EmbeddingRequest struct {
	Inputs  []string          `json:"inputs"`
	Options *EmbeddingOptions `json:"options,omitempty"`
}

type EmbeddingOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// TurnsToMessages converts stored turns to chat dialogue messages
func TurnsToMessages(turns []SessionTurn) []ChatMessage {
	messages := make([]ChatMessage, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, ChatMessage{
			Role:    ChatRole(turn.Role),
			Content: turn.Content,
		})
	}
	return messages
}
