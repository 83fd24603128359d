package entity

import "time"

type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// IsValid checks if the role is one of the stored conversation roles
func (r TurnRole) IsValid() bool {
	return r == TurnRoleUser || r == TurnRoleAssistant
}

// SessionTurn is one message of a stored conversation.
type SessionTurn struct {
	Role      TurnRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func UserTurn(content string) SessionTurn {
	return SessionTurn{Role: TurnRoleUser, Content: content, CreatedAt: time.Now().UTC()}
}

func AssistantTurn(content string) SessionTurn {
	return SessionTurn{Role: TurnRoleAssistant, Content: content, CreatedAt: time.Now().UTC()}
}
