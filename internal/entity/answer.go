package entity

// Answer is the result of one conversational question.
type Answer struct {
	Question           string
	StandaloneQuestion string
	Answer             string
	Sources            []Source
}

// Source attributes an answer to a retrieved chunk.
type Source struct {
	SourcePath string
	Page       int
	Text       string
	Score      float32
}

type AskRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

type SourceDTO struct {
	Source  *string `json:"source"`
	Page    int     `json:"page,omitempty"`
	Content string  `json:"content"`
}

type AskResponse struct {
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Sources  []SourceDTO `json:"sources"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
