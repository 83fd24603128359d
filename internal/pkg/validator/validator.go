package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
)

// Validator checks inbound question requests
type Validator struct {
	cfg config.QAConfig
}

func NewAskValidator(cfg config.QAConfig) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAsk trims the request in place and checks required fields and limits
func (v *Validator) ValidateAsk(req *entity.AskRequest) error {
	req.Question = strings.TrimSpace(req.Question)
	req.SessionID = strings.TrimSpace(req.SessionID)

	if req.Question == "" {
		return fmt.Errorf("%w: question", entity.ErrMissingField)
	}
	if req.SessionID == "" {
		return fmt.Errorf("%w: session_id", entity.ErrMissingField)
	}

	if v.cfg.MaxQuestionLength > 0 && utf8.RuneCountInString(req.Question) > v.cfg.MaxQuestionLength {
		return fmt.Errorf("%w: question is longer than %d characters", entity.ErrInvalidRequest, v.cfg.MaxQuestionLength)
	}
	if v.cfg.MaxSessionIDLength > 0 && utf8.RuneCountInString(req.SessionID) > v.cfg.MaxSessionIDLength {
		return fmt.Errorf("%w: session_id is longer than %d characters", entity.ErrInvalidRequest, v.cfg.MaxSessionIDLength)
	}

	return nil
}
