package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/logger"
	"github.com/futig/docqa-backend/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Options tune retrieval and dialogue handling
type Options struct {
	TopK             int
	MinScore         float32
	CondenseQuestion bool
	TrimPolicy       TrimPolicy
	MemoryWindow     int
}

// OptionsFromConfig converts the QA configuration section
func OptionsFromConfig(cfg config.QAConfig) (Options, error) {
	policy, err := ParseTrimPolicy(cfg.MemoryTrimPolicy)
	if err != nil {
		return Options{}, err
	}
	return Options{
		TopK:             cfg.TopK,
		MinScore:         cfg.MinScore,
		CondenseQuestion: cfg.CondenseQuestion,
		TrimPolicy:       policy,
		MemoryWindow:     cfg.MemoryWindow,
	}, nil
}

// Usecase answers questions grounded in the indexed corpus, keeping per-session history
type Usecase struct {
	sessions  SessionStore
	retriever Retriever
	llm       LLMConnector
	validator *validator.Validator
	prompts   *promptSet
	opts      Options
	logger    *zap.Logger
}

// NewUsecase creates a new question answering use case
func NewUsecase(
	sessions SessionStore,
	retriever Retriever,
	llm LLMConnector,
	validator *validator.Validator,
	prompts config.Prompts,
	opts Options,
	logger *zap.Logger,
) (*Usecase, error) {
	ps, err := newPromptSet(prompts)
	if err != nil {
		return nil, err
	}

	return &Usecase{
		sessions:  sessions,
		retriever: retriever,
		llm:       llm,
		validator: validator,
		prompts:   ps,
		opts:      opts,
		logger:    logger,
	}, nil
}

// Answer answers one question within a session and records the exchange.
func (uc *Usecase) Answer(ctx context.Context, sessionID, question string) (*entity.Answer, error) {
	req := &entity.AskRequest{Question: question, SessionID: sessionID}
	if err := uc.validator.ValidateAsk(req); err != nil {
		return nil, err
	}

	ctx = logger.WithAction(ctx, "answer")
	ctx = logger.WithSession(ctx, req.SessionID)

	turns, err := uc.sessions.Load(ctx, req.SessionID)
	if err != nil {
		return nil, wrapAs(entity.ErrMemoryStore, "load history", err)
	}

	dialogue, err := uc.dialogue(ctx, turns)
	if err != nil {
		return nil, err
	}

	standalone, err := uc.standaloneQuestion(ctx, dialogue, req.Question)
	if err != nil {
		return nil, err
	}

	chunks, scores, err := uc.retrieve(ctx, standalone)
	if err != nil {
		return nil, err
	}

	var text string
	if len(chunks) == 0 {
		ctxzap.Info(ctx, "no relevant context found, answering with fallback")
		text = uc.prompts.fallback
	} else {
		text, err = uc.generate(ctx, dialogue, req.Question, chunks)
		if err != nil {
			return nil, err
		}
	}

	if err := uc.sessions.Append(ctx, req.SessionID, entity.UserTurn(req.Question), entity.AssistantTurn(text)); err != nil {
		ctxzap.Error(ctx, "failed to record session turns", zap.Error(err))
	}

	ctxzap.Info(ctx, "question answered",
		zap.Int("history_turns", len(turns)),
		zap.Int("sources", len(chunks)),
	)

	return &entity.Answer{
		Question:           req.Question,
		StandaloneQuestion: standalone,
		Answer:             text,
		Sources:            toSources(chunks, scores),
	}, nil
}

// History returns the stored turns of a session.
func (uc *Usecase) History(ctx context.Context, sessionID string) ([]entity.SessionTurn, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id", entity.ErrMissingField)
	}

	turns, err := uc.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, wrapAs(entity.ErrMemoryStore, "load history", err)
	}
	return turns, nil
}

func (uc *Usecase) standaloneQuestion(ctx context.Context, dialogue []entity.ChatMessage, question string) (string, error) {
	if !uc.opts.CondenseQuestion || len(dialogue) == 0 {
		return question, nil
	}

	prompt, err := uc.prompts.condensePrompt(dialogue, question)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrGeneration, err)
	}

	condensed, err := uc.llm.Chat(ctx, []entity.ChatMessage{{Role: entity.ChatRoleUser, Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("%w: condense question: %v", entity.ErrGeneration, err)
	}

	condensed = strings.TrimSpace(condensed)
	if condensed == "" {
		return question, nil
	}

	ctxzap.Debug(ctx, "question condensed", zap.String("standalone_question", condensed))
	return condensed, nil
}

func (uc *Usecase) retrieve(ctx context.Context, query string) ([]entity.Chunk, []float32, error) {
	result, err := uc.retriever.Query(ctx, query, uc.opts.TopK)
	if err != nil {
		return nil, nil, wrapAs(entity.ErrRetrieval, "retrieve context", err)
	}

	chunks := make([]entity.Chunk, 0, result.Len())
	scores := make([]float32, 0, result.Len())
	for i := 0; i < result.Len(); i++ {
		if result.Scores[i] < uc.opts.MinScore {
			continue
		}
		chunks = append(chunks, result.Chunks[i])
		scores = append(scores, result.Scores[i])
	}

	return chunks, scores, nil
}

func (uc *Usecase) generate(
	ctx context.Context,
	dialogue []entity.ChatMessage,
	question string,
	chunks []entity.Chunk,
) (string, error) {
	prompt, err := uc.prompts.answerPrompt(question, chunks)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrGeneration, err)
	}

	messages := make([]entity.ChatMessage, 0, len(dialogue)+1)
	messages = append(messages, dialogue...)
	messages = append(messages, entity.ChatMessage{Role: entity.ChatRoleUser, Content: prompt})

	text, err := uc.llm.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrGeneration, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: model returned an empty answer", entity.ErrGeneration)
	}

	return text, nil
}

func toSources(chunks []entity.Chunk, scores []float32) []entity.Source {
	sources := make([]entity.Source, len(chunks))
	for i, c := range chunks {
		sources[i] = entity.Source{
			SourcePath: c.SourcePath,
			Page:       c.SourcePage,
			Text:       c.Text,
			Score:      scores[i],
		}
	}
	return sources
}

// wrapAs makes sure err matches sentinel without repeating it in the message.
func wrapAs(sentinel error, op string, err error) error {
	if errors.Is(err, sentinel) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", sentinel, op, err)
}
