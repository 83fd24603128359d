package qa

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/pkg/validator"
)

type fakeStore struct {
	mu        sync.Mutex
	turns     map[string][]entity.SessionTurn
	loadErr   error
	appendErr error
	appends   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{turns: make(map[string][]entity.SessionTurn)}
}

func (s *fakeStore) Load(_ context.Context, sessionID string) ([]entity.SessionTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]entity.SessionTurn(nil), s.turns[sessionID]...), nil
}

func (s *fakeStore) Append(_ context.Context, sessionID string, turns ...entity.SessionTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends++
	if s.appendErr != nil {
		return s.appendErr
	}
	s.turns[sessionID] = append(s.turns[sessionID], turns...)
	return nil
}

func (s *fakeStore) seed(sessionID string, contents ...string) {
	for i, c := range contents {
		if i%2 == 0 {
			s.turns[sessionID] = append(s.turns[sessionID], entity.UserTurn(c))
		} else {
			s.turns[sessionID] = append(s.turns[sessionID], entity.AssistantTurn(c))
		}
	}
}

type fakeRetriever struct {
	result  *entity.RetrievalResult
	err     error
	queries []string
	ks      []int
}

func (r *fakeRetriever) Query(_ context.Context, text string, k int) (*entity.RetrievalResult, error) {
	r.queries = append(r.queries, text)
	r.ks = append(r.ks, k)
	if r.err != nil {
		return nil, r.err
	}
	if r.result == nil {
		return &entity.RetrievalResult{}, nil
	}
	return r.result, nil
}

type fakeLLM struct {
	replies []string
	err     error
	calls   [][]entity.ChatMessage
}

func (l *fakeLLM) Chat(_ context.Context, messages []entity.ChatMessage) (string, error) {
	l.calls = append(l.calls, append([]entity.ChatMessage(nil), messages...))
	if l.err != nil {
		return "", l.err
	}
	if len(l.replies) == 0 {
		return "generated answer", nil
	}
	reply := l.replies[0]
	l.replies = l.replies[1:]
	return reply, nil
}

func oneChunk(text string, score float32) *entity.RetrievalResult {
	return &entity.RetrievalResult{
		Chunks: []entity.Chunk{{ID: "c1", Text: text, SourcePath: "kb/handbook.pdf", SourcePage: 3}},
		Scores: []float32{score},
	}
}

func defaultOptions() Options {
	return Options{
		TopK:             4,
		CondenseQuestion: true,
		TrimPolicy:       TrimNone,
		MemoryWindow:     10,
	}
}

func newTestUsecase(t *testing.T, store SessionStore, retriever Retriever, llm LLMConnector, opts Options) *Usecase {
	t.Helper()
	uc, err := NewUsecase(
		store,
		retriever,
		llm,
		validator.NewAskValidator(config.QAConfig{MaxQuestionLength: 4000, MaxSessionIDLength: 128}),
		config.DefaultPrompts(),
		opts,
		zap.NewNop(),
	)
	require.NoError(t, err)
	return uc
}

func TestAnswer_GroundedAnswer(t *testing.T) {
	store := newFakeStore()
	retriever := &fakeRetriever{result: oneChunk("Offices open at nine.", 0.8)}
	llm := &fakeLLM{replies: []string{"  The office opens at nine.  "}}
	uc := newTestUsecase(t, store, retriever, llm, defaultOptions())

	answer, err := uc.Answer(context.Background(), " s1 ", " When does the office open? ")
	require.NoError(t, err)

	assert.Equal(t, "When does the office open?", answer.Question)
	assert.Equal(t, "When does the office open?", answer.StandaloneQuestion)
	assert.Equal(t, "The office opens at nine.", answer.Answer)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, entity.Source{SourcePath: "kb/handbook.pdf", Page: 3, Text: "Offices open at nine.", Score: 0.8}, answer.Sources[0])

	assert.Equal(t, []string{"When does the office open?"}, retriever.queries)
	assert.Equal(t, []int{4}, retriever.ks)

	// no history, so no rewrite call
	require.Len(t, llm.calls, 1)
	prompt := llm.calls[0][0].Content
	assert.Contains(t, prompt, "Offices open at nine.")
	assert.Contains(t, prompt, "When does the office open?")
	assert.Contains(t, prompt, "English")
	assert.Contains(t, prompt, "I cannot answer this from the provided documents.")

	turns := store.turns["s1"]
	require.Len(t, turns, 2)
	assert.Equal(t, entity.TurnRoleUser, turns[0].Role)
	assert.Equal(t, "When does the office open?", turns[0].Content)
	assert.Equal(t, entity.TurnRoleAssistant, turns[1].Role)
	assert.Equal(t, "The office opens at nine.", turns[1].Content)
}

func TestAnswer_InvalidRequest(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		question  string
	}{
		{name: "empty question", sessionID: "s1", question: ""},
		{name: "blank question", sessionID: "s1", question: "   "},
		{name: "empty session", sessionID: "", question: "What?"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			retriever := &fakeRetriever{}
			llm := &fakeLLM{}
			uc := newTestUsecase(t, store, retriever, llm, defaultOptions())

			_, err := uc.Answer(context.Background(), tc.sessionID, tc.question)
			assert.ErrorIs(t, err, entity.ErrInvalidRequest)
			assert.ErrorIs(t, err, entity.ErrMissingField)

			assert.Empty(t, retriever.queries)
			assert.Empty(t, llm.calls)
			assert.Zero(t, store.appends)
		})
	}
}

func TestAnswer_FallbackWithoutContext(t *testing.T) {
	tests := []struct {
		name     string
		result   *entity.RetrievalResult
		minScore float32
	}{
		{name: "empty index", result: &entity.RetrievalResult{}},
		{name: "all below minimum score", result: oneChunk("unrelated", 0.1), minScore: 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			llm := &fakeLLM{}
			opts := defaultOptions()
			opts.MinScore = tc.minScore
			uc := newTestUsecase(t, store, &fakeRetriever{result: tc.result}, llm, opts)

			answer, err := uc.Answer(context.Background(), "s1", "What is the meaning of life?")
			require.NoError(t, err)

			assert.Equal(t, "I cannot answer this from the provided documents.", answer.Answer)
			assert.Empty(t, answer.Sources)
			assert.Empty(t, llm.calls)
			assert.Len(t, store.turns["s1"], 2)
		})
	}
}

func TestAnswer_Failures(t *testing.T) {
	t.Run("memory load failure", func(t *testing.T) {
		store := newFakeStore()
		store.loadErr = errors.New("connection refused")
		llm := &fakeLLM{}
		uc := newTestUsecase(t, store, &fakeRetriever{result: oneChunk("x", 1)}, llm, defaultOptions())

		_, err := uc.Answer(context.Background(), "s1", "question")
		assert.ErrorIs(t, err, entity.ErrMemoryStore)
		assert.Empty(t, llm.calls)
	})

	t.Run("retrieval failure", func(t *testing.T) {
		store := newFakeStore()
		llm := &fakeLLM{}
		uc := newTestUsecase(t, store, &fakeRetriever{err: errors.New("embedder down")}, llm, defaultOptions())

		_, err := uc.Answer(context.Background(), "s1", "question")
		assert.ErrorIs(t, err, entity.ErrRetrieval)
		assert.Empty(t, llm.calls)
		assert.Zero(t, store.appends)
	})

	t.Run("generation failure leaves memory untouched", func(t *testing.T) {
		store := newFakeStore()
		llm := &fakeLLM{err: errors.New("HTTP 503")}
		uc := newTestUsecase(t, store, &fakeRetriever{result: oneChunk("x", 1)}, llm, defaultOptions())

		_, err := uc.Answer(context.Background(), "s1", "question")
		assert.ErrorIs(t, err, entity.ErrGeneration)
		assert.Zero(t, store.appends)
	})

	t.Run("blank model output", func(t *testing.T) {
		store := newFakeStore()
		llm := &fakeLLM{replies: []string{"   \n"}}
		uc := newTestUsecase(t, store, &fakeRetriever{result: oneChunk("x", 1)}, llm, defaultOptions())

		_, err := uc.Answer(context.Background(), "s1", "question")
		assert.ErrorIs(t, err, entity.ErrGeneration)
		assert.Zero(t, store.appends)
	})

	t.Run("append failure still returns answer", func(t *testing.T) {
		store := newFakeStore()
		store.appendErr = errors.New("disk full")
		uc := newTestUsecase(t, store, &fakeRetriever{result: oneChunk("x", 1)}, &fakeLLM{}, defaultOptions())

		answer, err := uc.Answer(context.Background(), "s1", "question")
		require.NoError(t, err)
		assert.Equal(t, "generated answer", answer.Answer)
		assert.Equal(t, 1, store.appends)
	})
}

func TestAnswer_CondenseQuestion(t *testing.T) {
	t.Run("rewrites follow up using history", func(t *testing.T) {
		store := newFakeStore()
		store.seed("s1", "Who is the CEO?", "The CEO is Ana.")
		retriever := &fakeRetriever{result: oneChunk("Ana joined in 2019.", 0.9)}
		llm := &fakeLLM{replies: []string{"When did Ana join the company?", "Ana joined in 2019."}}
		uc := newTestUsecase(t, store, retriever, llm, defaultOptions())

		answer, err := uc.Answer(context.Background(), "s1", "When did she join?")
		require.NoError(t, err)

		assert.Equal(t, "When did Ana join the company?", answer.StandaloneQuestion)
		assert.Equal(t, []string{"When did Ana join the company?"}, retriever.queries)

		require.Len(t, llm.calls, 2)
		condense := llm.calls[0][0].Content
		assert.Contains(t, condense, "Human: Who is the CEO?")
		assert.Contains(t, condense, "Assistant: The CEO is Ana.")
		assert.Contains(t, condense, "When did she join?")

		// the grounded prompt carries the original question
		final := llm.calls[1]
		assert.Contains(t, final[len(final)-1].Content, "When did she join?")
	})

	t.Run("disabled uses raw question", func(t *testing.T) {
		store := newFakeStore()
		store.seed("s1", "Who is the CEO?", "The CEO is Ana.")
		retriever := &fakeRetriever{result: oneChunk("x", 1)}
		llm := &fakeLLM{}
		opts := defaultOptions()
		opts.CondenseQuestion = false
		uc := newTestUsecase(t, store, retriever, llm, opts)

		_, err := uc.Answer(context.Background(), "s1", "When did she join?")
		require.NoError(t, err)

		assert.Equal(t, []string{"When did she join?"}, retriever.queries)
		assert.Len(t, llm.calls, 1)
	})

	t.Run("rewrite failure", func(t *testing.T) {
		store := newFakeStore()
		store.seed("s1", "q", "a")
		retriever := &fakeRetriever{result: oneChunk("x", 1)}
		uc := newTestUsecase(t, store, retriever, &fakeLLM{err: errors.New("timeout")}, defaultOptions())

		_, err := uc.Answer(context.Background(), "s1", "follow up")
		assert.ErrorIs(t, err, entity.ErrGeneration)
		assert.Empty(t, retriever.queries)
	})
}

func TestAnswer_TrimPolicies(t *testing.T) {
	history := []string{"q1", "a1", "q2", "a2", "q3", "a3"}

	t.Run("none sends full history", func(t *testing.T) {
		store := newFakeStore()
		store.seed("s1", history...)
		llm := &fakeLLM{}
		opts := defaultOptions()
		opts.CondenseQuestion = false
		uc := newTestUsecase(t, store, &fakeRetriever{result: oneChunk("x", 1)}, llm, opts)

		_, err := uc.Answer(context.Background(), "s1", "q4")
		require.NoError(t, err)

		require.Len(t, llm.calls, 1)
		assert.Len(t, llm.calls[0], 7)
	})

	t.Run("window keeps recent turns", func(t *testing.T) {
		store := newFakeStore()
		store.seed("s1", history...)
		llm := &fakeLLM{}
		opts := defaultOptions()
		opts.CondenseQuestion = false
		opts.TrimPolicy = TrimWindow
		opts.MemoryWindow = 2
		uc := newTestUsecase(t, store, &fakeRetriever{result: oneChunk("x", 1)}, llm, opts)

		_, err := uc.Answer(context.Background(), "s1", "q4")
		require.NoError(t, err)

		require.Len(t, llm.calls, 1)
		msgs := llm.calls[0]
		require.Len(t, msgs, 3)
		assert.Equal(t, "q3", msgs[0].Content)
		assert.Equal(t, "a3", msgs[1].Content)

		// stored history is never trimmed
		assert.Len(t, store.turns["s1"], 8)
	})

	t.Run("summary replaces older turns", func(t *testing.T) {
		store := newFakeStore()
		store.seed("s1", history...)
		llm := &fakeLLM{replies: []string{"They discussed q1 and q2.", "final"}}
		opts := defaultOptions()
		opts.CondenseQuestion = false
		opts.TrimPolicy = TrimSummary
		opts.MemoryWindow = 2
		uc := newTestUsecase(t, store, &fakeRetriever{result: oneChunk("x", 1)}, llm, opts)

		answer, err := uc.Answer(context.Background(), "s1", "q4")
		require.NoError(t, err)
		assert.Equal(t, "final", answer.Answer)

		require.Len(t, llm.calls, 2)
		summaryPrompt := llm.calls[0][0].Content
		assert.Contains(t, summaryPrompt, "Human: q1")
		assert.Contains(t, summaryPrompt, "Assistant: a2")
		assert.NotContains(t, summaryPrompt, "q3")

		msgs := llm.calls[1]
		require.Len(t, msgs, 4)
		assert.Equal(t, entity.ChatRoleSystem, msgs[0].Role)
		assert.Contains(t, msgs[0].Content, "They discussed q1 and q2.")
		assert.Equal(t, "q3", msgs[1].Content)
		assert.Equal(t, "a3", msgs[2].Content)
	})
}

func TestAnswer_SessionIsolation(t *testing.T) {
	store := newFakeStore()
	llm := &fakeLLM{}
	opts := defaultOptions()
	opts.CondenseQuestion = false
	uc := newTestUsecase(t, store, &fakeRetriever{result: oneChunk("x", 1)}, llm, opts)

	_, err := uc.Answer(context.Background(), "alice", "secret question")
	require.NoError(t, err)
	_, err = uc.Answer(context.Background(), "bob", "other question")
	require.NoError(t, err)

	require.Len(t, llm.calls, 2)
	for _, m := range llm.calls[1] {
		assert.False(t, strings.Contains(m.Content, "secret question"))
	}
	assert.Len(t, store.turns["alice"], 2)
	assert.Len(t, store.turns["bob"], 2)
}

func TestHistory(t *testing.T) {
	store := newFakeStore()
	store.seed("s1", "q1", "a1")
	uc := newTestUsecase(t, store, &fakeRetriever{}, &fakeLLM{}, defaultOptions())

	turns, err := uc.History(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, turns, 2)

	_, err = uc.History(context.Background(), " ")
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)

	store.loadErr = errors.New("down")
	_, err = uc.History(context.Background(), "s1")
	assert.ErrorIs(t, err, entity.ErrMemoryStore)
}

func TestNewUsecase_InvalidPrompts(t *testing.T) {
	prompts := config.DefaultPrompts()
	prompts.QATemplate = "{{.Context"

	_, err := NewUsecase(newFakeStore(), &fakeRetriever{}, &fakeLLM{}, validator.NewAskValidator(config.QAConfig{}), prompts, defaultOptions(), zap.NewNop())
	assert.ErrorIs(t, err, entity.ErrInvalidConfig)

	prompts = config.DefaultPrompts()
	prompts.FallbackSentence = " "
	_, err = NewUsecase(newFakeStore(), &fakeRetriever{}, &fakeLLM{}, validator.NewAskValidator(config.QAConfig{}), prompts, defaultOptions(), zap.NewNop())
	assert.ErrorIs(t, err, entity.ErrInvalidConfig)
}

func TestParseTrimPolicy(t *testing.T) {
	p, err := ParseTrimPolicy("")
	require.NoError(t, err)
	assert.Equal(t, TrimNone, p)

	p, err = ParseTrimPolicy("summary")
	require.NoError(t, err)
	assert.Equal(t, TrimSummary, p)

	_, err = ParseTrimPolicy("forget-everything")
	assert.ErrorIs(t, err, entity.ErrInvalidConfig)
}
