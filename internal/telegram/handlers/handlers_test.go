package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/avast/retry-go/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/futig/docqa-backend/internal/entity"
	"github.com/futig/docqa-backend/internal/telegram/render"
)

type fakeAPI struct {
	mu        sync.Mutex
	sent      []tgbotapi.MessageConfig
	actions   int
	failSends int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failSends > 0 {
		f.failSends--
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Text)
	}
	return out
}

type fakeQA struct {
	answer    *entity.Answer
	err       error
	sessionID string
	question  string
	calls     int
}

func (f *fakeQA) Answer(ctx context.Context, sessionID, question string) (*entity.Answer, error) {
	f.calls++
	f.sessionID = sessionID
	f.question = question
	return f.answer, f.err
}

func newTestHandler(api *fakeAPI, qa *fakeQA) *QuestionHandler {
	h := NewQuestionHandler(api, qa, 2, zap.NewNop())
	h.messageSender.retryOpts = []retry.Option{
		retry.Attempts(3),
		retry.Delay(0),
		retry.LastErrorOnly(true),
	}
	return h
}

func TestSessionID(t *testing.T) {
	assert.Equal(t, "telegram-42", SessionID(42))
	assert.Equal(t, "telegram--100123", SessionID(-100123))
}

func TestQuestionHandler_Answers(t *testing.T) {
	api := &fakeAPI{}
	qa := &fakeQA{answer: &entity.Answer{
		Answer: "X is a letter.",
		Sources: []entity.Source{
			{SourcePath: "kb/a.pdf", Page: 1},
			{SourcePath: "kb/b.pdf", Page: 2},
			{SourcePath: "kb/c.pdf", Page: 3},
		},
	}}

	err := newTestHandler(api, qa).Handle(context.Background(), &Message{ChatID: 7, Text: "What is X?"})
	require.NoError(t, err)

	assert.Equal(t, "telegram-7", qa.sessionID)
	assert.Equal(t, "What is X?", qa.question)
	assert.GreaterOrEqual(t, api.actions, 1)

	texts := api.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "X is a letter.")
	assert.Contains(t, texts[0], "2. b.pdf, p. 2")
	assert.NotContains(t, texts[0], "c.pdf")
}

func TestQuestionHandler_EmptyText(t *testing.T) {
	api := &fakeAPI{}
	qa := &fakeQA{}

	err := newTestHandler(api, qa).Handle(context.Background(), &Message{ChatID: 7, Text: "   "})
	require.NoError(t, err)

	assert.Zero(t, qa.calls)
	assert.Equal(t, []string{render.MsgTextOnly}, api.texts())
}

func TestQuestionHandler_ErrorsBecomeReplies(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing field", fmt.Errorf("%w: question", entity.ErrMissingField), render.ErrEmptyQuestion},
		{"too long", fmt.Errorf("%w: question too long", entity.ErrInvalidRequest), render.ErrQuestionTooLong},
		{"generation", fmt.Errorf("answer: %w", entity.ErrGeneration), render.ErrModelUnavailable},
		{"retrieval", fmt.Errorf("query: %w", entity.ErrRetrieval), render.ErrModelUnavailable},
		{"memory", fmt.Errorf("load: %w", entity.ErrMemoryStore), render.ErrStorageUnavailable},
		{"timeout", context.DeadlineExceeded, render.ErrTimeout},
		{"other", errors.New("boom"), render.ErrGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			err := newTestHandler(api, &fakeQA{err: tt.err}).Handle(context.Background(), &Message{ChatID: 1, Text: "q"})
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, api.texts())
		})
	}
}

func TestMessageSender_RetriesAndSplits(t *testing.T) {
	api := &fakeAPI{failSends: 2}
	h := newTestHandler(api, &fakeQA{})

	long := strings.Repeat("word ", 1000)
	require.NoError(t, h.messageSender.Send(context.Background(), 5, long))

	texts := api.texts()
	require.Len(t, texts, 2)
	for _, text := range texts {
		assert.LessOrEqual(t, len([]rune(text)), render.MaxMessageLength)
	}
}

func TestMessageSender_GivesUp(t *testing.T) {
	api := &fakeAPI{failSends: 10}
	h := newTestHandler(api, &fakeQA{})

	err := h.messageSender.Send(context.Background(), 5, "hello")
	assert.Error(t, err)
	assert.Empty(t, api.texts())
}

func TestTypingNotifier_StopIsIdempotent(t *testing.T) {
	api := &fakeAPI{}
	n := NewTypingNotifier(api, 1, zap.NewNop())
	n.Start(context.Background())
	n.Stop()
	n.Stop()

	assert.GreaterOrEqual(t, api.actions, 1)
}

type fakeNetErr struct{ timeout bool }

func (e fakeNetErr) Error() string { return "dial tcp: failure" }
func (e fakeNetErr) Timeout() bool { return e.timeout }
func (e fakeNetErr) Temporary() bool { return false }

func TestClassifyError_NetworkFailures(t *testing.T) {
	timeout := classifyError(fmt.Errorf("send: %w", fakeNetErr{timeout: true}))
	assert.Equal(t, render.ErrTimeout, timeout.reply)
	assert.False(t, timeout.warn)

	refused := classifyError(fmt.Errorf("send: %w", fakeNetErr{}))
	assert.Equal(t, render.ErrNetworkIssue, refused.reply)

	invalid := classifyError(fmt.Errorf("%w: question", entity.ErrMissingField))
	assert.True(t, invalid.warn)
}
