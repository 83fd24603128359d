package render

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futig/docqa-backend/internal/entity"
)

func TestFormatAnswer(t *testing.T) {
	answer := &entity.Answer{
		Answer: "  X is a letter.  ",
		Sources: []entity.Source{
			{SourcePath: "knowledge_base/alphabet.pdf", Page: 3},
			{SourcePath: "knowledge_base/other.pdf"},
			{Page: 7},
		},
	}

	t.Run("numbered sources", func(t *testing.T) {
		got := FormatAnswer(answer, 10)
		assert.Equal(t, "X is a letter.\n\n📚 Sources:\n1. alphabet.pdf, p. 3\n2. other.pdf\n3. unknown document, p. 7", got)
	})

	t.Run("limited sources", func(t *testing.T) {
		got := FormatAnswer(answer, 1)
		assert.Contains(t, got, "1. alphabet.pdf, p. 3")
		assert.NotContains(t, got, "2.")
	})

	t.Run("no sources", func(t *testing.T) {
		got := FormatAnswer(&entity.Answer{Answer: "I don't know."}, 4)
		assert.Equal(t, "I don't know.", got)
	})
}

func TestSplitMessage(t *testing.T) {
	t.Run("short text untouched", func(t *testing.T) {
		assert.Equal(t, []string{"hello"}, SplitMessage("hello", 10))
	})

	t.Run("empty text yields one part", func(t *testing.T) {
		assert.Equal(t, []string{""}, SplitMessage("", 10))
	})

	t.Run("cuts on paragraph break", func(t *testing.T) {
		parts := SplitMessage("first part\n\nsecond part", 15)
		assert.Equal(t, []string{"first part", "second part"}, parts)
	})

	t.Run("hard cut without breaks", func(t *testing.T) {
		parts := SplitMessage(strings.Repeat("я", 25), 10)
		require.Len(t, parts, 3)
		for _, p := range parts {
			assert.LessOrEqual(t, utf8.RuneCountInString(p), 10)
		}
		assert.Equal(t, strings.Repeat("я", 25), strings.Join(parts, ""))
	})
}

func TestRateLimitWarning(t *testing.T) {
	assert.Equal(t, MsgRateLimitFirst, RateLimitWarning(1))
	assert.Equal(t, MsgRateLimitSecond, RateLimitWarning(2))
	assert.Equal(t, MsgRateLimitFinal, RateLimitWarning(5))
}
