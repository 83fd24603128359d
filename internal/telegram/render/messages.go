package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/futig/docqa-backend/internal/entity"
)

// MaxMessageLength is the Telegram limit for one text message, in characters
const MaxMessageLength = 4096

const (
	// Welcome messages
	MsgWelcome = `👋 Hi! I answer questions about the documents in my knowledge base.

Just send a question as a text message. I remember our conversation, so follow-up questions work too.`

	MsgHelp = `🤖 Bot commands:

/start - Show the welcome message
/help - Show this help

How it works:
1. Send a question as plain text
2. I look up the relevant passages in the documents
3. You get an answer with the pages it is based on`

	MsgTextOnly = `✍️ I can only read text messages. Please type your question.`

	MsgUnknownCommand = `❌ Unknown command. Use /help`

	MsgSourcesHeader = "📚 Sources:"

	// Rate limit warnings
	MsgRateLimitFirst  = `⚠️ Too many questions. Please wait a little.`
	MsgRateLimitSecond = `⚠️ Rate limit exceeded. Wait about 30 seconds before the next question.`
	MsgRateLimitFinal  = `🛑 You are sending questions too often. Please wait a minute.`

	// Errors
	ErrGeneric            = `❌ Something went wrong. Please try again.`
	ErrEmptyQuestion      = `❌ The question is empty. Please type your question.`
	ErrQuestionTooLong    = `❌ The question is too long. Please shorten it.`
	ErrModelUnavailable   = `❌ The language model is not responding right now. Try again in a couple of minutes.`
	ErrStorageUnavailable = `❌ Conversation history is temporarily unavailable. Try again later.`
	ErrNetworkIssue       = `❌ Connection problem. Try again a bit later.`
	ErrTimeout            = `❌ The answer took too long. Please try again.`
)

// RateLimitWarning picks the warning for the n-th consecutive rejection
func RateLimitWarning(n int) string {
	switch {
	case n <= 1:
		return MsgRateLimitFirst
	case n == 2:
		return MsgRateLimitSecond
	default:
		return MsgRateLimitFinal
	}
}

// FormatAnswer renders an answer followed by up to maxSources numbered sources
func FormatAnswer(answer *entity.Answer, maxSources int) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(answer.Answer))

	sources := answer.Sources
	if maxSources >= 0 && len(sources) > maxSources {
		sources = sources[:maxSources]
	}
	if len(sources) == 0 {
		return sb.String()
	}

	sb.WriteString("\n\n")
	sb.WriteString(MsgSourcesHeader)
	for i, src := range sources {
		sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, formatSource(src)))
	}

	return sb.String()
}

func formatSource(src entity.Source) string {
	name := "unknown document"
	if src.SourcePath != "" {
		name = filepath.Base(src.SourcePath)
	}
	if src.Page > 0 {
		return fmt.Sprintf("%s, p. %d", name, src.Page)
	}
	return name
}

// SplitMessage cuts text into parts that fit into a single Telegram message,
// preferring paragraph and line breaks as cut points
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}

	runes := []rune(text)
	var parts []string
	for len(runes) > limit {
		cut := lastBreak(runes[:limit])
		if cut <= 0 {
			cut = limit
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n "))
		runes = []rune(strings.TrimLeft(string(runes[cut:]), "\n "))
	}
	if len(runes) > 0 || len(parts) == 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

func lastBreak(runes []rune) int {
	s := string(runes)
	for _, sep := range []string{"\n\n", "\n", " "} {
		if i := strings.LastIndex(s, sep); i > 0 {
			return len([]rune(s[:i])) + len([]rune(sep))
		}
	}
	return -1
}
