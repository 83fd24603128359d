package qa

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/futig/docqa-backend/internal/config"
	"github.com/futig/docqa-backend/internal/entity"
)

type promptSet struct {
	qa       *template.Template
	condense *template.Template
	summary  *template.Template
	language string
	fallback string
}

type qaPromptData struct {
	Language string
	Fallback string
	Context  string
	Question string
}

type condensePromptData struct {
	History  string
	Question string
}

type summaryPromptData struct {
	History string
}

func newPromptSet(p config.Prompts) (*promptSet, error) {
	if strings.TrimSpace(p.FallbackSentence) == "" {
		return nil, fmt.Errorf("%w: fallback sentence is empty", entity.ErrInvalidConfig)
	}

	qa, err := parseTemplate("qa", p.QATemplate)
	if err != nil {
		return nil, err
	}
	condense, err := parseTemplate("condense", p.CondenseTemplate)
	if err != nil {
		return nil, err
	}
	summary, err := parseTemplate("summary", p.SummaryTemplate)
	if err != nil {
		return nil, err
	}

	return &promptSet{
		qa:       qa,
		condense: condense,
		summary:  summary,
		language: p.AnswerLanguage,
		fallback: strings.TrimSpace(p.FallbackSentence),
	}, nil
}

func parseTemplate(name, text string) (*template.Template, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s template is empty", entity.ErrInvalidConfig, name)
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s template: %v", entity.ErrInvalidConfig, name, err)
	}
	return tmpl, nil
}

func (p *promptSet) answerPrompt(question string, chunks []entity.Chunk) (string, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	return render(p.qa, qaPromptData{
		Language: p.language,
		Fallback: p.fallback,
		Context:  strings.Join(texts, "\n\n"),
		Question: question,
	})
}

func (p *promptSet) condensePrompt(dialogue []entity.ChatMessage, question string) (string, error) {
	return render(p.condense, condensePromptData{
		History:  formatDialogue(dialogue),
		Question: question,
	})
}

func (p *promptSet) summaryPrompt(dialogue []entity.ChatMessage) (string, error) {
	return render(p.summary, summaryPromptData{
		History: formatDialogue(dialogue),
	})
}

func render(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}

func formatDialogue(messages []entity.ChatMessage) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		switch m.Role {
		case entity.ChatRoleUser:
			b.WriteString("Human: ")
		case entity.ChatRoleAssistant:
			b.WriteString("Assistant: ")
		default:
			b.WriteString("System: ")
		}
		b.WriteString(m.Content)
	}
	return b.String()
}
