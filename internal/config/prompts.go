package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_prompts.yaml
var defaultPromptsYAML []byte

// Prompts holds the language-dependent prompt texts used by the answering flow
type Prompts struct {
	AnswerLanguage   string `yaml:"answer_language"`
	FallbackSentence string `yaml:"fallback_sentence"`
	QATemplate       string `yaml:"qa_template"`
	CondenseTemplate string `yaml:"condense_template"`
	SummaryTemplate  string `yaml:"summary_template"`
}

// DefaultPrompts returns the built-in prompt set
func DefaultPrompts() Prompts {
	var p Prompts
	if err := yaml.Unmarshal(defaultPromptsYAML, &p); err != nil {
		panic(fmt.Sprintf("invalid embedded prompts: %v", err))
	}
	return p
}

// LoadPrompts reads a prompts file on top of the defaults.
// Fields missing in the file keep their default values.
func LoadPrompts(path string) (*Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return &prompts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}

	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("parse prompts YAML %s: %w", path, err)
	}

	if prompts.FallbackSentence == "" {
		return nil, fmt.Errorf("prompts file %s: fallback_sentence is empty", path)
	}

	return &prompts, nil
}
