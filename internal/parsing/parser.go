// Package parsing turns extracted resume text into the raw structured JSON
// stored on the resume record.
package parsing

import (
	"context"
	"errors"
	"strings"

	"eliteapply/internal/llm"
)

const (
	DefaultModel = "openai/gpt-4o"
	temperature  = 0.2
	maxTokens    = 4000
)

// ErrNoText is returned when there is nothing to parse.
var ErrNoText = errors.New("No raw text found")

// Parser asks a chat model for the parsed resume JSON.
type Parser struct {
	llm   llm.Completer
	model string
}

// NewParser builds a Parser; an empty model falls back to DefaultModel.
func NewParser(completer llm.Completer, model string) *Parser {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Parser{llm: completer, model: model}
}

// Parse returns the model's JSON text unchanged. Validation happens at review time.
func (p *Parser) Parse(ctx context.Context, rawText string) (string, error) {
	if strings.TrimSpace(rawText) == "" {
		return "", ErrNoText
	}
	return p.llm.Complete(ctx, llm.Request{
		Model: p.model,
		Messages: []llm.Message{
			llm.System(SystemPrompt),
			llm.User("Parse this resume:\n\n" + rawText),
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		JSONMode:    true,
	})
}
