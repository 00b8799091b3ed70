// Package llm defines the chat-completion contract shared by the resume
// parser and the cover-letter generator.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the upstream answers without content.
var ErrEmptyResponse = errors.New("Empty AI response")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes a single completion call.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	// JSONMode asks the upstream for a JSON object response.
	JSONMode bool
	// APIKey overrides the client's configured key when set.
	APIKey string
}

// Completer returns the assistant text of the first choice.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// System builds a system message.
func System(content string) Message { return Message{Role: "system", Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: "user", Content: content} }
