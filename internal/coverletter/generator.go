// Package coverletter fans a job description out to several chat models and
// collects one draft per model.
package coverletter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"eliteapply/internal/llm"
)

const (
	// MinDescriptionLength is counted in characters after trimming.
	MinDescriptionLength = 50
	DefaultTimeout       = 60 * time.Second
	maxTokens            = 3000
	temperature          = 0.7
)

// Input errors, worded for display in the extension popup.
var (
	ErrEmptyDescription    = errors.New("Please enter or extract a job description first.")
	ErrDescriptionTooShort = errors.New("Job description seems too short. Please provide more detail.")
)

// Model is one upstream model identifier with its display label.
type Model struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// DefaultModels is the fixed fan-out list, in display order.
var DefaultModels = []Model{
	{ID: "openai/gpt-4o", Label: "GPT-4o"},
	{ID: "anthropic/claude-sonnet-4.5", Label: "Claude Sonnet 4.5"},
	{ID: "google/gemini-2.5-flash", Label: "Gemini 2.5 Flash"},
}

// DraftStatus tells whether a model produced a letter.
type DraftStatus string

const (
	StatusSuccess DraftStatus = "success"
	StatusError   DraftStatus = "error"
)

// Draft is the outcome of one model call. Every model yields exactly one.
type Draft struct {
	Model           string           `json:"model"`
	ModelLabel      string           `json:"modelLabel"`
	Content         string           `json:"content"`
	Status          DraftStatus      `json:"status"`
	Error           string           `json:"error,omitempty"`
	DurationMs      int64            `json:"durationMs"`
	QuestionAnswers []QuestionAnswer `json:"questionAnswers,omitempty"`
}

// Result is one full generation, cached as the user's last result.
type Result struct {
	JobDescription     string   `json:"jobDescription"`
	Drafts             []Draft  `json:"drafts"`
	Timestamp          int64    `json:"timestamp"`
	ScreeningQuestions []string `json:"screeningQuestions"`
}

// Observer receives per-model call outcomes.
type Observer interface {
	ObserveModelCall(model string, status DraftStatus, elapsed time.Duration)
}

// Option customizes a Generator.
type Option func(*Generator)

// WithModels replaces DefaultModels.
func WithModels(models []Model) Option { return func(g *Generator) { g.models = models } }

// WithTimeout sets the per-model call budget.
func WithTimeout(d time.Duration) Option { return func(g *Generator) { g.timeout = d } }

// WithObserver reports each model call to o.
func WithObserver(o Observer) Option { return func(g *Generator) { g.observer = o } }

func withClock(now func() time.Time) Option { return func(g *Generator) { g.now = now } }

// Generator runs the fan-out.
type Generator struct {
	llm      llm.Completer
	models   []Model
	timeout  time.Duration
	observer Observer
	now      func() time.Time
}

// NewGenerator builds a Generator over completer using DefaultModels and a
// 60 second per-call timeout unless overridden.
func NewGenerator(completer llm.Completer, opts ...Option) *Generator {
	g := &Generator{
		llm:     completer,
		models:  DefaultModels,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ValidateDescription trims the description and enforces the minimum length.
func ValidateDescription(jobDescription string) (string, error) {
	jd := strings.TrimSpace(jobDescription)
	if jd == "" {
		return "", ErrEmptyDescription
	}
	if utf8.RuneCountInString(jd) < MinDescriptionLength {
		return "", ErrDescriptionTooShort
	}
	return jd, nil
}

// CleanQuestions trims questions and drops empty ones.
func CleanQuestions(questions []string) []string {
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

// Generate validates the input, then calls every model concurrently. Model
// failures become error drafts; only input errors are returned.
func (g *Generator) Generate(ctx context.Context, jobDescription string, questions []string, apiKey string) (*Result, error) {
	jd, err := ValidateDescription(jobDescription)
	if err != nil {
		return nil, err
	}
	questions = CleanQuestions(questions)
	prompt := BuildPrompt(jd, questions)

	drafts := make([]Draft, len(g.models))
	var eg errgroup.Group
	for i, m := range g.models {
		i, m := i, m
		eg.Go(func() error {
			drafts[i] = g.call(ctx, m, prompt, apiKey, questions)
			return nil
		})
	}
	_ = eg.Wait()

	return &Result{
		JobDescription:     jd,
		Drafts:             drafts,
		Timestamp:          g.now().UnixMilli(),
		ScreeningQuestions: questions,
	}, nil
}

func (g *Generator) call(ctx context.Context, m Model, prompt, apiKey string, questions []string) (draft Draft) {
	start := g.now()
	draft = Draft{Model: m.ID, ModelLabel: m.Label}

	defer func() {
		if r := recover(); r != nil {
			draft.Status = StatusError
			draft.Content = ""
			draft.Error = fmt.Sprintf("%v", r)
		}
		elapsed := g.now().Sub(start)
		draft.DurationMs = elapsed.Milliseconds()
		if g.observer != nil {
			g.observer.ObserveModelCall(m.ID, draft.Status, elapsed)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	content, err := g.llm.Complete(callCtx, llm.Request{
		Model:       m.ID,
		Messages:    []llm.Message{llm.User(prompt)},
		Temperature: temperature,
		MaxTokens:   maxTokens,
		APIKey:      apiKey,
	})
	if err == nil && content == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		draft.Status = StatusError
		draft.Error = describe(err, g.timeout)
		return draft
	}

	letter, answers := ParseResponse(content, questions)
	draft.Status = StatusSuccess
	draft.Content = letter
	draft.QuestionAnswers = answers
	return draft
}

func describe(err error, timeout time.Duration) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("Request timed out after %s", timeout)
	case errors.Is(err, context.Canceled):
		return "Request was cancelled"
	case errors.Is(err, llm.ErrEmptyResponse):
		return "Empty response from model"
	}
	return err.Error()
}
