package parsing

import (
	"context"
	"errors"
	"testing"

	"eliteapply/internal/llm"
)

type captureCompleter struct {
	req llm.Request
	out string
	err error
}

func (c *captureCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	c.req = req
	return c.out, c.err
}

func TestParse_BuildsRequest(t *testing.T) {
	fake := &captureCompleter{out: `{"profile":{"name":"Jane"}}`}
	p := NewParser(fake, "")

	out, err := p.Parse(context.Background(), "Jane Doe\nEngineer")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out != fake.out {
		t.Fatalf("unexpected output %q", out)
	}
	if fake.req.Model != DefaultModel || !fake.req.JSONMode || fake.req.MaxTokens != 4000 || fake.req.Temperature != 0.2 {
		t.Fatalf("unexpected request %+v", fake.req)
	}
	if len(fake.req.Messages) != 2 || fake.req.Messages[1].Content != "Parse this resume:\n\nJane Doe\nEngineer" {
		t.Fatalf("unexpected messages %+v", fake.req.Messages)
	}
}

func TestParse_PropagatesUpstreamError(t *testing.T) {
	upstream := errors.New("API 500: boom")
	p := NewParser(&captureCompleter{err: upstream}, "openai/gpt-4o")
	if _, err := p.Parse(context.Background(), "text"); !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestParse_EmptyText(t *testing.T) {
	p := NewParser(&captureCompleter{}, "")
	if _, err := p.Parse(context.Background(), "   "); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}
