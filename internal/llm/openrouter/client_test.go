package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eliteapply/internal/config"
	"eliteapply/internal/llm"
)

func newTestClient(url, key string) *Client {
	return New(config.OpenRouterConfig{APIKey: key, BaseURL: url, Referer: "https://eliteapply.app", AppTitle: "EliteApply"})
}

func TestComplete_SendsRequestAndReturnsContent(t *testing.T) {
	var got chatCompletionsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer user-key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Title") != "EliteApply" {
			t.Errorf("missing X-Title header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "server-key")
	out, err := c.Complete(context.Background(), llm.Request{
		Model:       "openai/gpt-4o",
		Messages:    []llm.Message{llm.System("sys"), llm.User("hi")},
		Temperature: 0.2,
		MaxTokens:   4000,
		JSONMode:    true,
		APIKey:      "user-key",
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "hello" {
		t.Fatalf("unexpected content %q", out)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %+v", got.ResponseFormat)
	}
	if got.MaxTokens != 4000 || len(got.Messages) != 2 {
		t.Fatalf("unexpected request body %+v", got)
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "k").Complete(context.Background(), llm.Request{Model: "m"})
	if err == nil || !strings.HasPrefix(err.Error(), "API 429: rate limited") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestComplete_EmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "k").Complete(context.Background(), llm.Request{Model: "m"})
	if !errors.Is(err, llm.ErrEmptyResponse) {
		t.Fatalf("expected empty response error, got %v", err)
	}
}

func TestComplete_MissingKey(t *testing.T) {
	_, err := newTestClient("http://unused.invalid", "").Complete(context.Background(), llm.Request{Model: "m"})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected missing key, got %v", err)
	}
}
