package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"eliteapply/internal/api/middleware"
	"eliteapply/internal/coverletter"
	"eliteapply/internal/extension"
)

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, jd string, questions []string, _ string) (*coverletter.Result, error) {
	if _, err := coverletter.ValidateDescription(jd); err != nil {
		return nil, err
	}
	return &coverletter.Result{
		JobDescription:     jd,
		ScreeningQuestions: questions,
		Drafts: []coverletter.Draft{
			{Model: "openai/gpt-4o", ModelLabel: "GPT-4o", Status: coverletter.StatusSuccess, Content: "Dear hiring team"},
		},
		Timestamp: 1700000000000,
	}, nil
}

func newExtensionRouter(serverKey string) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := extension.NewService(extension.NewStore(newMemoryRedis()), stubGenerator{}, nil, serverKey, logger)
	h := NewExtensionHandler(svc)

	r := newTestEngine()
	g := r.Group("/v1/extension", middleware.AuthMiddleware(stubTokens{}))
	g.POST("/messages", h.HandleMessage)
	g.GET("/settings", h.GetSettings)
	g.PUT("/settings", h.SaveSettings)
	g.GET("/last-result", h.GetLastResult)
	return r
}

func TestExtensionHandler_MessageUnion(t *testing.T) {
	r := newExtensionRouter("")

	w := doJSON(t, r, http.MethodPost, "/v1/extension/messages", 1, map[string]any{"type": "SOMETHING_ELSE"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", w.Code)
	}

	jd := strings.Repeat("We are hiring a backend engineer. ", 3)
	w = doJSON(t, r, http.MethodPost, "/v1/extension/messages", 1, map[string]any{"type": "GENERATE_COVER_LETTERS", "jobDescription": jd})
	resp := decodeBody[map[string]any](t, w)
	if w.Code != http.StatusOK || resp["type"] != "GENERATION_ERROR" || resp["error"] != extension.MissingKeyMessage {
		t.Fatalf("expected missing key error message, got %d %v", w.Code, resp)
	}

	html := `<html><body><main>` + strings.Repeat("Build reliable Go services for our platform. ", 4) + `</main></body></html>`
	w = doJSON(t, r, http.MethodPost, "/v1/extension/messages", 1, map[string]any{
		"type": "EXTRACT_JOB_DESCRIPTION",
		"page": map[string]any{"url": "https://jobs.example.com/1", "html": html},
	})
	resp = decodeBody[map[string]any](t, w)
	if w.Code != http.StatusOK || resp["type"] != "JOB_DESCRIPTION_RESULT" || resp["data"] == nil {
		t.Fatalf("expected extracted description, got %d %v", w.Code, resp)
	}
}

func TestExtensionHandler_SettingsAndLastResult(t *testing.T) {
	r := newExtensionRouter("")

	if w := doJSON(t, r, http.MethodGet, "/v1/extension/last-result", 1, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any generation, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPut, "/v1/extension/settings", 1, map[string]string{"openrouterApiKey": "  "}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank key, got %d", w.Code)
	}

	w := doJSON(t, r, http.MethodPut, "/v1/extension/settings", 1, map[string]string{"openrouterApiKey": "sk-or-v1-abcdef123456"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	masked := decodeBody[map[string]any](t, w)
	if key, _ := masked["openrouterApiKey"].(string); strings.Contains(key, "abcdef12") {
		t.Fatalf("key not masked: %v", masked)
	}

	jd := strings.Repeat("We are hiring a backend engineer. ", 3)
	w = doJSON(t, r, http.MethodPost, "/v1/extension/messages", 1, map[string]any{"type": "GENERATE_COVER_LETTERS", "jobDescription": jd})
	resp := decodeBody[map[string]any](t, w)
	if resp["type"] != "GENERATION_RESULT" {
		t.Fatalf("expected generation result, got %v", resp)
	}

	if w := doJSON(t, r, http.MethodGet, "/v1/extension/last-result", 1, nil); w.Code != http.StatusOK {
		t.Fatalf("expected cached result, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodGet, "/v1/extension/last-result", 2, nil); w.Code != http.StatusNotFound {
		t.Fatalf("last result must be per user, got %d", w.Code)
	}
}
