package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"eliteapply/internal/api/middleware"
	"eliteapply/internal/database"
	"eliteapply/internal/profile"
)

func newProfileRouter(t *testing.T) *gin.Engine {
	t.Helper()
	h := NewProfileHandler(profile.NewStore(newTestDB(t)))
	r := newTestEngine()
	h.register(r.Group("/v1", middleware.AuthMiddleware(stubTokens{})))
	return r
}

func TestProfileHandler_ProfileUpsertAndCompleteness(t *testing.T) {
	r := newProfileRouter(t)

	w := doJSON(t, r, http.MethodGet, "/v1/profile", 1, nil)
	if w.Code != http.StatusOK || decodeBody[map[string]any](t, w)["profile"] != nil {
		t.Fatalf("expected empty profile, got %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodPut, "/v1/profile", 1, map[string]any{"name": "Jane Doe"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/v1/profile/completeness", 1, nil)
	c := decodeBody[profile.Completeness](t, w)
	if !c.HasProfile || c.Completed != 1 || c.Total != 6 || c.Percentage != 17 {
		t.Fatalf("unexpected completeness %+v", c)
	}
}

func TestProfileHandler_SectionCRUD(t *testing.T) {
	r := newProfileRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/experiences", 1, map[string]any{"company": "Acme", "title": "Engineer", "startDate": "2020-01"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	exp := decodeBody[database.Experience](t, w)
	path := fmt.Sprintf("/v1/experiences/%d", exp.ID)

	if w := doJSON(t, r, http.MethodPatch, path, 2, map[string]any{"title": "Hacker"}); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for other owner, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPatch, path, 1, map[string]any{"title": "Staff Engineer"})
	if w.Code != http.StatusOK || decodeBody[database.Experience](t, w).Title != "Staff Engineer" {
		t.Fatalf("unexpected patch result %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/v1/experiences", 2, nil)
	if items := decodeBody[map[string][]database.Experience](t, w)["items"]; len(items) != 0 {
		t.Fatalf("other owner sees %d experiences", len(items))
	}

	if w := doJSON(t, r, http.MethodDelete, path, 1, nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodDelete, path, 1, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestProfileHandler_SkillCategories(t *testing.T) {
	r := newProfileRouter(t)

	bad := map[string]any{"skills": []map[string]string{
		{"name": "Go", "category": "technical"},
		{"name": "Juggling", "category": "circus"},
	}}
	if w := doJSON(t, r, http.MethodPost, "/v1/skills/batch", 1, bad); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", w.Code)
	}

	good := map[string]any{"skills": []map[string]string{
		{"name": "Go", "category": "technical"},
		{"name": "Docker", "category": "tool"},
	}}
	if w := doJSON(t, r, http.MethodPost, "/v1/skills/batch", 1, good); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/v1/skills?category=tool", 1, nil)
	items := decodeBody[map[string][]database.Skill](t, w)["items"]
	if len(items) != 1 || items[0].Name != "Docker" {
		t.Fatalf("unexpected filtered skills %+v", items)
	}
	if w := doJSON(t, r, http.MethodGet, "/v1/skills?category=circus", 1, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown filter, got %d", w.Code)
	}
}
