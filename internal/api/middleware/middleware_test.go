package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"eliteapply/internal/database"
)

type stubTokens struct{}

func (stubTokens) ParseAccess(token string) (database.UserID, error) {
	if token == "good" {
		return 9, nil
	}
	return 0, errors.New("bad token")
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/me", func(c *gin.Context) {
		id, ok := UserIDFromContext(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "cid": GetCorrelationID(c)})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(stubTokens{}))

	cases := map[string]int{
		"":              http.StatusUnauthorized,
		"Bearer":        http.StatusUnauthorized,
		"Basic good":    http.StatusUnauthorized,
		"Bearer nope":   http.StatusUnauthorized,
		"Bearer good":   http.StatusOK,
		"bearer   good": http.StatusOK,
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("header %q: expected %d, got %d", header, want, w.Code)
		}
	}
}

func TestCorrelationIDMiddleware(t *testing.T) {
	r := newRouter(CorrelationIDMiddleware(), AuthMiddleware(stubTokens{}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set(CorrelationIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(CorrelationIDHeader); got != "abc-123" {
		t.Fatalf("expected inbound id to be kept, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set(CorrelationIDHeader, "bad id\nwith newline")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	got := w.Header().Get(CorrelationIDHeader)
	if got == "" || strings.Contains(got, " ") {
		t.Fatalf("expected regenerated id, got %q", got)
	}
}

func TestInternalSecretMiddleware(t *testing.T) {
	r := newRouter(InternalSecretMiddleware("s3cret"))
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", w.Code)
	}

	req.Header.Set("X-Internal-Secret", "s3cret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with secret, got %d", w.Code)
	}

	unconfigured := newRouter(InternalSecretMiddleware(""))
	w = httptest.NewRecorder()
	unconfigured.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when unconfigured, got %d", w.Code)
	}
}
