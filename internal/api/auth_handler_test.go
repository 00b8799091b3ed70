package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"eliteapply/internal/auth"
	"eliteapply/internal/config"
	"eliteapply/internal/database"
)

// fakeTokens 签发可读的假令牌："refresh-<uid>-<n>"。
type fakeTokens struct {
	mu sync.Mutex
	n  int
}

func (f *fakeTokens) Issue(userID database.UserID) (auth.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return auth.TokenPair{
		AccessToken:  fmt.Sprintf("user-%d", userID),
		RefreshToken: fmt.Sprintf("refresh-%d-%d", userID, f.n),
	}, nil
}

func (f *fakeTokens) ParseRefresh(token string) (*auth.Claims, error) {
	var uid, n int
	if _, err := fmt.Sscanf(token, "refresh-%d-%d", &uid, &n); err != nil {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{
		UserID:    database.UserID(uid),
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        token,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, nil
}

func (f *fakeTokens) AccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (f *fakeTokens) RefreshTokenTTL() time.Duration { return time.Hour }

func newAuthRouter(t *testing.T) (http.Handler, *memoryRedis) {
	t.Helper()
	sessions := newMemoryRedis()
	h := NewAuthHandler(auth.NewAccounts(newTestDB(t)), &fakeTokens{}, sessions, config.AuthConfig{
		LoginRateLimitPerHour: 100,
		LoginLockThreshold:    3,
		LoginLockTTL:          time.Minute,
	})
	r := newTestEngine()
	r.POST("/v1/auth/register", h.Register)
	r.POST("/v1/auth/login", h.Login)
	r.POST("/v1/auth/refresh", h.Refresh)
	r.POST("/v1/auth/logout", h.Logout)
	return r, sessions
}

func refreshCookie(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshTokenCookieName {
			return c.Value
		}
	}
	t.Fatal("refresh cookie not set")
	return ""
}

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	r, _ := newAuthRouter(t)
	creds := map[string]string{"username": "alice", "password": "correct horse"}

	w := doJSON(t, r, http.MethodPost, "/v1/auth/register", 0, creds)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeBody[tokenResponse](t, w)
	if resp.AccessToken == "" || resp.TokenType != "Bearer" {
		t.Fatalf("unexpected token response %+v", resp)
	}
	refreshCookie(t, w)

	if w := doJSON(t, r, http.MethodPost, "/v1/auth/register", 0, creds); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/v1/auth/register", 0, map[string]string{"username": "bob", "password": "short"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/v1/auth/login", 0, creds); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAuthHandler_LoginLockout(t *testing.T) {
	r, sessions := newAuthRouter(t)
	doJSON(t, r, http.MethodPost, "/v1/auth/register", 0, map[string]string{"username": "alice", "password": "correct horse"})

	wrong := map[string]string{"username": "alice", "password": "wrong password"}
	for i := 0; i < 3; i++ {
		if w := doJSON(t, r, http.MethodPost, "/v1/auth/login", 0, wrong); w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, w.Code)
		}
	}
	w := doJSON(t, r, http.MethodPost, "/v1/auth/login", 0, map[string]string{"username": "alice", "password": "correct horse"})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected lockout, got %d", w.Code)
	}
	if _, err := sessions.Get(context.Background(), "lock:login:alice").Result(); err != nil {
		t.Fatalf("expected lock key, got %v", err)
	}
}

func TestAuthHandler_RefreshRotatesAndLogoutRevokes(t *testing.T) {
	r, _ := newAuthRouter(t)
	w := doJSON(t, r, http.MethodPost, "/v1/auth/register", 0, map[string]string{"username": "alice", "password": "correct horse"})
	first := refreshCookie(t, w)

	refresh := func(token string) *httptest.ResponseRecorder {
		return doJSON(t, r, http.MethodPost, "/v1/auth/refresh", 0, map[string]string{"refresh_token": token})
	}

	w = refresh(first)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	second := refreshCookie(t, w)
	if second == first {
		t.Fatal("refresh token was not rotated")
	}
	if w := refresh(first); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected reused token to be rejected, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", strings.NewReader(""))
	req.AddCookie(&http.Cookie{Name: refreshTokenCookieName, Value: second})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := refresh(second); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected logged out token to be rejected, got %d", w.Code)
	}
	if w := refresh("garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected garbage token to be rejected, got %d", w.Code)
	}
}

