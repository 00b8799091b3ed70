package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"eliteapply/internal/api/middleware"
	"eliteapply/internal/auth"
	"eliteapply/internal/config"
	"eliteapply/internal/database"
)

const (
	refreshTokenCookieName         = "refresh_token"
	refreshTokenBlacklistKeyPrefix = "auth:refresh:blacklist:"
)

// TokenService 签发与校验令牌。
type TokenService interface {
	Issue(userID database.UserID) (auth.TokenPair, error)
	ParseRefresh(token string) (*auth.Claims, error)
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

// AuthHandler 处理注册、登录、刷新与退出。
type AuthHandler struct {
	accounts *auth.Accounts
	tokens   TokenService
	sessions SessionStore
	limits   config.AuthConfig
	now      func() time.Time
}

// NewAuthHandler 构造认证处理器。
func NewAuthHandler(accounts *auth.Accounts, tokens TokenService, sessions SessionStore, limits config.AuthConfig) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		tokens:   tokens,
		sessions: sessions,
		limits:   limits,
		now:      time.Now,
	}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Register 创建新账号并直接登录。
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	logger := middleware.LoggerFromContext(c).With(slog.String("username", req.Username))
	user, err := h.accounts.Create(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			Conflict(c, err.Error())
			return
		}
		logger.Error("create user failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)))
	h.replyWithTokenPair(c, user.ID, http.StatusCreated)
}

// Login 校验口令并返回令牌；按 IP+用户名限流，连续失败会暂时锁定账号。
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	username := strings.ToLower(strings.TrimSpace(req.Username))
	logger := middleware.LoggerFromContext(c).With(slog.String("username", username))

	rateKey := "rate:login:" + c.ClientIP() + ":" + username + ":" + h.now().UTC().Format("2006010215")
	if count, err := incrWithTTL(ctx, h.sessions, rateKey, time.Hour); err == nil && h.limits.LoginRateLimitPerHour > 0 && count > int64(h.limits.LoginRateLimitPerHour) {
		Error(c, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	if ttl, _ := h.sessions.TTL(ctx, "lock:login:"+username).Result(); ttl > 0 {
		Error(c, http.StatusTooManyRequests, "account temporarily locked")
		return
	}

	user, err := h.accounts.Verify(ctx, username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Info("login failed")
			h.recordLoginFailure(ctx, username)
			Unauthorized(c)
			return
		}
		logger.Error("login lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	_ = h.sessions.Del(ctx, "lock:login:fail:"+username).Err()
	h.replyWithTokenPair(c, user.ID, http.StatusOK)
}

// Refresh 轮换刷新令牌：旧令牌进入黑名单，返回新的一对令牌。
func (h *AuthHandler) Refresh(c *gin.Context) {
	claims, ok := h.validRefreshClaims(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c).With(slog.Uint64("user_id", uint64(claims.UserID)))

	exists, err := h.accounts.Exists(ctx, claims.UserID)
	if err != nil {
		logger.Error("refresh user lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if !exists {
		Unauthorized(c)
		return
	}
	if err := h.revoke(ctx, claims); err != nil {
		logger.Error("revoke refresh token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	h.replyWithTokenPair(c, claims.UserID, http.StatusOK)
}

// Logout 吊销刷新令牌并清除 Cookie。
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := h.validRefreshClaims(c)
	if !ok {
		return
	}
	if err := h.revoke(c.Request.Context(), claims); err != nil {
		middleware.LoggerFromContext(c).Error("revoke refresh token failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	h.writeRefreshCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) validRefreshClaims(c *gin.Context) (*auth.Claims, bool) {
	raw := h.extractRefreshToken(c)
	if raw == "" {
		Unauthorized(c)
		return nil, false
	}
	claims, err := h.tokens.ParseRefresh(raw)
	if err != nil {
		middleware.LoggerFromContext(c).Info("refresh token rejected", slog.Any("error", err))
		Unauthorized(c)
		return nil, false
	}

	err = h.sessions.Get(c.Request.Context(), refreshTokenBlacklistKeyPrefix+claims.ID).Err()
	switch {
	case err == nil:
		Unauthorized(c)
		return nil, false
	case !errors.Is(err, redis.Nil):
		middleware.LoggerFromContext(c).Error("refresh blacklist lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return nil, false
	}
	return claims, true
}

func (h *AuthHandler) replyWithTokenPair(c *gin.Context, userID database.UserID, status int) {
	pair, err := h.tokens.Issue(userID)
	if err != nil {
		middleware.LoggerFromContext(c).Error("issue token pair failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	maxAge := int(h.tokens.RefreshTokenTTL().Seconds())
	if maxAge <= 0 {
		maxAge = int(time.Hour.Seconds())
	}
	h.writeRefreshCookie(c, pair.RefreshToken, maxAge)
	c.JSON(status, tokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.tokens.AccessTokenTTL().Seconds()),
	})
}

func (h *AuthHandler) extractRefreshToken(c *gin.Context) string {
	if token, err := c.Cookie(refreshTokenCookieName); err == nil && token != "" {
		return token
	}
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err == nil {
		return strings.TrimSpace(req.RefreshToken)
	}
	return ""
}

func (h *AuthHandler) writeRefreshCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     refreshTokenCookieName,
		Value:    value,
		MaxAge:   maxAge,
		Path:     "/",
		Secure:   isHTTPSRequest(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Domain:   strings.TrimSpace(h.limits.CookieDomain),
	})
}

func (h *AuthHandler) revoke(ctx context.Context, claims *auth.Claims) error {
	ttl := h.tokens.RefreshTokenTTL()
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Time.Sub(h.now())
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return h.sessions.Set(ctx, refreshTokenBlacklistKeyPrefix+claims.ID, "revoked", ttl).Err()
}

func (h *AuthHandler) recordLoginFailure(ctx context.Context, username string) {
	if h.limits.LoginLockThreshold <= 0 {
		return
	}
	count, err := incrWithTTL(ctx, h.sessions, "lock:login:fail:"+username, h.limits.LoginLockTTL)
	if err != nil {
		return
	}
	if count >= int64(h.limits.LoginLockThreshold) {
		_ = h.sessions.Set(ctx, "lock:login:"+username, "1", h.limits.LoginLockTTL).Err()
	}
}

func isHTTPSRequest(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.Request.Header.Get("X-Forwarded-Proto"), "https")
}
