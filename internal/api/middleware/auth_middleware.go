package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"eliteapply/internal/database"
)

const userIDKey = "userID"

// AccessTokenParser 校验访问令牌，返回令牌的 subject。
type AccessTokenParser interface {
	ParseAccess(token string) (database.UserID, error)
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// AuthMiddleware 要求 Bearer 访问令牌，并把用户 ID 注入上下文和请求日志。
func AuthMiddleware(tokens AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c)
			return
		}
		userID, err := tokens.ParseAccess(raw)
		if err != nil {
			LoggerFromContext(c).Info("access token rejected", slog.Any("error", err))
			abortUnauthorized(c)
			return
		}

		c.Set(userIDKey, userID)
		c.Set(slogLoggerKey, LoggerFromContext(c).With(slog.Uint64("user_id", uint64(userID))))
		c.Next()
	}
}

// BearerToken 从 Authorization 头中取出令牌。
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// UserIDFromContext 返回 AuthMiddleware 写入的用户 ID。
func UserIDFromContext(c *gin.Context) (database.UserID, bool) {
	value, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := value.(database.UserID)
	return id, ok && id != 0
}
