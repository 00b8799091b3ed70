package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"eliteapply/internal/api/middleware"
	"eliteapply/internal/coverletter"
	"eliteapply/internal/database"
	"eliteapply/internal/extension"
	"eliteapply/internal/profile"
	"eliteapply/internal/resumes"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func Unauthorized(c *gin.Context)           { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)   { Error(c, http.StatusConflict, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }

// respondError 把领域错误映射为 HTTP 状态码；他人的资源与不存在的资源一律 404。
func respondError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, database.ErrInvalidID):
		BadRequest(c, "invalid id")
	case errors.Is(err, resumes.ErrNotFound), errors.Is(err, profile.ErrNotFound):
		NotFound(c, "Not found")
	case errors.Is(err, resumes.ErrInvalidTransition):
		Conflict(c, err.Error())
	case errors.Is(err, resumes.ErrFileKeyTaken):
		Conflict(c, err.Error())
	case errors.Is(err, profile.ErrInvalidCategory),
		errors.Is(err, extension.ErrEmptyAPIKey),
		errors.Is(err, extension.ErrUnknownMessage),
		errors.Is(err, coverletter.ErrEmptyDescription),
		errors.Is(err, coverletter.ErrDescriptionTooShort):
		BadRequest(c, err.Error())
	default:
		middleware.LoggerFromContext(c).Error(action+" failed", slog.Any("error", err))
		Internal(c, "internal error")
	}
}

// ownerFrom 读取认证中间件写入的用户 ID，缺失时直接中止请求。
func ownerFrom(c *gin.Context) (database.UserID, bool) {
	owner, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
	}
	return owner, ok
}

// pathID 解析 :id 路径参数。
func pathID[T database.ID](c *gin.Context) (T, bool) {
	id, err := database.ParseID[T](c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
