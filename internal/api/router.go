package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eliteapply/internal/api/middleware"
	"eliteapply/internal/metrics"
)

// NewRouter 构建带公共中间件的 Gin 引擎，并挂载 /health 与受保护的 /metrics。
func NewRouter(logger *slog.Logger, internalSecret string) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		metrics.GinMiddleware(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", middleware.InternalSecretMiddleware(internalSecret), gin.WrapH(promhttp.Handler()))

	return router
}
