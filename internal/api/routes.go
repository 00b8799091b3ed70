package api

import (
	"github.com/gin-gonic/gin"

	"eliteapply/internal/api/middleware"
)

// Handlers 汇总所有路由处理器。
type Handlers struct {
	Auth      *AuthHandler
	Resumes   *ResumeHandler
	Profile   *ProfileHandler
	Extension *ExtensionHandler
	Ws        *WsHandler
	Tokens    middleware.AccessTokenParser
}

// RegisterRoutes 注册 /v1 下的全部业务路由。
func RegisterRoutes(router *gin.Engine, h Handlers) {
	authMiddleware := middleware.AuthMiddleware(h.Tokens)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", h.Ws.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
			authGroup.POST("/refresh", h.Auth.Refresh)
			authGroup.POST("/logout", h.Auth.Logout)
		}

		private := v1.Group("")
		private.Use(authMiddleware)

		resumeGroup := private.Group("/resumes")
		{
			resumeGroup.POST("/upload-url", h.Resumes.CreateUploadURL)
			resumeGroup.POST("", h.Resumes.RegisterUpload)
			resumeGroup.POST("/upload", h.Resumes.UploadResume)
			resumeGroup.GET("", h.Resumes.ListResumes)
			resumeGroup.GET("/:id", h.Resumes.GetResume)
			resumeGroup.GET("/:id/parsed", h.Resumes.GetParsed)
			resumeGroup.POST("/:id/retry", h.Resumes.RetryResume)
			resumeGroup.POST("/:id/primary", h.Resumes.SetPrimary)
			resumeGroup.POST("/:id/commit", h.Resumes.CommitResume)
			resumeGroup.GET("/:id/download-link", h.Resumes.GetDownloadLink)
			resumeGroup.DELETE("/:id", h.Resumes.DeleteResume)
		}

		h.Profile.register(private)

		extGroup := private.Group("/extension")
		{
			extGroup.POST("/messages", h.Extension.HandleMessage)
			extGroup.GET("/settings", h.Extension.GetSettings)
			extGroup.PUT("/settings", h.Extension.SaveSettings)
			extGroup.GET("/last-result", h.Extension.GetLastResult)
		}
	}
}
