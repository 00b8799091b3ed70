package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eliteapply/internal/extension"
)

// ExtensionHandler 是浏览器扩展的后端入口。
type ExtensionHandler struct {
	service *extension.Service
}

func NewExtensionHandler(service *extension.Service) *ExtensionHandler {
	return &ExtensionHandler{service: service}
}

// HandleMessage 接收带 type 标签的消息并返回对应的结果消息。
// 生成失败以 GENERATION_ERROR 消息返回 200，只有未知类型才是 400。
func (h *ExtensionHandler) HandleMessage(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	var req extension.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	resp, err := h.service.Handle(c.Request.Context(), owner, req)
	if err != nil {
		respondError(c, err, "handle extension message")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ExtensionHandler) GetSettings(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	settings, err := h.service.Settings(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err, "load extension settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *ExtensionHandler) SaveSettings(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	var in extension.Settings
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	settings, err := h.service.SaveSettings(c.Request.Context(), owner, in)
	if err != nil {
		respondError(c, err, "save extension settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// GetLastResult 返回最近一次生成结果，没有时 404。
func (h *ExtensionHandler) GetLastResult(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	result, err := h.service.LastResult(c.Request.Context(), owner)
	if err != nil {
		if errors.Is(err, extension.ErrNoResult) {
			NotFound(c, "no result yet")
			return
		}
		respondError(c, err, "load last result")
		return
	}
	c.JSON(http.StatusOK, result)
}
