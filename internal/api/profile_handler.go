package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eliteapply/internal/database"
	"eliteapply/internal/profile"
)

// ProfileHandler 暴露个人档案及各分区的增删改查。
type ProfileHandler struct {
	store *profile.Store
}

func NewProfileHandler(store *profile.Store) *ProfileHandler {
	return &ProfileHandler{store: store}
}

// GetProfile 返回基本信息；尚未创建时 profile 为 null。
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	p, err := h.store.GetProfile(c.Request.Context(), owner)
	if err != nil && !errors.Is(err, profile.ErrNotFound) {
		respondError(c, err, "get profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	var in profile.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, err.Error())
		return
	}
	p, err := h.store.UpsertProfile(c.Request.Context(), owner, in)
	if err != nil {
		respondError(c, err, "upsert profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

func (h *ProfileHandler) Completeness(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	out, err := h.store.Completeness(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err, "profile completeness")
		return
	}
	c.JSON(http.StatusOK, out)
}

// ListSkills 支持 ?category= 过滤。
func (h *ProfileHandler) ListSkills(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	items, err := h.store.ListSkills(c.Request.Context(), owner, database.SkillCategory(c.Query("category")))
	if err != nil {
		respondError(c, err, "list skills")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// BatchAddSkills 一次性写入多条技能，任一分类非法则全部拒绝。
func (h *ProfileHandler) BatchAddSkills(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	var req struct {
		Skills []database.Skill `json:"skills" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	items, err := h.store.BatchAddSkills(c.Request.Context(), owner, req.Skills)
	if err != nil {
		respondError(c, err, "batch add skills")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"items": items})
}

// 各分区的处理函数结构一致，用泛型包装 Store 方法。

func listSection[T any](list func(context.Context, database.UserID) ([]T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerFrom(c)
		if !ok {
			return
		}
		items, err := list(c.Request.Context(), owner)
		if err != nil {
			respondError(c, err, "list section")
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func addSection[T any](add func(context.Context, database.UserID, T) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerFrom(c)
		if !ok {
			return
		}
		var in T
		if err := c.ShouldBindJSON(&in); err != nil {
			BadRequest(c, err.Error())
			return
		}
		out, err := add(c.Request.Context(), owner, in)
		if err != nil {
			respondError(c, err, "add section item")
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}

func updateSection[I database.ID, P any, T any](update func(context.Context, database.UserID, I, P) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerFrom(c)
		if !ok {
			return
		}
		id, ok := pathID[I](c)
		if !ok {
			return
		}
		var patch P
		if err := c.ShouldBindJSON(&patch); err != nil {
			BadRequest(c, err.Error())
			return
		}
		out, err := update(c.Request.Context(), owner, id, patch)
		if err != nil {
			respondError(c, err, "update section item")
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func deleteSection[I database.ID](del func(context.Context, database.UserID, I) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerFrom(c)
		if !ok {
			return
		}
		id, ok := pathID[I](c)
		if !ok {
			return
		}
		if err := del(c.Request.Context(), owner, id); err != nil {
			respondError(c, err, "delete section item")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *ProfileHandler) register(rg *gin.RouterGroup) {
	rg.GET("/profile", h.GetProfile)
	rg.PUT("/profile", h.UpsertProfile)
	rg.GET("/profile/completeness", h.Completeness)

	rg.GET("/experiences", listSection(h.store.ListExperiences))
	rg.POST("/experiences", addSection(h.store.AddExperience))
	rg.PATCH("/experiences/:id", updateSection(h.store.UpdateExperience))
	rg.DELETE("/experiences/:id", deleteSection(h.store.DeleteExperience))

	rg.GET("/education", listSection(h.store.ListEducation))
	rg.POST("/education", addSection(h.store.AddEducation))
	rg.PATCH("/education/:id", updateSection(h.store.UpdateEducation))
	rg.DELETE("/education/:id", deleteSection(h.store.DeleteEducation))

	rg.GET("/skills", h.ListSkills)
	rg.POST("/skills", addSection(h.store.AddSkill))
	rg.POST("/skills/batch", h.BatchAddSkills)
	rg.PATCH("/skills/:id", updateSection(h.store.UpdateSkill))
	rg.DELETE("/skills/:id", deleteSection(h.store.DeleteSkill))

	rg.GET("/certifications", listSection(h.store.ListCertifications))
	rg.POST("/certifications", addSection(h.store.AddCertification))
	rg.PATCH("/certifications/:id", updateSection(h.store.UpdateCertification))
	rg.DELETE("/certifications/:id", deleteSection(h.store.DeleteCertification))

	rg.GET("/projects", listSection(h.store.ListProjects))
	rg.POST("/projects", addSection(h.store.AddProject))
	rg.PATCH("/projects/:id", updateSection(h.store.UpdateProject))
	rg.DELETE("/projects/:id", deleteSection(h.store.DeleteProject))
}
