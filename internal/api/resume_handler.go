package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"

	"eliteapply/internal/api/middleware"
	"eliteapply/internal/database"
	"eliteapply/internal/parsed"
	"eliteapply/internal/profile"
	"eliteapply/internal/resumes"
	"eliteapply/internal/storage"
)

const (
	uploadURLTTL    = 15 * time.Minute
	downloadLinkTTL = 10 * time.Minute
	pdfMagic        = "%PDF-"
)

// ResumeBlobs 是简历接口使用的对象存储能力。
type ResumeBlobs interface {
	PresignedUploadURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	StatObject(ctx context.Context, objectKey string) (storage.ObjectMeta, error)
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// ResumeHandler 负责简历上传、流水线状态查询、审阅与提交。
type ResumeHandler struct {
	resumes  *resumes.OwnerStore
	profiles *profile.Store
	blobs    ResumeBlobs
	scanner  VirusScanner
	maxBytes int64
}

// NewResumeHandler 构造 ResumeHandler；scanner 可以为 nil。
func NewResumeHandler(owner *resumes.OwnerStore, profiles *profile.Store, blobs ResumeBlobs, scanner VirusScanner, maxBytes int64) *ResumeHandler {
	return &ResumeHandler{
		resumes:  owner,
		profiles: profiles,
		blobs:    blobs,
		scanner:  scanner,
		maxBytes: maxBytes,
	}
}

type uploadURLRequest struct {
	FileName string `json:"fileName" binding:"required"`
	Size     int64  `json:"size"`
}

type uploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileKey   string `json:"fileKey"`
	ExpiresIn int    `json:"expiresIn"`
	MaxBytes  int64  `json:"maxBytes"`
}

// CreateUploadURL 签发浏览器直传 MinIO 的 PUT 链接。
func (h *ResumeHandler) CreateUploadURL(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if msg := h.checkFile(req.FileName, req.Size); msg != "" {
		BadRequest(c, msg)
		return
	}

	key := storage.NewResumeObjectKey(owner)
	url, err := h.blobs.PresignedUploadURL(c.Request.Context(), key, uploadURLTTL)
	if err != nil {
		respondError(c, err, "presign upload url")
		return
	}
	c.JSON(http.StatusOK, uploadURLResponse{
		UploadURL: url,
		FileKey:   key,
		ExpiresIn: int(uploadURLTTL.Seconds()),
		MaxBytes:  h.maxBytes,
	})
}

type registerResumeRequest struct {
	FileKey  string `json:"fileKey" binding:"required"`
	FileName string `json:"fileName" binding:"required"`
}

// RegisterUpload 登记已直传完成的文件并触发抽取，不等待流水线。
func (h *ResumeHandler) RegisterUpload(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	var req registerResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if !storage.IsResumeObjectKeyOf(owner, req.FileKey) {
		BadRequest(c, "invalid file key")
		return
	}
	if msg := h.checkFile(req.FileName, 0); msg != "" {
		BadRequest(c, msg)
		return
	}

	ctx := c.Request.Context()
	meta, err := h.blobs.StatObject(ctx, req.FileKey)
	if err != nil {
		if storage.IsNoSuchKey(err) {
			BadRequest(c, "uploaded file not found")
			return
		}
		respondError(c, err, "stat uploaded resume")
		return
	}
	if meta.Size <= 0 || meta.Size > h.maxBytes {
		_ = h.blobs.DeleteObject(ctx, req.FileKey)
		BadRequest(c, h.sizeMessage())
		return
	}

	h.create(c, owner, req.FileKey, req.FileName)
}

// UploadResume 接收 multipart 上传：校验、可选病毒扫描、写入 MinIO 后登记。
func (h *ResumeHandler) UploadResume(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if msg := h.checkFile(file.Filename, file.Size); msg != "" {
		BadRequest(c, msg)
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, err, "open uploaded file")
		return
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, h.maxBytes+1))
	if err != nil {
		respondError(c, err, "read uploaded file")
		return
	}
	if int64(len(data)) > h.maxBytes {
		BadRequest(c, h.sizeMessage())
		return
	}
	if !bytes.HasPrefix(data, []byte(pdfMagic)) {
		BadRequest(c, "Only PDF files are supported")
		return
	}

	logger := middleware.LoggerFromContext(c)
	if h.scanner != nil {
		if err := h.scanner.Scan(bytes.NewReader(data)); err != nil {
			if errors.Is(err, ErrInfected) {
				logger.Warn("infected upload rejected", slog.Any("error", err))
				BadRequest(c, ErrInfected.Error())
				return
			}
			respondError(c, err, "scan uploaded file")
			return
		}
	}

	key := storage.NewResumeObjectKey(owner)
	if _, err := h.blobs.UploadFile(c.Request.Context(), key, bytes.NewReader(data), int64(len(data)), "application/pdf"); err != nil {
		respondError(c, err, "upload resume")
		return
	}
	h.create(c, owner, key, file.Filename)
}

func (h *ResumeHandler) create(c *gin.Context, owner database.UserID, key, fileName string) {
	resume, err := h.resumes.Create(c.Request.Context(), owner, key, path.Base(fileName), middleware.GetCorrelationID(c))
	if err != nil {
		respondError(c, err, "create resume")
		return
	}
	c.JSON(http.StatusCreated, resume)
}

// ListResumes 按创建时间倒序列出当前用户的简历，不包含原文与解析结果。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	list, err := h.resumes.List(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err, "list resumes")
		return
	}
	for i := range list {
		list[i].RawText = nil
		list[i].ParsedData = nil
	}
	c.JSON(http.StatusOK, gin.H{"items": list})
}

// GetResume 返回单条记录，前端据此轮询流水线状态。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	id, ok := pathID[database.ResumeID](c)
	if !ok {
		return
	}
	resume, err := h.resumes.Get(c.Request.Context(), owner, id)
	if err != nil {
		respondError(c, err, "get resume")
		return
	}
	c.JSON(http.StatusOK, resume)
}

type parsedResponse struct {
	Payload any      `json:"payload"`
	Valid   bool     `json:"valid"`
	Issues  []string `json:"issues,omitempty"`
	Warning string   `json:"warning,omitempty"`
}

// GetParsed 返回供审阅的解析结果；校验失败只给出提示，不阻止手工编辑。
func (h *ResumeHandler) GetParsed(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	id, ok := pathID[database.ResumeID](c)
	if !ok {
		return
	}
	resume, err := h.resumes.Get(c.Request.Context(), owner, id)
	if err != nil {
		respondError(c, err, "get resume")
		return
	}
	if resume.ParsedData == nil {
		Conflict(c, fmt.Sprintf("resume is %s, no parsed data yet", resume.Status))
		return
	}

	raw := []byte(*resume.ParsedData)
	payload, err := parsed.Decode(raw)
	if err != nil {
		resp := parsedResponse{Valid: false, Issues: parsed.Issues(err), Warning: parsed.WarningMessage}
		if json.Valid(raw) {
			resp.Payload = json.RawMessage(raw)
		}
		middleware.LoggerFromContext(c).Warn("parsed data failed validation",
			slog.Uint64("resume_id", uint64(id)),
			slog.Any("issues", resp.Issues),
		)
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(http.StatusOK, parsedResponse{Payload: payload, Valid: true})
}

// RetryResume 对 failed 的记录重新投递抽取任务。
func (h *ResumeHandler) RetryResume(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	id, ok := pathID[database.ResumeID](c)
	if !ok {
		return
	}
	resume, err := h.resumes.Retry(c.Request.Context(), owner, id, middleware.GetCorrelationID(c))
	if err != nil {
		respondError(c, err, "retry resume")
		return
	}
	c.JSON(http.StatusAccepted, resume)
}

// SetPrimary 把指定简历设为主简历。
func (h *ResumeHandler) SetPrimary(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	id, ok := pathID[database.ResumeID](c)
	if !ok {
		return
	}
	resume, err := h.resumes.SetPrimary(c.Request.Context(), owner, id)
	if err != nil {
		respondError(c, err, "set primary resume")
		return
	}
	c.JSON(http.StatusOK, resume)
}

// CommitResume 把审阅后的数据写入个人档案；请求体必须通过校验。
func (h *ResumeHandler) CommitResume(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	id, ok := pathID[database.ResumeID](c)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		BadRequest(c, "invalid body")
		return
	}
	payload, err := parsed.Decode(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resume data", "issues": parsed.Issues(err)})
		return
	}

	summary, err := h.profiles.Commit(c.Request.Context(), owner, id, payload)
	if err != nil {
		respondError(c, err, "commit resume")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetDownloadLink 返回原始 PDF 的临时下载链接。
func (h *ResumeHandler) GetDownloadLink(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	id, ok := pathID[database.ResumeID](c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	resume, err := h.resumes.Get(ctx, owner, id)
	if err != nil {
		respondError(c, err, "get resume")
		return
	}
	url, err := h.blobs.GeneratePresignedURL(ctx, resume.FileKey, downloadLinkTTL)
	if err != nil {
		respondError(c, err, "presign download url")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": int(downloadLinkTTL.Seconds())})
}

// DeleteResume 删除文件与记录。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	owner, ok := ownerFrom(c)
	if !ok {
		return
	}
	id, ok := pathID[database.ResumeID](c)
	if !ok {
		return
	}
	if err := h.resumes.Delete(c.Request.Context(), owner, id); err != nil {
		respondError(c, err, "delete resume")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ResumeHandler) checkFile(fileName string, size int64) string {
	if !strings.EqualFold(path.Ext(strings.TrimSpace(fileName)), ".pdf") {
		return "Only PDF files are supported"
	}
	if size < 0 || size > h.maxBytes {
		return h.sizeMessage()
	}
	return ""
}

func (h *ResumeHandler) sizeMessage() string {
	return fmt.Sprintf("File must be a non-empty PDF of at most %d MB", h.maxBytes/(1024*1024))
}
