package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"eliteapply/internal/database"
	"eliteapply/internal/errcode"
	"eliteapply/internal/pdftext"
	"eliteapply/internal/resumes"
	"eliteapply/internal/storage"
	"eliteapply/internal/tasks"
)

// ExtractHandler 消费 resume:extract：读取 PDF、抽取文本并投递解析。
type ExtractHandler struct {
	pipeline
	objects   ObjectReader
	scheduler ParseScheduler
	maxBytes  int64
	extract   func([]byte) (string, error)
}

// NewExtractHandler 创建文本抽取处理器。
func NewExtractHandler(
	store *resumes.PipelineStore,
	objects ObjectReader,
	scheduler ParseScheduler,
	notifier StatusNotifier,
	logger *slog.Logger,
	maxBytes int64,
) *ExtractHandler {
	return &ExtractHandler{
		pipeline:  pipeline{store: store, notifier: notifier, logger: logger},
		objects:   objects,
		scheduler: scheduler,
		maxBytes:  maxBytes,
		extract:   pdftext.Extract,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExtractHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	log := h.logger

	payload, err := tasks.DecodeResumePayload(t)
	if err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("resume_id", uint64(payload.ResumeID)),
	)

	ok, err := h.claim(ctx, log, payload.ResumeID)
	if err != nil || !ok {
		return err
	}

	resume, err := h.store.Get(ctx, payload.ResumeID)
	if err != nil {
		if errors.Is(err, resumes.ErrNotFound) {
			log.Warn("resume deleted during extraction, skipping task")
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}
	log = log.With(slog.Uint64("user_id", uint64(resume.UserID)))
	log.Info("extracting resume text")
	h.publish(ctx, log, resume, database.StatusExtracting, nil, payload.CorrelationID)

	text, failure := h.readText(ctx, resume.FileKey)
	if failure != nil {
		return h.markFailed(ctx, log, resume, failure, payload.CorrelationID)
	}

	if err := h.store.Transition(ctx, resume.ID, database.StatusParsing, resumes.Patch{RawText: &text}); err != nil {
		if errors.Is(err, resumes.ErrNotFound) || errors.Is(err, resumes.ErrInvalidTransition) {
			log.Warn("store extracted text skipped", slog.Any("error", err))
			return nil
		}
		log.Error("store extracted text failed", slog.Any("error", err))
		return h.markFailed(ctx, log, resume, fail(errcode.SystemError, err.Error()), payload.CorrelationID)
	}
	h.publish(ctx, log, resume, database.StatusParsing, nil, payload.CorrelationID)

	if err := h.scheduler.ScheduleParsing(ctx, resume.ID, payload.CorrelationID); err != nil {
		msg := fmt.Sprintf("failed to schedule parsing: %v", err)
		return h.markFailed(ctx, log, resume, fail(errcode.SystemError, msg), payload.CorrelationID)
	}

	log.Info("resume text extracted", slog.Int("chars", len([]rune(text))))
	return nil
}

// claim 把记录推进到 extracting；手动重试时记录已处于 extracting，直接接手。
func (h *ExtractHandler) claim(ctx context.Context, log *slog.Logger, id database.ResumeID) (bool, error) {
	err := h.store.Transition(ctx, id, database.StatusExtracting, resumes.Patch{})
	if !errors.Is(err, resumes.ErrInvalidTransition) {
		return h.advanceResult(log, err)
	}
	resume, gerr := h.store.Get(ctx, id)
	if gerr == nil && resume.Status == database.StatusExtracting {
		return true, nil
	}
	return h.advanceResult(log, err)
}

func (h *ExtractHandler) readText(ctx context.Context, fileKey string) (string, *stepFailure) {
	data, err := h.objects.ReadObject(ctx, fileKey, h.maxBytes)
	if err != nil {
		if storage.IsNoSuchKey(err) {
			return "", fail(errcode.ResourceMissing, "File not found in storage")
		}
		return "", fail(errcode.SystemError, err.Error())
	}

	text, err := h.extract(data)
	if err != nil {
		if errors.Is(err, pdftext.ErrUnreadable) {
			return "", fail(errcode.UnreadableFile, err.Error())
		}
		return "", fail(errcode.UnreadableFile, pdftext.ErrUnreadable.Error())
	}
	return text, nil
}
