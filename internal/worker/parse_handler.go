package worker

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"eliteapply/internal/database"
	"eliteapply/internal/errcode"
	"eliteapply/internal/parsing"
	"eliteapply/internal/resumes"
	"eliteapply/internal/tasks"
)

// ParseHandler 消费 resume:parse：把原始文本交给模型并保存返回的 JSON。
type ParseHandler struct {
	pipeline
	parser ResumeParser
	now    func() time.Time
}

// NewParseHandler 创建 AI 解析处理器。
func NewParseHandler(store *resumes.PipelineStore, parser ResumeParser, notifier StatusNotifier, logger *slog.Logger) *ParseHandler {
	return &ParseHandler{
		pipeline: pipeline{store: store, notifier: notifier, logger: logger},
		parser:   parser,
		now:      time.Now,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ParseHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
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

	resume, err := h.store.Get(ctx, payload.ResumeID)
	if err != nil {
		if errors.Is(err, resumes.ErrNotFound) {
			log.Warn("resume not found, skipping task")
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}
	log = log.With(slog.Uint64("user_id", uint64(resume.UserID)))

	if resume.Status != database.StatusParsing {
		log.Warn("resume not in parsing state, skipping task", slog.String("status", string(resume.Status)))
		return nil
	}
	if resume.RawText == nil || strings.TrimSpace(*resume.RawText) == "" {
		return h.markFailed(ctx, log, resume, fail(errcode.SystemError, parsing.ErrNoText.Error()), payload.CorrelationID)
	}

	log.Info("parsing resume text")
	start := time.Now()
	parsed, err := h.parser.Parse(ctx, *resume.RawText)
	if err != nil {
		return h.markFailed(ctx, log, resume, fail(errcode.UpstreamFailure, err.Error()), payload.CorrelationID)
	}

	parsedAt := h.now()
	ok, err := h.advance(ctx, log, resume.ID, database.StatusComplete, resumes.Patch{ParsedData: &parsed, ParsedAt: &parsedAt})
	if err != nil {
		log.Error("store parsed data failed", slog.Any("error", err))
		return h.markFailed(ctx, log, resume, fail(errcode.SystemError, err.Error()), payload.CorrelationID)
	}
	if !ok {
		return nil
	}
	h.publish(ctx, log, resume, database.StatusComplete, nil, payload.CorrelationID)

	log.Info("resume parsed", slog.Duration("elapsed", time.Since(start)))
	return nil
}
