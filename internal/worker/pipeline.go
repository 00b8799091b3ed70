package worker

import (
	"context"
	"errors"
	"log/slog"

	"eliteapply/internal/database"
	"eliteapply/internal/errcode"
	"eliteapply/internal/notify"
	"eliteapply/internal/resumes"
)

// ObjectReader 读取上传的 PDF。
type ObjectReader interface {
	ReadObject(ctx context.Context, objectKey string, maxBytes int64) ([]byte, error)
}

// ParseScheduler 投递解析步骤。
type ParseScheduler interface {
	ScheduleParsing(ctx context.Context, id database.ResumeID, correlationID string) error
}

// ResumeParser 调用模型得到结构化 JSON 文本。
type ResumeParser interface {
	Parse(ctx context.Context, rawText string) (string, error)
}

// StatusNotifier 把状态变化推送给前端。
type StatusNotifier interface {
	ResumeStatus(ctx context.Context, userID database.UserID, msg notify.ResumeStatusMessage) error
}

// stepFailure 是写入 failed 状态时携带的错误码与消息。
type stepFailure struct {
	code    int
	message string
}

func (f *stepFailure) Error() string { return f.message }

func fail(code int, message string) *stepFailure {
	return &stepFailure{code: code, message: message}
}

// pipeline 汇总两个步骤共享的依赖。
type pipeline struct {
	store    *resumes.PipelineStore
	notifier StatusNotifier
	logger   *slog.Logger
}

func (p *pipeline) publish(ctx context.Context, log *slog.Logger, resume *database.Resume, status database.ResumeStatus, failure *stepFailure, correlationID string) {
	if p.notifier == nil {
		return
	}
	msg := notify.ResumeStatusMessage{
		ResumeID:      resume.ID,
		Status:        status,
		ErrorCode:     errcode.OK,
		CorrelationID: correlationID,
	}
	if failure != nil {
		msg.ErrorCode = failure.code
		msg.ErrorMessage = failure.message
	}
	if err := p.notifier.ResumeStatus(ctx, resume.UserID, msg); err != nil {
		log.Warn("publish resume status failed", slog.Any("error", err))
	}
}

// advance 执行一次流水线状态迁移；记录已不存在或状态不符时返回 ok=false，任务直接跳过。
func (p *pipeline) advance(ctx context.Context, log *slog.Logger, id database.ResumeID, to database.ResumeStatus, patch resumes.Patch) (bool, error) {
	return p.advanceResult(log, p.store.Transition(ctx, id, to, patch))
}

func (p *pipeline) advanceResult(log *slog.Logger, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, resumes.ErrNotFound):
		log.Warn("resume not found, skipping task")
		return false, nil
	case errors.Is(err, resumes.ErrInvalidTransition):
		log.Warn("resume not in expected state, skipping task", slog.Any("error", err))
		return false, nil
	default:
		return false, err
	}
}

// markFailed 把记录置为 failed 并通知；步骤内的失败不会返回给 asynq。
func (p *pipeline) markFailed(ctx context.Context, log *slog.Logger, resume *database.Resume, failure *stepFailure, correlationID string) error {
	log.Error("resume pipeline step failed",
		slog.Int("error_code", failure.code),
		slog.String("error_message", failure.message),
	)
	if err := p.store.Fail(ctx, resume.ID, failure.message); err != nil {
		if errors.Is(err, resumes.ErrNotFound) || errors.Is(err, resumes.ErrInvalidTransition) {
			log.Warn("mark resume failed skipped", slog.Any("error", err))
			return nil
		}
		return err
	}
	p.publish(ctx, log, resume, database.StatusFailed, failure, correlationID)
	return nil
}
