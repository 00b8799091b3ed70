package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"eliteapply/internal/database"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeResumeExtract = "resume:extract"
	TypeResumeParse   = "resume:parse"
)

// ResumePayload 是流水线两个步骤共用的最小载荷。
type ResumePayload struct {
	ResumeID      database.ResumeID `json:"resume_id"`
	CorrelationID string            `json:"correlation_id"`
}

// NewResumeExtractTask 构造文本抽取任务。
func NewResumeExtractTask(id database.ResumeID, correlationID string) (*asynq.Task, error) {
	return newResumeTask(TypeResumeExtract, id, correlationID)
}

// NewResumeParseTask 构造 AI 解析任务。
func NewResumeParseTask(id database.ResumeID, correlationID string) (*asynq.Task, error) {
	return newResumeTask(TypeResumeParse, id, correlationID)
}

func newResumeTask(typename string, id database.ResumeID, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ResumePayload{
		ResumeID:      id,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	// 流水线不做自动重试，失败统一落到 failed 状态。
	return asynq.NewTask(typename, payload, asynq.MaxRetry(0)), nil
}

// DecodeResumePayload 解析任务载荷。
func DecodeResumePayload(t *asynq.Task) (ResumePayload, error) {
	var p ResumePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("decode %s payload: %w", t.Type(), err)
	}
	if p.ResumeID == 0 {
		return p, fmt.Errorf("decode %s payload: missing resume id", t.Type())
	}
	return p, nil
}

// Enqueuer 是 *asynq.Client 的最小子集。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher 负责把流水线步骤投递到队列。
type Dispatcher struct {
	client Enqueuer
}

// NewDispatcher 包装一个 asynq 客户端。
func NewDispatcher(client Enqueuer) *Dispatcher {
	return &Dispatcher{client: client}
}

// ScheduleExtraction 投递 resume:extract。
func (d *Dispatcher) ScheduleExtraction(ctx context.Context, id database.ResumeID, correlationID string) error {
	task, err := NewResumeExtractTask(id, correlationID)
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s for resume %d: %w", TypeResumeExtract, id, err)
	}
	return nil
}

// ScheduleParsing 投递一次性的 resume:parse。
func (d *Dispatcher) ScheduleParsing(ctx context.Context, id database.ResumeID, correlationID string) error {
	task, err := NewResumeParseTask(id, correlationID)
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s for resume %d: %w", TypeResumeParse, id, err)
	}
	return nil
}
