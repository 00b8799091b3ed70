package resumes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"eliteapply/internal/database"
)

// Patch carries the fields written together with a status change.
// Nil fields are left untouched.
type Patch struct {
	RawText      *string
	ParsedData   *string
	ParsedAt     *time.Time
	ErrorMessage *string
}

// PipelineStore is the trusted capability used by the worker. It performs no
// identity checks and must only be wired into task handlers.
type PipelineStore struct {
	db *gorm.DB
}

// NewPipelineStore builds a PipelineStore.
func NewPipelineStore(db *gorm.DB) *PipelineStore {
	return &PipelineStore{db: db}
}

// Get loads a record by id regardless of owner.
func (s *PipelineStore) Get(ctx context.Context, id database.ResumeID) (*database.Resume, error) {
	var resume database.Resume
	if err := s.db.WithContext(ctx).First(&resume, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load resume %d: %w", id, err)
	}
	return &resume, nil
}

// Transition moves the record to status `to` in one conditional update.
func (s *PipelineStore) Transition(ctx context.Context, id database.ResumeID, to database.ResumeStatus, patch Patch) error {
	return transition(ctx, s.db, id, to, patch)
}

// Fail moves the record to failed with msg as the captured error.
func (s *PipelineStore) Fail(ctx context.Context, id database.ResumeID, msg string) error {
	return transition(ctx, s.db, id, database.StatusFailed, Patch{ErrorMessage: &msg})
}

func transition(ctx context.Context, db *gorm.DB, id database.ResumeID, to database.ResumeStatus, patch Patch) error {
	from, ok := predecessors[to]
	if !ok {
		return fmt.Errorf("%w: %s is not a pipeline target", ErrInvalidTransition, to)
	}

	updates := map[string]any{"status": to}
	if to == database.StatusExtracting {
		// 重新抽取时丢弃上一次的部分结果。
		updates["raw_text"] = nil
		updates["parsed_data"] = nil
		updates["parsed_at"] = nil
		updates["committed_at"] = nil
		updates["error_message"] = nil
	}
	if patch.RawText != nil {
		updates["raw_text"] = *patch.RawText
	}
	if patch.ParsedData != nil {
		updates["parsed_data"] = *patch.ParsedData
	}
	if patch.ParsedAt != nil {
		updates["parsed_at"] = *patch.ParsedAt
	}
	if patch.ErrorMessage != nil {
		updates["error_message"] = *patch.ErrorMessage
	}

	res := db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update resume %d to %s: %w", id, to, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var current database.Resume
	if err := db.WithContext(ctx).Select("id", "status").First(&current, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load resume %d: %w", id, err)
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
}
