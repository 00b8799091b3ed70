package resumes

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"eliteapply/internal/database"
)

// Scheduler hands a record to the extraction step.
type Scheduler interface {
	ScheduleExtraction(ctx context.Context, id database.ResumeID, correlationID string) error
}

// BlobRemover deletes the stored PDF behind a record.
type BlobRemover interface {
	DeleteObject(ctx context.Context, objectKey string) error
}

// OwnerStore exposes resume operations on behalf of an authenticated user.
// A record owned by someone else behaves exactly like a missing one.
type OwnerStore struct {
	db        *gorm.DB
	blobs     BlobRemover
	scheduler Scheduler
}

// NewOwnerStore builds an OwnerStore.
func NewOwnerStore(db *gorm.DB, blobs BlobRemover, scheduler Scheduler) *OwnerStore {
	return &OwnerStore{db: db, blobs: blobs, scheduler: scheduler}
}

// Create registers an uploaded PDF and schedules extraction without waiting
// for it. The first record of an owner becomes primary. If scheduling fails
// the record is moved to failed and returned without error.
func (s *OwnerStore) Create(ctx context.Context, owner database.UserID, fileKey, fileName, correlationID string) (*database.Resume, error) {
	resume := database.Resume{
		UserID:   owner,
		FileKey:  fileKey,
		FileName: fileName,
		Status:   database.StatusUploaded,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwner(tx, owner); err != nil {
			return err
		}

		var taken int64
		if err := tx.Model(&database.Resume{}).Where("file_key = ?", fileKey).Count(&taken).Error; err != nil {
			return fmt.Errorf("lookup file key: %w", err)
		}
		if taken > 0 {
			return ErrFileKeyTaken
		}

		var existing int64
		if err := tx.Model(&database.Resume{}).Where("user_id = ?", owner).Count(&existing).Error; err != nil {
			return fmt.Errorf("count resumes: %w", err)
		}
		resume.IsPrimary = existing == 0
		if err := tx.Create(&resume).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrFileKeyTaken
			}
			return fmt.Errorf("create resume: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.scheduler.ScheduleExtraction(ctx, resume.ID, correlationID); err != nil {
		msg := fmt.Sprintf("failed to schedule extraction: %v", err)
		if terr := transition(ctx, s.db, resume.ID, database.StatusFailed, Patch{ErrorMessage: &msg}); terr != nil {
			return nil, fmt.Errorf("%s; mark failed: %w", msg, terr)
		}
		return s.Get(ctx, owner, resume.ID)
	}
	return &resume, nil
}

// Get returns one record of the owner.
func (s *OwnerStore) Get(ctx context.Context, owner database.UserID, id database.ResumeID) (*database.Resume, error) {
	return getOwned(s.db.WithContext(ctx), owner, id)
}

// List returns the owner's records, newest first.
func (s *OwnerStore) List(ctx context.Context, owner database.UserID) ([]database.Resume, error) {
	var out []database.Resume
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	return out, nil
}

// Primary returns the owner's primary record.
func (s *OwnerStore) Primary(ctx context.Context, owner database.UserID) (*database.Resume, error) {
	var resume database.Resume
	err := s.db.WithContext(ctx).Where("user_id = ? AND is_primary = ?", owner, true).First(&resume).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load primary resume: %w", err)
	}
	return &resume, nil
}

// SetPrimary makes id the only primary record of the owner.
func (s *OwnerStore) SetPrimary(ctx context.Context, owner database.UserID, id database.ResumeID) (*database.Resume, error) {
	var out *database.Resume
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwner(tx, owner); err != nil {
			return err
		}
		resume, err := getOwned(tx, owner, id)
		if err != nil {
			return err
		}
		if err := tx.Model(&database.Resume{}).
			Where("user_id = ? AND id <> ?", owner, id).
			Update("is_primary", false).Error; err != nil {
			return fmt.Errorf("clear primary: %w", err)
		}
		if err := tx.Model(resume).Update("is_primary", true).Error; err != nil {
			return fmt.Errorf("set primary: %w", err)
		}
		resume.IsPrimary = true
		out = resume
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the stored file and then the record. When the primary record
// goes, the most recent remaining one is promoted.
func (s *OwnerStore) Delete(ctx context.Context, owner database.UserID, id database.ResumeID) error {
	resume, err := s.Get(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.blobs.DeleteObject(ctx, resume.FileKey); err != nil {
		return fmt.Errorf("delete resume file: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwner(tx, owner); err != nil {
			return err
		}
		res := tx.Where("id = ? AND user_id = ?", id, owner).Delete(&database.Resume{})
		if res.Error != nil {
			return fmt.Errorf("delete resume: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if !resume.IsPrimary {
			return nil
		}

		var next database.Resume
		err := tx.Where("user_id = ?", owner).Order("created_at DESC").Order("id DESC").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("find next primary: %w", err)
		}
		if err := tx.Model(&next).Update("is_primary", true).Error; err != nil {
			return fmt.Errorf("promote resume %d: %w", next.ID, err)
		}
		return nil
	})
}

// Retry moves a failed record back to extracting, clearing previous
// results, and schedules extraction. A scheduling failure puts the record
// back to failed and is reported on it rather than returned.
func (s *OwnerStore) Retry(ctx context.Context, owner database.UserID, id database.ResumeID, correlationID string) (*database.Resume, error) {
	resume, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if resume.Status != database.StatusFailed {
		return nil, fmt.Errorf("%w: retry requires failed, got %s", ErrInvalidTransition, resume.Status)
	}
	if err := transition(ctx, s.db, resume.ID, database.StatusExtracting, Patch{}); err != nil {
		return nil, err
	}

	if err := s.scheduler.ScheduleExtraction(ctx, resume.ID, correlationID); err != nil {
		msg := fmt.Sprintf("failed to schedule extraction: %v", err)
		if terr := transition(ctx, s.db, resume.ID, database.StatusFailed, Patch{ErrorMessage: &msg}); terr != nil {
			return nil, fmt.Errorf("%s; mark failed: %w", msg, terr)
		}
	}
	return s.Get(ctx, owner, resume.ID)
}

// lockOwner takes a row lock on the owner's user record so that every
// transaction touching the owner's primary flag runs one at a time.
func lockOwner(tx *gorm.DB, owner database.UserID) error {
	var users []database.User
	if err := lockOwnerQuery(tx, owner).Find(&users).Error; err != nil {
		return fmt.Errorf("lock owner %d: %w", owner, err)
	}
	return nil
}

func lockOwnerQuery(tx *gorm.DB, owner database.UserID) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Select("id").
		Where("id = ?", owner)
}

func getOwned(db *gorm.DB, owner database.UserID, id database.ResumeID) (*database.Resume, error) {
	var resume database.Resume
	if err := db.Where("id = ? AND user_id = ?", id, owner).First(&resume).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load resume %d: %w", id, err)
	}
	return &resume, nil
}
