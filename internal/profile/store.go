// Package profile stores the user's profile sections and commits reviewed
// resume payloads into them. Every query is scoped to the calling owner.
package profile

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"eliteapply/internal/database"
)

var (
	// ErrNotFound covers both missing rows and rows of another owner.
	ErrNotFound = errors.New("Not found")
	// ErrInvalidCategory rejects skill categories outside the four known values.
	ErrInvalidCategory = errors.New("invalid skill category")
)

// Store is the owner-scoped profile repository.
type Store struct {
	db *gorm.DB
}

// NewStore builds a Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func listOwned[M any](ctx context.Context, db *gorm.DB, owner database.UserID, order string) ([]M, error) {
	out := []M{}
	q := db.WithContext(ctx).Where("user_id = ?", owner)
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list %T: %w", out, err)
	}
	return out, nil
}

func updateOwned[M any, I database.ID](ctx context.Context, db *gorm.DB, owner database.UserID, id I, cols map[string]any) (*M, error) {
	var row M
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, owner).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if len(cols) == 0 {
			return nil
		}
		if err := tx.Model(&row).Updates(cols).Error; err != nil {
			return fmt.Errorf("update %T %d: %w", row, id, err)
		}
		return tx.Where("id = ?", id).First(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func deleteOwned[M any, I database.ID](ctx context.Context, db *gorm.DB, owner database.UserID, id I) error {
	res := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, owner).Delete(new(M))
	if res.Error != nil {
		return fmt.Errorf("delete %T %d: %w", *new(M), id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// set 仅在字段非空时写入列。
func set[T any](cols map[string]any, column string, v *T) {
	if v != nil {
		cols[column] = *v
	}
}
