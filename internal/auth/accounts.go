package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"eliteapply/internal/database"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Accounts 管理 users 表。
type Accounts struct {
	db *gorm.DB
}

func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db}
}

// Create 注册新账号，用户名大小写不敏感地唯一。
func (a *Accounts) Create(ctx context.Context, username, password string) (*database.User, error) {
	username = normalizeUsername(username)

	var count int64
	if err := a.db.WithContext(ctx).Model(&database.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := database.User{Username: username, PasswordHash: hashed}
	if err := a.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Verify 校验用户名口令；用户不存在与口令错误返回同一个错误。
func (a *Accounts) Verify(ctx context.Context, username, password string) (*database.User, error) {
	var user database.User
	err := a.db.WithContext(ctx).Where("username = ?", normalizeUsername(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Exists 用于刷新令牌时确认账号仍然存在。
func (a *Accounts) Exists(ctx context.Context, id database.UserID) (bool, error) {
	var count int64
	if err := a.db.WithContext(ctx).Model(&database.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("lookup user %d: %w", id, err)
	}
	return count > 0, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
