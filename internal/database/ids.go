package database

import (
	"errors"
	"strconv"
	"strings"
)

// 每个实体使用独立的 ID 类型，避免在业务逻辑中混用裸字符串或数字。
type (
	UserID          uint
	ResumeID        uint
	ProfileID       uint
	ExperienceID    uint
	EducationID     uint
	SkillID         uint
	CertificationID uint
	ProjectID       uint
)

// ErrInvalidID 表示路径参数无法解析为实体 ID。
var ErrInvalidID = errors.New("invalid id")

// ID 约束所有实体 ID 类型。
type ID interface {
	~uint
}

// ParseID 将路径参数解析为指定实体的 ID，0 与非数字均视为非法。
func ParseID[T ID](raw string) (T, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || value == 0 {
		return 0, ErrInvalidID
	}
	return T(value), nil
}
