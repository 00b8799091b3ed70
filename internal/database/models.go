package database

import (
	"time"

	"gorm.io/datatypes"
)

// User 表示系统中的账号信息，其 ID 即令牌中的 subject。
type User struct {
	ID           UserID `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:64"`
	PasswordHash string `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ResumeStatus 为对外可见的简历处理状态。
type ResumeStatus string

const (
	StatusUploaded   ResumeStatus = "uploaded"
	StatusExtracting ResumeStatus = "extracting"
	StatusParsing    ResumeStatus = "parsing"
	StatusComplete   ResumeStatus = "complete"
	StatusFailed     ResumeStatus = "failed"
)

// Resume 表示一次上传的简历文件及其解析流水线状态。
type Resume struct {
	ID           ResumeID     `gorm:"primaryKey" json:"id"`
	UserID       UserID       `gorm:"index;not null" json:"-"`
	FileKey      string       `gorm:"size:512;not null;uniqueIndex" json:"fileKey"`
	FileName     string       `gorm:"size:255" json:"fileName"`
	RawText      *string      `gorm:"type:text" json:"rawText,omitempty"`
	ParsedData   *string      `gorm:"type:text" json:"parsedData,omitempty"`
	ParsedAt     *time.Time   `json:"parsedAt,omitempty"`
	CommittedAt  *time.Time   `json:"committedAt,omitempty"`
	IsPrimary    bool         `gorm:"not null;default:false" json:"isPrimary"`
	Status       ResumeStatus `gorm:"size:16;index;not null" json:"status"`
	ErrorMessage *string      `gorm:"type:text" json:"errorMessage,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Profile 为每个用户唯一的基本信息。
type Profile struct {
	ID          ProfileID `gorm:"primaryKey" json:"id"`
	UserID      UserID    `gorm:"uniqueIndex;not null" json:"-"`
	Name        string    `gorm:"size:255" json:"name"`
	Email       *string   `gorm:"size:255" json:"email,omitempty"`
	Phone       *string   `gorm:"size:64" json:"phone,omitempty"`
	Location    *string   `gorm:"size:255" json:"location,omitempty"`
	Summary     *string   `gorm:"type:text" json:"summary,omitempty"`
	LinkedinURL *string   `gorm:"size:512" json:"linkedinUrl,omitempty"`
	WebsiteURL  *string   `gorm:"size:512" json:"websiteUrl,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Experience 为工作经历；Order 仅在批量导入时按数组下标写入，允许出现空洞。
type Experience struct {
	ID           ExperienceID                `gorm:"primaryKey" json:"id"`
	UserID       UserID                      `gorm:"index;not null" json:"-"`
	Company      string                      `gorm:"size:255" json:"company"`
	Title        string                      `gorm:"size:255" json:"title"`
	StartDate    string                      `gorm:"size:32" json:"startDate"`
	EndDate      *string                     `gorm:"size:32" json:"endDate,omitempty"`
	IsCurrent    bool                        `json:"isCurrent"`
	Description  *string                     `gorm:"type:text" json:"description,omitempty"`
	Achievements datatypes.JSONSlice[string] `json:"achievements,omitempty"`
	Order        *int                        `gorm:"column:sort_order" json:"order,omitempty"`
}

// Education 为教育经历。
type Education struct {
	ID          EducationID `gorm:"primaryKey" json:"id"`
	UserID      UserID      `gorm:"index;not null" json:"-"`
	School      string      `gorm:"size:255" json:"school"`
	Degree      string      `gorm:"size:255" json:"degree"`
	Field       string      `gorm:"size:255" json:"field"`
	StartDate   string      `gorm:"size:32" json:"startDate"`
	EndDate     *string     `gorm:"size:32" json:"endDate,omitempty"`
	GPA         *string     `gorm:"column:gpa;size:32" json:"gpa,omitempty"`
	Description *string     `gorm:"type:text" json:"description,omitempty"`
	Order       *int        `gorm:"column:sort_order" json:"order,omitempty"`
}

// TableName 固定表名，避免 education 被复数化。
func (Education) TableName() string { return "education" }

// SkillCategory 为技能分类，只允许四个取值。
type SkillCategory string

const (
	SkillTechnical SkillCategory = "technical"
	SkillSoft      SkillCategory = "soft"
	SkillTool      SkillCategory = "tool"
	SkillLanguage  SkillCategory = "language"
)

// Valid 判断分类是否属于允许的取值。
func (c SkillCategory) Valid() bool {
	switch c {
	case SkillTechnical, SkillSoft, SkillTool, SkillLanguage:
		return true
	}
	return false
}

// Skill 为技能条目。
type Skill struct {
	ID          SkillID       `gorm:"primaryKey" json:"id"`
	UserID      UserID        `gorm:"index:idx_skills_user_category;not null" json:"-"`
	Name        string        `gorm:"size:255" json:"name"`
	Category    SkillCategory `gorm:"index:idx_skills_user_category;size:16" json:"category"`
	Proficiency *string       `gorm:"size:64" json:"proficiency,omitempty"`
}

// Certification 为证书条目。
type Certification struct {
	ID             CertificationID `gorm:"primaryKey" json:"id"`
	UserID         UserID          `gorm:"index;not null" json:"-"`
	Name           string          `gorm:"size:255" json:"name"`
	Issuer         string          `gorm:"size:255" json:"issuer"`
	IssueDate      string          `gorm:"size:32" json:"issueDate"`
	ExpirationDate *string         `gorm:"size:32" json:"expirationDate,omitempty"`
	CredentialURL  *string         `gorm:"size:512" json:"credentialUrl,omitempty"`
}

// Project 为项目经历。
type Project struct {
	ID           ProjectID                   `gorm:"primaryKey" json:"id"`
	UserID       UserID                      `gorm:"index;not null" json:"-"`
	Name         string                      `gorm:"size:255" json:"name"`
	Description  *string                     `gorm:"type:text" json:"description,omitempty"`
	URL          *string                     `gorm:"size:512" json:"url,omitempty"`
	Technologies datatypes.JSONSlice[string] `json:"technologies,omitempty"`
	StartDate    *string                     `gorm:"size:32" json:"startDate,omitempty"`
	EndDate      *string                     `gorm:"size:32" json:"endDate,omitempty"`
}

// AllModels 返回需要迁移的全部模型。
func AllModels() []any {
	return []any{
		&User{},
		&Resume{},
		&Profile{},
		&Experience{},
		&Education{},
		&Skill{},
		&Certification{},
		&Project{},
	}
}
