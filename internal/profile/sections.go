package profile

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"eliteapply/internal/database"
)

// ---- experiences ----

// ExperiencePatch is a partial update; nil fields are left as stored.
type ExperiencePatch struct {
	Company      *string   `json:"company"`
	Title        *string   `json:"title"`
	StartDate    *string   `json:"startDate"`
	EndDate      *string   `json:"endDate"`
	IsCurrent    *bool     `json:"isCurrent"`
	Description  *string   `json:"description"`
	Achievements *[]string `json:"achievements"`
	Order        *int      `json:"order"`
}

func (p ExperiencePatch) columns() map[string]any {
	cols := map[string]any{}
	set(cols, "company", p.Company)
	set(cols, "title", p.Title)
	set(cols, "start_date", p.StartDate)
	set(cols, "end_date", p.EndDate)
	set(cols, "is_current", p.IsCurrent)
	set(cols, "description", p.Description)
	if p.Achievements != nil {
		cols["achievements"] = datatypes.JSONSlice[string](*p.Achievements)
	}
	set(cols, "sort_order", p.Order)
	return cols
}

func (s *Store) ListExperiences(ctx context.Context, owner database.UserID) ([]database.Experience, error) {
	return listOwned[database.Experience](ctx, s.db, owner, "sort_order, id")
}

func (s *Store) AddExperience(ctx context.Context, owner database.UserID, e database.Experience) (*database.Experience, error) {
	e.ID, e.UserID = 0, owner
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return nil, fmt.Errorf("create experience: %w", err)
	}
	return &e, nil
}

func (s *Store) UpdateExperience(ctx context.Context, owner database.UserID, id database.ExperienceID, p ExperiencePatch) (*database.Experience, error) {
	return updateOwned[database.Experience](ctx, s.db, owner, id, p.columns())
}

func (s *Store) DeleteExperience(ctx context.Context, owner database.UserID, id database.ExperienceID) error {
	return deleteOwned[database.Experience](ctx, s.db, owner, id)
}

// ---- education ----

type EducationPatch struct {
	School      *string `json:"school"`
	Degree      *string `json:"degree"`
	Field       *string `json:"field"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	GPA         *string `json:"gpa"`
	Description *string `json:"description"`
	Order       *int    `json:"order"`
}

func (p EducationPatch) columns() map[string]any {
	cols := map[string]any{}
	set(cols, "school", p.School)
	set(cols, "degree", p.Degree)
	set(cols, "field", p.Field)
	set(cols, "start_date", p.StartDate)
	set(cols, "end_date", p.EndDate)
	set(cols, "gpa", p.GPA)
	set(cols, "description", p.Description)
	set(cols, "sort_order", p.Order)
	return cols
}

func (s *Store) ListEducation(ctx context.Context, owner database.UserID) ([]database.Education, error) {
	return listOwned[database.Education](ctx, s.db, owner, "sort_order, id")
}

func (s *Store) AddEducation(ctx context.Context, owner database.UserID, e database.Education) (*database.Education, error) {
	e.ID, e.UserID = 0, owner
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return nil, fmt.Errorf("create education: %w", err)
	}
	return &e, nil
}

func (s *Store) UpdateEducation(ctx context.Context, owner database.UserID, id database.EducationID, p EducationPatch) (*database.Education, error) {
	return updateOwned[database.Education](ctx, s.db, owner, id, p.columns())
}

func (s *Store) DeleteEducation(ctx context.Context, owner database.UserID, id database.EducationID) error {
	return deleteOwned[database.Education](ctx, s.db, owner, id)
}

// ---- skills ----

type SkillPatch struct {
	Name        *string                 `json:"name"`
	Category    *database.SkillCategory `json:"category"`
	Proficiency *string                 `json:"proficiency"`
}

func (p SkillPatch) columns() map[string]any {
	cols := map[string]any{}
	set(cols, "name", p.Name)
	set(cols, "category", p.Category)
	set(cols, "proficiency", p.Proficiency)
	return cols
}

// ListSkills returns all skills, or only one category when category is non-empty.
func (s *Store) ListSkills(ctx context.Context, owner database.UserID, category database.SkillCategory) ([]database.Skill, error) {
	if category == "" {
		return listOwned[database.Skill](ctx, s.db, owner, "id")
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	out := []database.Skill{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND category = ?", owner, category).
		Order("id").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return out, nil
}

func (s *Store) AddSkill(ctx context.Context, owner database.UserID, sk database.Skill) (*database.Skill, error) {
	out, err := s.BatchAddSkills(ctx, owner, []database.Skill{sk})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// BatchAddSkills inserts all skills or none.
func (s *Store) BatchAddSkills(ctx context.Context, owner database.UserID, skills []database.Skill) ([]database.Skill, error) {
	if len(skills) == 0 {
		return []database.Skill{}, nil
	}
	rows := make([]database.Skill, len(skills))
	for i, sk := range skills {
		if !sk.Category.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, sk.Category)
		}
		sk.ID, sk.UserID = 0, owner
		rows[i] = sk
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("create skills: %w", err)
	}
	return rows, nil
}

func (s *Store) UpdateSkill(ctx context.Context, owner database.UserID, id database.SkillID, p SkillPatch) (*database.Skill, error) {
	if p.Category != nil && !p.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, *p.Category)
	}
	return updateOwned[database.Skill](ctx, s.db, owner, id, p.columns())
}

func (s *Store) DeleteSkill(ctx context.Context, owner database.UserID, id database.SkillID) error {
	return deleteOwned[database.Skill](ctx, s.db, owner, id)
}

// ---- certifications ----

type CertificationPatch struct {
	Name           *string `json:"name"`
	Issuer         *string `json:"issuer"`
	IssueDate      *string `json:"issueDate"`
	ExpirationDate *string `json:"expirationDate"`
	CredentialURL  *string `json:"credentialUrl"`
}

func (p CertificationPatch) columns() map[string]any {
	cols := map[string]any{}
	set(cols, "name", p.Name)
	set(cols, "issuer", p.Issuer)
	set(cols, "issue_date", p.IssueDate)
	set(cols, "expiration_date", p.ExpirationDate)
	set(cols, "credential_url", p.CredentialURL)
	return cols
}

func (s *Store) ListCertifications(ctx context.Context, owner database.UserID) ([]database.Certification, error) {
	return listOwned[database.Certification](ctx, s.db, owner, "id")
}

func (s *Store) AddCertification(ctx context.Context, owner database.UserID, c database.Certification) (*database.Certification, error) {
	c.ID, c.UserID = 0, owner
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, fmt.Errorf("create certification: %w", err)
	}
	return &c, nil
}

func (s *Store) UpdateCertification(ctx context.Context, owner database.UserID, id database.CertificationID, p CertificationPatch) (*database.Certification, error) {
	return updateOwned[database.Certification](ctx, s.db, owner, id, p.columns())
}

func (s *Store) DeleteCertification(ctx context.Context, owner database.UserID, id database.CertificationID) error {
	return deleteOwned[database.Certification](ctx, s.db, owner, id)
}

// ---- projects ----

type ProjectPatch struct {
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	URL          *string   `json:"url"`
	Technologies *[]string `json:"technologies"`
	StartDate    *string   `json:"startDate"`
	EndDate      *string   `json:"endDate"`
}

func (p ProjectPatch) columns() map[string]any {
	cols := map[string]any{}
	set(cols, "name", p.Name)
	set(cols, "description", p.Description)
	set(cols, "url", p.URL)
	if p.Technologies != nil {
		cols["technologies"] = datatypes.JSONSlice[string](*p.Technologies)
	}
	set(cols, "start_date", p.StartDate)
	set(cols, "end_date", p.EndDate)
	return cols
}

func (s *Store) ListProjects(ctx context.Context, owner database.UserID) ([]database.Project, error) {
	return listOwned[database.Project](ctx, s.db, owner, "id")
}

func (s *Store) AddProject(ctx context.Context, owner database.UserID, p database.Project) (*database.Project, error) {
	p.ID, p.UserID = 0, owner
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &p, nil
}

func (s *Store) UpdateProject(ctx context.Context, owner database.UserID, id database.ProjectID, p ProjectPatch) (*database.Project, error) {
	return updateOwned[database.Project](ctx, s.db, owner, id, p.columns())
}

func (s *Store) DeleteProject(ctx context.Context, owner database.UserID, id database.ProjectID) error {
	return deleteOwned[database.Project](ctx, s.db, owner, id)
}
