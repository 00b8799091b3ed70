package profile

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"eliteapply/internal/database"
)

// ProfileInput upserts the basic profile. Nil fields keep their stored value.
type ProfileInput struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Location    *string `json:"location"`
	Summary     *string `json:"summary"`
	LinkedinURL *string `json:"linkedinUrl"`
	WebsiteURL  *string `json:"websiteUrl"`
}

func (in ProfileInput) columns() map[string]any {
	cols := map[string]any{}
	set(cols, "name", in.Name)
	set(cols, "email", in.Email)
	set(cols, "phone", in.Phone)
	set(cols, "location", in.Location)
	set(cols, "summary", in.Summary)
	set(cols, "linkedin_url", in.LinkedinURL)
	set(cols, "website_url", in.WebsiteURL)
	return cols
}

// GetProfile returns the owner's profile.
func (s *Store) GetProfile(ctx context.Context, owner database.UserID) (*database.Profile, error) {
	var p database.Profile
	if err := s.db.WithContext(ctx).Where("user_id = ?", owner).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &p, nil
}

// UpsertProfile creates the owner's profile or patches the existing one.
func (s *Store) UpsertProfile(ctx context.Context, owner database.UserID, in ProfileInput) (*database.Profile, error) {
	var out database.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := upsertProfile(tx, owner, in)
		if err != nil {
			return err
		}
		out = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func upsertProfile(tx *gorm.DB, owner database.UserID, in ProfileInput) (*database.Profile, error) {
	var existing database.Profile
	err := tx.Where("user_id = ?", owner).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		p := database.Profile{
			UserID:      owner,
			Email:       in.Email,
			Phone:       in.Phone,
			Location:    in.Location,
			Summary:     in.Summary,
			LinkedinURL: in.LinkedinURL,
			WebsiteURL:  in.WebsiteURL,
		}
		if in.Name != nil {
			p.Name = *in.Name
		}
		if err := tx.Create(&p).Error; err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
		return &p, nil
	case err != nil:
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if cols := in.columns(); len(cols) > 0 {
		if err := tx.Model(&existing).Updates(cols).Error; err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
	}
	if err := tx.First(&existing, existing.ID).Error; err != nil {
		return nil, fmt.Errorf("reload profile: %w", err)
	}
	return &existing, nil
}

// Completeness summarizes how many of the six sections hold data.
type Completeness struct {
	HasProfile         bool  `json:"hasProfile"`
	ExperienceCount    int64 `json:"experienceCount"`
	EducationCount     int64 `json:"educationCount"`
	SkillCount         int64 `json:"skillCount"`
	CertificationCount int64 `json:"certificationCount"`
	ProjectCount       int64 `json:"projectCount"`
	Completed          int   `json:"completed"`
	Total              int   `json:"total"`
	Percentage         int   `json:"percentage"`
}

// Completeness counts the owner's filled sections.
func (s *Store) Completeness(ctx context.Context, owner database.UserID) (*Completeness, error) {
	db := s.db.WithContext(ctx)
	var profiles int64
	c := &Completeness{Total: 6}

	counts := []struct {
		model any
		dst   *int64
	}{
		{&database.Profile{}, &profiles},
		{&database.Experience{}, &c.ExperienceCount},
		{&database.Education{}, &c.EducationCount},
		{&database.Skill{}, &c.SkillCount},
		{&database.Certification{}, &c.CertificationCount},
		{&database.Project{}, &c.ProjectCount},
	}
	for _, q := range counts {
		if err := db.Model(q.model).Where("user_id = ?", owner).Count(q.dst).Error; err != nil {
			return nil, fmt.Errorf("count %T: %w", q.model, err)
		}
	}

	c.HasProfile = profiles > 0
	for _, filled := range []bool{
		c.HasProfile,
		c.ExperienceCount > 0,
		c.EducationCount > 0,
		c.SkillCount > 0,
		c.CertificationCount > 0,
		c.ProjectCount > 0,
	} {
		if filled {
			c.Completed++
		}
	}
	c.Percentage = int(math.Round(float64(c.Completed) / float64(c.Total) * 100))
	return c, nil
}
