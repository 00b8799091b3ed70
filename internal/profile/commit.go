package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"eliteapply/internal/database"
	"eliteapply/internal/parsed"
	"eliteapply/internal/resumes"
)

// CommitSummary reports how many rows a commit wrote.
type CommitSummary struct {
	Resume         *database.Resume `json:"resume"`
	Experiences    int              `json:"experiences"`
	Education      int              `json:"education"`
	Skills         int              `json:"skills"`
	Certifications int              `json:"certifications"`
	Projects       int              `json:"projects"`
}

// Commit writes a reviewed payload into the owner's profile in one
// transaction. The resume must belong to owner and be complete; experience and
// education rows get their array index as order.
func (s *Store) Commit(ctx context.Context, owner database.UserID, resumeID database.ResumeID, r *parsed.Resume) (*CommitSummary, error) {
	summary := &CommitSummary{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var resume database.Resume
		if err := tx.Where("id = ? AND user_id = ?", resumeID, owner).First(&resume).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return resumes.ErrNotFound
			}
			return fmt.Errorf("load resume: %w", err)
		}
		if resume.Status != database.StatusComplete {
			return fmt.Errorf("%w: commit requires complete, got %s", resumes.ErrInvalidTransition, resume.Status)
		}

		name := r.Profile.Name
		if _, err := upsertProfile(tx, owner, ProfileInput{
			Name:        &name,
			Email:       r.Profile.Email,
			Phone:       r.Profile.Phone,
			Location:    r.Profile.Location,
			Summary:     r.Profile.Summary,
			LinkedinURL: r.Profile.LinkedinURL,
			WebsiteURL:  r.Profile.WebsiteURL,
		}); err != nil {
			return err
		}

		experiences := make([]database.Experience, len(r.Experiences))
		for i, e := range r.Experiences {
			order := i
			experiences[i] = database.Experience{
				UserID:       owner,
				Company:      e.Company,
				Title:        e.Title,
				StartDate:    e.StartDate,
				EndDate:      e.EndDate,
				IsCurrent:    e.IsCurrent,
				Description:  e.Description,
				Achievements: datatypes.JSONSlice[string](e.Achievements),
				Order:        &order,
			}
		}
		education := make([]database.Education, len(r.Education))
		for i, e := range r.Education {
			order := i
			education[i] = database.Education{
				UserID:      owner,
				School:      e.School,
				Degree:      e.Degree,
				Field:       e.Field,
				StartDate:   e.StartDate,
				EndDate:     e.EndDate,
				GPA:         e.GPA,
				Description: e.Description,
				Order:       &order,
			}
		}
		skills := make([]database.Skill, len(r.Skills))
		for i, sk := range r.Skills {
			if !sk.Category.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidCategory, sk.Category)
			}
			skills[i] = database.Skill{UserID: owner, Name: sk.Name, Category: sk.Category, Proficiency: sk.Proficiency}
		}
		certs := make([]database.Certification, len(r.Certifications))
		for i, c := range r.Certifications {
			certs[i] = database.Certification{
				UserID:         owner,
				Name:           c.Name,
				Issuer:         c.Issuer,
				IssueDate:      c.IssueDate,
				ExpirationDate: c.ExpirationDate,
				CredentialURL:  c.CredentialURL,
			}
		}
		projects := make([]database.Project, len(r.Projects))
		for i, p := range r.Projects {
			projects[i] = database.Project{
				UserID:       owner,
				Name:         p.Name,
				Description:  p.Description,
				URL:          p.URL,
				Technologies: datatypes.JSONSlice[string](p.Technologies),
				StartDate:    p.StartDate,
				EndDate:      p.EndDate,
			}
		}

		for _, batch := range []struct {
			name string
			rows any
			n    int
		}{
			{"experiences", &experiences, len(experiences)},
			{"education", &education, len(education)},
			{"skills", &skills, len(skills)},
			{"certifications", &certs, len(certs)},
			{"projects", &projects, len(projects)},
		} {
			if batch.n == 0 {
				continue
			}
			if err := tx.Create(batch.rows).Error; err != nil {
				return fmt.Errorf("insert %s: %w", batch.name, err)
			}
		}

		now := time.Now()
		if err := tx.Model(&resume).Update("committed_at", now).Error; err != nil {
			return fmt.Errorf("mark resume committed: %w", err)
		}
		resume.CommittedAt = &now

		summary.Resume = &resume
		summary.Experiences = len(experiences)
		summary.Education = len(education)
		summary.Skills = len(skills)
		summary.Certifications = len(certs)
		summary.Projects = len(projects)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}
