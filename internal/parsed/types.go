// Package parsed decodes and validates the structured resume payload produced
// by the AI parser, and the same payload when a user submits it for commit.
package parsed

import "eliteapply/internal/database"

// Resume is the normalized parsed payload. Optional fields are nil when the
// model returned null or omitted them.
type Resume struct {
	Profile        Profile         `json:"profile"`
	Experiences    []Experience    `json:"experiences"`
	Education      []Education     `json:"education"`
	Skills         []Skill         `json:"skills"`
	Certifications []Certification `json:"certifications"`
	Projects       []Project       `json:"projects"`
}

type Profile struct {
	Name        string  `json:"name"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Location    *string `json:"location,omitempty"`
	Summary     *string `json:"summary,omitempty"`
	LinkedinURL *string `json:"linkedinUrl,omitempty"`
	WebsiteURL  *string `json:"websiteUrl,omitempty"`
}

type Experience struct {
	Company      string   `json:"company"`
	Title        string   `json:"title"`
	StartDate    string   `json:"startDate"`
	EndDate      *string  `json:"endDate,omitempty"`
	IsCurrent    bool     `json:"isCurrent"`
	Description  *string  `json:"description,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

type Education struct {
	School      string  `json:"school"`
	Degree      string  `json:"degree"`
	Field       string  `json:"field"`
	StartDate   string  `json:"startDate"`
	EndDate     *string `json:"endDate,omitempty"`
	GPA         *string `json:"gpa,omitempty"`
	Description *string `json:"description,omitempty"`
}

type Skill struct {
	Name        string                 `json:"name"`
	Category    database.SkillCategory `json:"category"`
	Proficiency *string                `json:"proficiency,omitempty"`
}

type Certification struct {
	Name           string  `json:"name"`
	Issuer         string  `json:"issuer"`
	IssueDate      string  `json:"issueDate"`
	ExpirationDate *string `json:"expirationDate,omitempty"`
	CredentialURL  *string `json:"credentialUrl,omitempty"`
}

type Project struct {
	Name         string   `json:"name"`
	Description  *string  `json:"description,omitempty"`
	URL          *string  `json:"url,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	StartDate    *string  `json:"startDate,omitempty"`
	EndDate      *string  `json:"endDate,omitempty"`
}
