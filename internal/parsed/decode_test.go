package parsed

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eliteapply/internal/database"
)

func TestDecode_NullsBecomeAbsent(t *testing.T) {
	raw := `{
		"profile": {"name": "Jane Doe", "email": null, "phone": "555-0100", "linkedinUrl": null},
		"experiences": [{"company": "Acme", "title": "Engineer", "startDate": "2020-01", "endDate": null, "isCurrent": true, "description": null, "achievements": null}],
		"education": [{"school": "MIT", "degree": null, "field": null, "startDate": null, "gpa": null}],
		"skills": [{"name": "Go", "category": "technical"}],
		"certifications": [{"name": "CKA", "issuer": null, "issueDate": null}],
		"projects": [{"name": "eliteapply", "technologies": null}]
	}`

	r, err := Decode([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", r.Profile.Name)
	assert.Nil(t, r.Profile.Email)
	require.NotNil(t, r.Profile.Phone)
	assert.Equal(t, "555-0100", *r.Profile.Phone)

	require.Len(t, r.Experiences, 1)
	assert.Nil(t, r.Experiences[0].EndDate)
	assert.True(t, r.Experiences[0].IsCurrent)
	assert.Nil(t, r.Experiences[0].Achievements)

	require.Len(t, r.Education, 1)
	assert.Equal(t, "", r.Education[0].Degree)
	assert.Equal(t, "", r.Education[0].Field)
	assert.Equal(t, "", r.Education[0].StartDate)

	require.Len(t, r.Certifications, 1)
	assert.Equal(t, "", r.Certifications[0].Issuer)
	assert.Equal(t, database.SkillTechnical, r.Skills[0].Category)
}

func TestDecode_MissingArraysDefaultToEmpty(t *testing.T) {
	r, err := Decode([]byte(`{"profile": {}}`))
	require.NoError(t, err)

	assert.Equal(t, "", r.Profile.Name)
	assert.NotNil(t, r.Experiences)
	assert.Empty(t, r.Experiences)
	assert.Empty(t, r.Education)
	assert.Empty(t, r.Skills)
	assert.Empty(t, r.Certifications)
	assert.Empty(t, r.Projects)
}

func TestDecode_IsCurrentDefaultsFalse(t *testing.T) {
	r, err := Decode([]byte(`{"profile":{"name":"A"},"experiences":[{"company":"C","title":"T","startDate":"2019"}]}`))
	require.NoError(t, err)
	assert.False(t, r.Experiences[0].IsCurrent)
}

func TestDecode_StripsMarkdownFences(t *testing.T) {
	r, err := Decode([]byte("```json\n{\"profile\":{\"name\":\"Fenced\"}}\n```"))
	require.NoError(t, err)
	assert.Equal(t, "Fenced", r.Profile.Name)
}

func TestDecode_RejectsUnknownSkillCategory(t *testing.T) {
	_, err := Decode([]byte(`{"profile":{"name":"A"},"skills":[{"name":"Chess","category":"hobby"}]}`))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	assert.NotEmpty(t, verr.Issues)
}

func TestDecode_MissingRequiredFields(t *testing.T) {
	cases := map[string]string{
		"no profile":         `{"experiences":[]}`,
		"experience company": `{"profile":{"name":"A"},"experiences":[{"title":"T","startDate":"2020"}]}`,
		"school":             `{"profile":{"name":"A"},"education":[{"degree":"BSc"}]}`,
		"project name":       `{"profile":{"name":"A"},"projects":[{"description":"x"}]}`,
		"wrong type":         `{"profile":{"name":42}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
		})
	}
}

func TestDecode_NotJSON(t *testing.T) {
	_, err := Decode([]byte("I'm sorry, I cannot parse this"))
	assert.ErrorIs(t, err, ErrDecode)

	_, err = Decode([]byte(`["not", "an", "object"]`))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestIssues(t *testing.T) {
	assert.Nil(t, Issues(nil))
	assert.Equal(t, []string{"a", "b"}, Issues(&ValidationError{Issues: []string{"a", "b"}}))
	assert.Len(t, Issues(ErrDecode), 1)
}
