package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"eliteapply/internal/database"
	"eliteapply/internal/parsed"
	"eliteapply/internal/resumes"
	"eliteapply/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db), db
}

func seedResume(t *testing.T, db *gorm.DB, owner database.UserID, status database.ResumeStatus) *database.Resume {
	t.Helper()
	r := &database.Resume{UserID: owner, FileKey: storage.NewResumeObjectKey(owner), FileName: "x.pdf", Status: status}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	return r
}

func strp(s string) *string { return &s }

func samplePayload(t *testing.T) *parsed.Resume {
	t.Helper()
	r, err := parsed.Decode([]byte(`{
		"profile": {"name": "Jane Doe", "email": "jane@example.com"},
		"experiences": [
			{"company": "Acme", "title": "Engineer", "startDate": "2021", "isCurrent": true},
			{"company": "Initech", "title": "Intern", "startDate": "2019", "endDate": "2020"}
		],
		"education": [{"school": "MIT"}],
		"skills": [{"name": "Go", "category": "technical"}, {"name": "English", "category": "language"}],
		"certifications": [],
		"projects": [{"name": "eliteapply", "technologies": ["Go", "Postgres"]}]
	}`))
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return r
}

func TestCommit_WritesAllSections(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	resume := seedResume(t, db, 1, database.StatusComplete)

	summary, err := store.Commit(ctx, 1, resume.ID, samplePayload(t))
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if summary.Experiences != 2 || summary.Skills != 2 || summary.Projects != 1 || summary.Certifications != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Resume.CommittedAt == nil || summary.Resume.Status != database.StatusComplete {
		t.Fatalf("resume not marked committed: %+v", summary.Resume)
	}

	exps, err := store.ListExperiences(ctx, 1)
	if err != nil {
		t.Fatalf("list experiences: %v", err)
	}
	if len(exps) != 2 || *exps[0].Order != 0 || *exps[1].Order != 1 || exps[0].Company != "Acme" {
		t.Fatalf("unexpected experiences %+v", exps)
	}

	p, err := store.GetProfile(ctx, 1)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Name != "Jane Doe" || p.Email == nil || *p.Email != "jane@example.com" {
		t.Fatalf("unexpected profile %+v", p)
	}

	projects, _ := store.ListProjects(ctx, 1)
	if len(projects) != 1 || len(projects[0].Technologies) != 2 {
		t.Fatalf("unexpected projects %+v", projects)
	}
}

func TestCommit_RequiresOwnershipAndComplete(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	mine := seedResume(t, db, 1, database.StatusComplete)
	if _, err := store.Commit(ctx, 2, mine.ID, samplePayload(t)); !errors.Is(err, resumes.ErrNotFound) {
		t.Fatalf("expected not found for other owner, got %v", err)
	}

	parsing := seedResume(t, db, 1, database.StatusParsing)
	if _, err := store.Commit(ctx, 1, parsing.ID, samplePayload(t)); !errors.Is(err, resumes.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	exps, _ := store.ListExperiences(ctx, 1)
	if len(exps) != 0 {
		t.Fatalf("failed commit must not write rows, got %d", len(exps))
	}
}

func TestUpsertProfile_PatchesProvidedFields(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.UpsertProfile(ctx, 1, ProfileInput{Name: strp("Jane"), Phone: strp("555")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	p, err := store.UpsertProfile(ctx, 1, ProfileInput{Location: strp("Berlin")})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if p.Name != "Jane" || p.Phone == nil || *p.Phone != "555" || p.Location == nil || *p.Location != "Berlin" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if _, err := store.GetProfile(ctx, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for other owner, got %v", err)
	}
}

func TestSections_TenantIsolation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	exp, err := store.AddExperience(ctx, 1, database.Experience{Company: "Acme", Title: "Eng", StartDate: "2020"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := store.UpdateExperience(ctx, 2, exp.ID, ExperiencePatch{Title: strp("CEO")}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on foreign update, got %v", err)
	}
	if err := store.DeleteExperience(ctx, 2, exp.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on foreign delete, got %v", err)
	}

	updated, err := store.UpdateExperience(ctx, 1, exp.ID, ExperiencePatch{Title: strp("Senior Eng"), Achievements: &[]string{"shipped"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Senior Eng" || updated.Company != "Acme" || len(updated.Achievements) != 1 {
		t.Fatalf("unexpected update result %+v", updated)
	}

	if err := store.DeleteExperience(ctx, 1, exp.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteExperience(ctx, 1, exp.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestSkills_CategoryValidationAndFilter(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.BatchAddSkills(ctx, 1, []database.Skill{
		{Name: "Go", Category: database.SkillTechnical},
		{Name: "Chess", Category: "hobby"},
	}); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected invalid category, got %v", err)
	}
	all, _ := store.ListSkills(ctx, 1, "")
	if len(all) != 0 {
		t.Fatalf("batch must be all-or-nothing, got %d rows", len(all))
	}

	if _, err := store.BatchAddSkills(ctx, 1, []database.Skill{
		{Name: "Go", Category: database.SkillTechnical},
		{Name: "Docker", Category: database.SkillTool},
		{Name: "Rust", Category: database.SkillTechnical},
	}); err != nil {
		t.Fatalf("batch add: %v", err)
	}
	technical, err := store.ListSkills(ctx, 1, database.SkillTechnical)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(technical) != 2 {
		t.Fatalf("expected 2 technical skills, got %d", len(technical))
	}
	if _, err := store.ListSkills(ctx, 1, "hobby"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected invalid category on filter, got %v", err)
	}
	bad := database.SkillCategory("hobby")
	if _, err := store.UpdateSkill(ctx, 1, technical[0].ID, SkillPatch{Category: &bad}); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected invalid category on update, got %v", err)
	}
}

func TestCompleteness(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	c, err := store.Completeness(ctx, 1)
	if err != nil {
		t.Fatalf("completeness: %v", err)
	}
	if c.Completed != 0 || c.Percentage != 0 {
		t.Fatalf("unexpected empty completeness %+v", c)
	}

	_, _ = store.UpsertProfile(ctx, 1, ProfileInput{Name: strp("Jane")})
	_, _ = store.AddSkill(ctx, 1, database.Skill{Name: "Go", Category: database.SkillTechnical})
	_, _ = store.AddProject(ctx, 1, database.Project{Name: "p"})
	_, _ = store.AddSkill(ctx, 2, database.Skill{Name: "Other", Category: database.SkillSoft})

	c, err = store.Completeness(ctx, 1)
	if err != nil {
		t.Fatalf("completeness: %v", err)
	}
	if c.Completed != 3 || c.Total != 6 || c.Percentage != 50 {
		t.Fatalf("unexpected completeness %+v", c)
	}
}
