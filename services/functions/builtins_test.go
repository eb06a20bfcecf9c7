package functions

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"careerhub-backend/config"
	"careerhub-backend/errors"
	"careerhub-backend/models/documents"
	"careerhub-backend/models/interview"
	"careerhub-backend/models/jobs"
	"careerhub-backend/services/ai"
	"careerhub-backend/services/events"
	"careerhub-backend/services/export"
	"careerhub-backend/services/importer"
	"careerhub-backend/services/storage"
	"careerhub-backend/store/storetest"
)

// scripted answers every prompt with a fixed reply and remembers the prompt.
type scripted struct {
	reply   string
	prompts []string
}

func (s *scripted) Complete(_ context.Context, _, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.reply, nil
}

type fixture struct {
	reg     *Registry
	db      *gorm.DB
	objects *storage.Memory
	imports *importer.Service
}

func newFixture(t *testing.T, completer ai.Completer) *fixture {
	t.Helper()
	db := storetest.Open(t)
	mem := storage.NewMemory()
	imports := importer.NewService(db, mem)
	reg := NewRegistry(db, config.FunctionConfig{Rate: 100, Burst: 100})
	RegisterBuiltins(reg, Deps{
		DB:      db,
		AI:      completer,
		Exports: export.NewService(db, mem, &events.Recorder{}),
		Imports: imports,
	})
	return &fixture{reg: reg, db: db, objects: mem, imports: imports}
}

func (f *fixture) invoke(t *testing.T, name string, body interface{}) (interface{}, error) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return f.reg.Invoke(context.Background(), 1, name, raw)
}

func (f *fixture) job(t *testing.T, j jobs.Job) *jobs.Job {
	t.Helper()
	j.UserID = 1
	require.NoError(t, f.db.Create(&j).Error)
	return &j
}

func (f *fixture) resume(t *testing.T, r documents.Resume) *documents.Resume {
	t.Helper()
	r.UserID = 1
	require.NoError(t, f.db.Create(&r).Error)
	return &r
}

func TestBuiltinsRegistered(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, []string{
		AnalyzeResumeMatch, CalculatePredictions, EnrichJob, ExportDocument,
		GenerateCareerPlan, GenerateCoverLetter, GenerateInterviewChallenge, ImportResume,
	}, f.reg.Names())
}

func TestChallengeFromQuestionBank(t *testing.T) {
	f := newFixture(t, nil)
	out, err := f.invoke(t, GenerateInterviewChallenge, map[string]string{"role": "SRE", "difficulty": "hard", "topic": "system design"})
	require.NoError(t, err)

	ch := out.(*interview.Challenge)
	assert.Equal(t, interview.SourceBank, ch.Source)
	assert.Equal(t, "hard", ch.Difficulty)
	assert.NotEmpty(t, ch.Prompt)
	assert.NotZero(t, ch.ID)

	_, err = f.invoke(t, GenerateInterviewChallenge, map[string]string{"difficulty": "impossible"})
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestChallengeFromAI(t *testing.T) {
	completer := &scripted{reply: "```json\n{\"prompt\":\"Design a rate limiter\",\"hints\":[\"token bucket\"],\"rubric\":\"trade-offs\"}\n```"}
	f := newFixture(t, completer)

	out, err := f.invoke(t, GenerateInterviewChallenge, map[string]string{"role": "Backend", "topic": "system design"})
	require.NoError(t, err)
	ch := out.(*interview.Challenge)
	assert.Equal(t, interview.SourceAI, ch.Source)
	assert.Equal(t, "Design a rate limiter", ch.Prompt)
	assert.Equal(t, []string{"token bucket"}, ch.Hints)
	assert.Equal(t, "medium", ch.Difficulty)
}

func TestChallengeFallsBackOnGarbage(t *testing.T) {
	f := newFixture(t, &scripted{reply: "I cannot help with that"})
	out, err := f.invoke(t, GenerateInterviewChallenge, nil)
	require.NoError(t, err)
	assert.Equal(t, interview.SourceBank, out.(*interview.Challenge).Source)
}

func TestAIFunctionsNeedProvider(t *testing.T) {
	f := newFixture(t, nil)
	j := f.job(t, jobs.Job{Title: "SRE", Company: "Acme"})

	for name, body := range map[string]interface{}{
		GenerateCoverLetter: map[string]uint{"job_id": j.ID},
		EnrichJob:           map[string]uint{"job_id": j.ID},
		GenerateCareerPlan:  map[string]string{"short_term_goals": "ship"},
	} {
		_, err := f.invoke(t, name, body)
		assert.True(t, errors.Is(err, errors.ErrServiceUnavailable), name)
	}
}

func TestGenerateCoverLetter(t *testing.T) {
	completer := &scripted{reply: "  Dear Acme team,\n\nI would love to join.  "}
	f := newFixture(t, completer)
	j := f.job(t, jobs.Job{Title: "SRE", Company: "Acme", Description: "Run Kubernetes"})
	r := f.resume(t, documents.Resume{Title: "Main", FullName: "Ada", Skills: []string{"Kubernetes"}})

	out, err := f.invoke(t, GenerateCoverLetter, map[string]interface{}{"job_id": j.ID, "resume_id": r.ID, "tone": "warm"})
	require.NoError(t, err)
	letter := out.(*documents.CoverLetter)
	assert.Equal(t, "SRE at Acme", letter.Title)
	assert.Equal(t, "Dear Acme team,\n\nI would love to join.", letter.Content)
	assert.Equal(t, "warm", letter.Tone)
	require.NotNil(t, letter.ResumeID)
	assert.Equal(t, r.ID, *letter.ResumeID)

	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "warm cover letter for the SRE position at Acme")
	assert.Contains(t, completer.prompts[0], "Kubernetes")

	_, err = f.invoke(t, GenerateCoverLetter, map[string]interface{}{"job_id": 999})
	assert.True(t, errors.IsNotFoundError(err))
}

func TestEnrichJobAppendsNotes(t *testing.T) {
	f := newFixture(t, &scripted{reply: `{"summary":"Platform role","talking_points":["on-call","Go"]}`})
	j := f.job(t, jobs.Job{Title: "SRE", Company: "Acme", Notes: "Referred by Grace"})

	_, err := f.invoke(t, EnrichJob, map[string]uint{"job_id": j.ID})
	require.NoError(t, err)

	var stored jobs.Job
	require.NoError(t, f.db.First(&stored, j.ID).Error)
	assert.Equal(t, "Referred by Grace\n\nSummary: Platform role\n- on-call\n- Go", stored.Notes)
}

func TestGenerateCareerPlan(t *testing.T) {
	f := newFixture(t, &scripted{reply: "1. Learn Go\n2. Ship"})
	out, err := f.invoke(t, GenerateCareerPlan, map[string]string{"long_term_goals": "Staff engineer"})
	require.NoError(t, err)
	plan := out.(interface{ GetID() uint })
	assert.NotZero(t, plan.GetID())

	_, err = f.invoke(t, GenerateCareerPlan, map[string]string{})
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestCalculatePredictions(t *testing.T) {
	f := newFixture(t, nil)
	for _, p := range []interview.Prediction{
		{PredictedOutcome: "offer", ActualOutcome: "offer", Confidence: 80},
		{PredictedOutcome: "offer", ActualOutcome: "rejected", Confidence: 40},
	} {
		p.UserID = 1
		require.NoError(t, f.db.Create(&p).Error)
	}
	out, err := f.invoke(t, CalculatePredictions, nil)
	require.NoError(t, err)
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"accuracy":50`)
	assert.Contains(t, string(raw), `"average_confidence":60`)
}

func TestAnalyzeResumeMatch(t *testing.T) {
	f := newFixture(t, nil)
	j := f.job(t, jobs.Job{Title: "Backend Engineer", Company: "Acme", Description: "We use Go, PostgreSQL and Kubernetes."})
	r := f.resume(t, documents.Resume{Title: "Main", Skills: []string{"Go", "PostgreSQL", "React"}})

	out, err := f.invoke(t, AnalyzeResumeMatch, map[string]uint{"job_id": j.ID, "resume_id": r.ID})
	require.NoError(t, err)
	m := out.(MatchResult)
	assert.Equal(t, []string{"go", "postgresql"}, m.Matching)
	assert.Equal(t, []string{"kubernetes"}, m.Missing)
	assert.Equal(t, 66.7, m.Score)
}

func TestExportDocumentInlineAndStored(t *testing.T) {
	f := newFixture(t, nil)
	r := f.resume(t, documents.Resume{Title: "Main", FullName: "Ada <Lovelace>"})

	out, err := f.invoke(t, ExportDocument, map[string]interface{}{"kind": "resume", "id": r.ID, "format": "html"})
	require.NoError(t, err)
	inline := out.(inlineExport)
	assert.Equal(t, "main.html", inline.Filename)
	assert.Contains(t, inline.Content, "Ada &lt;Lovelace&gt;")

	out, err = f.invoke(t, ExportDocument, map[string]interface{}{"kind": "resume", "id": r.ID, "format": "pdf"})
	require.NoError(t, err)
	stored := out.(storedExport)
	assert.Equal(t, documents.ExportCompleted, stored.Export.Status)
	assert.True(t, strings.HasSuffix(stored.DownloadURL, "/download"))
}

func TestImportResumeFromObject(t *testing.T) {
	f := newFixture(t, nil)
	res, err := f.imports.Upload(context.Background(), 1, "cv.txt", "text/plain", []byte("Ada Lovelace"))
	require.NoError(t, err)

	out, err := f.invoke(t, ImportResume, map[string]string{"object_key": res.ObjectKey})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", out.(*importer.Result).Text)

	_, err = f.invoke(t, ImportResume, map[string]string{"object_key": "uploads/2/x.txt"})
	assert.True(t, errors.Is(err, errors.ErrForbidden))
}

func TestMatchWholeWords(t *testing.T) {
	assert.True(t, mentions("we use go daily", "go"))
	assert.False(t, mentions("good golang skills", "go"))
	assert.True(t, mentions("c++ and rust", "c++"))
	assert.True(t, mentions("node.js", "node.js"))
}
