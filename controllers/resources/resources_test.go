package resources

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"careerhub-backend/controllers/controllertest"
	"careerhub-backend/controllers/respond"
	"careerhub-backend/errors"
	"careerhub-backend/models/interview"
	"careerhub-backend/models/jobs"
	"careerhub-backend/services/events"
	"careerhub-backend/store/storetest"
)

// fakeNotion records calls and hands out page ids.
type fakeNotion struct {
	created, updated []uint
	fail             bool
}

func (f *fakeNotion) CreateJobPage(_ context.Context, j *jobs.Job) (string, error) {
	if f.fail {
		return "", errors.New("notion is down")
	}
	f.created = append(f.created, j.ID)
	return "page-" + j.Title, nil
}

func (f *fakeNotion) UpdateJobPage(_ context.Context, j *jobs.Job) error {
	f.updated = append(f.updated, j.ID)
	return nil
}

func (f *fakeNotion) Enabled() bool { return true }

type fixture struct {
	mux    *http.ServeMux
	db     *gorm.DB
	events *events.Recorder
	notion *fakeNotion
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		mux:    http.NewServeMux(),
		db:     storetest.Open(t),
		events: &events.Recorder{},
		notion: &fakeNotion{},
	}
	Mount(f.mux, controllertest.Protect, Deps{DB: f.db, Broker: f.events, Notion: f.notion})
	return f
}

func (f *fixture) createJob(t *testing.T, user uint, body map[string]interface{}) jobs.Job {
	t.Helper()
	rec := controllertest.Do(t, f.mux, user, http.MethodPost, "/api/v1/jobs", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var j jobs.Job
	controllertest.Decode(t, rec, &j)
	return j
}

func TestJobCreateStampsAndScopes(t *testing.T) {
	f := newFixture(t)

	saved := f.createJob(t, 1, map[string]interface{}{"title": "SRE", "company": "Acme"})
	assert.Equal(t, jobs.StatusSaved, saved.Status)
	assert.Nil(t, saved.AppliedAt)
	assert.Equal(t, uint(1), saved.UserID)

	applied := f.createJob(t, 1, map[string]interface{}{
		"title": "PM", "company": "Globex", "status": "applied", "user_id": 2, "id": 77,
	})
	assert.NotNil(t, applied.AppliedAt)
	assert.Equal(t, uint(1), applied.UserID)
	assert.NotEqual(t, uint(77), applied.ID)

	f.createJob(t, 2, map[string]interface{}{"title": "QA", "company": "Initech"})

	rec := controllertest.Do(t, f.mux, 1, http.MethodGet, "/api/v1/jobs?order=company.asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data  []jobs.Job `json:"data"`
		Total int64      `json:"total"`
	}
	controllertest.Decode(t, rec, &page)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "Acme", page.Data[0].Company)

	rec = controllertest.Do(t, f.mux, 2, http.MethodGet, "/api/v1/jobs/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobValidation(t *testing.T) {
	f := newFixture(t)

	rec := controllertest.Do(t, f.mux, 1, http.MethodPost, "/api/v1/jobs", map[string]interface{}{"title": "SRE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = controllertest.Do(t, f.mux, 1, http.MethodPost, "/api/v1/jobs",
		map[string]interface{}{"title": "SRE", "company": "Acme", "status": "ghosted"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body respond.ErrorBody
	controllertest.Decode(t, rec, &body)
	assert.NotEmpty(t, body.Hints)

	rec = controllertest.Do(t, f.mux, 1, http.MethodGet, "/api/v1/jobs?salary=100", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = controllertest.Do(t, f.mux, 1, http.MethodGet, "/api/v1/jobs/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobPatchIsPartialAndPublishesStatusChange(t *testing.T) {
	f := newFixture(t)
	j := f.createJob(t, 1, map[string]interface{}{"title": "SRE", "company": "Acme", "notes": "referral"})
	require.Empty(t, f.events.Events)

	rec := controllertest.Do(t, f.mux, 1, http.MethodPatch, "/api/v1/jobs/1", map[string]interface{}{"status": "screening", "user_id": 9})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got jobs.Job
	controllertest.Decode(t, rec, &got)
	assert.Equal(t, j.ID, got.ID)
	assert.Equal(t, uint(1), got.UserID)
	assert.Equal(t, "referral", got.Notes)
	assert.Equal(t, jobs.StatusScreening, got.Status)
	assert.NotNil(t, got.AppliedAt)
	assert.NotNil(t, got.RespondedAt)

	require.Equal(t, []string{events.JobStatusChanged}, f.events.Types())
	change, ok := f.events.Events[0].Data.(StatusChange)
	require.True(t, ok)
	assert.Equal(t, StatusChange{JobID: j.ID, Title: "SRE", Company: "Acme", From: "saved", To: "screening"}, change)

	rec = controllertest.Do(t, f.mux, 1, http.MethodPatch, "/api/v1/jobs/1", map[string]interface{}{"notes": "call Tuesday"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, f.events.Events, 1, "no event without a status change")

	rec = controllertest.Do(t, f.mux, 2, http.MethodPatch, "/api/v1/jobs/1", map[string]interface{}{"notes": "hijack"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobNotionSync(t *testing.T) {
	f := newFixture(t)

	j := f.createJob(t, 1, map[string]interface{}{"title": "SRE", "company": "Acme"})
	assert.Equal(t, "page-SRE", j.NotionPageID)
	assert.Equal(t, []uint{j.ID}, f.notion.created)

	var stored jobs.Job
	require.NoError(t, f.db.First(&stored, j.ID).Error)
	assert.Equal(t, "page-SRE", stored.NotionPageID)

	rec := controllertest.Do(t, f.mux, 1, http.MethodPatch, "/api/v1/jobs/1", map[string]interface{}{"status": "applied"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uint{j.ID}, f.notion.updated)
}

func TestJobNotionFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.notion.fail = true

	j := f.createJob(t, 1, map[string]interface{}{"title": "SRE", "company": "Acme"})
	assert.Empty(t, j.NotionPageID)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	f.createJob(t, 1, map[string]interface{}{"title": "SRE", "company": "Acme"})

	assert.Equal(t, http.StatusNotFound, controllertest.Do(t, f.mux, 2, http.MethodDelete, "/api/v1/jobs/1", nil).Code)
	assert.Equal(t, http.StatusNoContent, controllertest.Do(t, f.mux, 1, http.MethodDelete, "/api/v1/jobs/1", nil).Code)
	assert.Equal(t, http.StatusNotFound, controllertest.Do(t, f.mux, 1, http.MethodGet, "/api/v1/jobs/1", nil).Code)
}

func TestOtherResources(t *testing.T) {
	f := newFixture(t)

	rec := controllertest.Do(t, f.mux, 1, http.MethodPost, "/api/v1/contacts", map[string]interface{}{"name": "Grace", "company": "Navy"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = controllertest.Do(t, f.mux, 1, http.MethodPost, "/api/v1/responses", map[string]interface{}{
		"question": "Tell me about a conflict", "answer": "STAR", "tags": []string{"teamwork"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entry interview.ResponseEntry
	controllertest.Decode(t, rec, &entry)
	assert.Equal(t, []string{"teamwork"}, entry.Tags)

	rec = controllertest.Do(t, f.mux, 1, http.MethodPost, "/api/v1/employment", map[string]interface{}{
		"company": "Acme", "title": "SRE", "start_date": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"end_date": time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = controllertest.Do(t, f.mux, 1, http.MethodGet, "/api/v1/responses?q=conflict", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func TestChallengesAreFunctionProduced(t *testing.T) {
	f := newFixture(t)

	rec := controllertest.Do(t, f.mux, 1, http.MethodPost, "/api/v1/challenges", map[string]interface{}{"prompt": "x"})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	c := interview.Challenge{Prompt: "Design a URL shortener", Source: interview.SourceBank}
	c.UserID = 1
	require.NoError(t, f.db.Create(&c).Error)

	rec = controllertest.Do(t, f.mux, 1, http.MethodPatch, "/api/v1/challenges/1", map[string]interface{}{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got interview.Challenge
	controllertest.Decode(t, rec, &got)
	assert.True(t, got.Completed)
	assert.Equal(t, "Design a URL shortener", got.Prompt)
}

func TestBooleanFilters(t *testing.T) {
	f := newFixture(t)

	for _, body := range []map[string]interface{}{
		{"question": "Why us?", "answer": "Mission", "favorite": true},
		{"question": "Weakness?", "answer": "Delegation"},
	} {
		rec := controllertest.Do(t, f.mux, 1, http.MethodPost, "/api/v1/responses", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	list := func(query string) respond.List {
		t.Helper()
		rec := controllertest.Do(t, f.mux, 1, http.MethodGet, "/api/v1/responses?"+query, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var page respond.List
		controllertest.Decode(t, rec, &page)
		return page
	}
	assert.EqualValues(t, 1, list("favorite=true").Total)
	assert.EqualValues(t, 1, list("favorite=false").Total)
	assert.EqualValues(t, 1, list("favorite=1").Total)

	rec := controllertest.Do(t, f.mux, 1, http.MethodGet, "/api/v1/responses?favorite=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c := interview.Challenge{Prompt: "Reverse a list", Source: interview.SourceBank, Completed: true}
	c.UserID = 1
	require.NoError(t, f.db.Create(&c).Error)
	rec = controllertest.Do(t, f.mux, 1, http.MethodGet, "/api/v1/challenges?completed=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func TestPatchKeepsCreatedAt(t *testing.T) {
	f := newFixture(t)

	rec := controllertest.Do(t, f.mux, 1, http.MethodPost, "/api/v1/contacts", map[string]interface{}{"name": "Grace"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created jobs.Contact
	controllertest.Decode(t, rec, &created)

	rec = controllertest.Do(t, f.mux, 1, http.MethodPatch, "/api/v1/contacts/1", map[string]interface{}{
		"company":    "Navy",
		"created_at": time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got jobs.Contact
	controllertest.Decode(t, rec, &got)
	assert.Equal(t, "Navy", got.Company)
	assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Second)

	var stored jobs.Contact
	require.NoError(t, f.db.First(&stored, created.ID).Error)
	assert.WithinDuration(t, created.CreatedAt, stored.CreatedAt, time.Second)
}
