package analytics

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"careerhub-backend/controllers/controllertest"
	"careerhub-backend/models/documents"
	"careerhub-backend/models/interview"
	"careerhub-backend/models/jobs"
	"careerhub-backend/models/users"
	"careerhub-backend/services/stats"
	"careerhub-backend/store/storetest"
)

func seed(t *testing.T, db *gorm.DB) uint {
	t.Helper()
	u := users.User{Name: "Ada", Email: "ada@example.com", Headline: "Engineer", Skills: []users.Skill{{Name: "Go"}}}
	require.NoError(t, db.Create(&u).Error)

	applied := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	responded := applied.Add(48 * time.Hour)
	rows := []interface{}{
		&jobs.Job{Title: "SRE", Company: "Acme", Status: jobs.StatusSaved},
		&jobs.Job{Title: "PM", Company: "Globex", Status: jobs.StatusInterviewing, AppliedAt: &applied, RespondedAt: &responded},
		&interview.Prediction{Category: "technical", PredictedOutcome: "offer", ActualOutcome: "offer", Confidence: 80},
		&interview.Prediction{Category: "technical", PredictedOutcome: "offer", Confidence: 40},
		&documents.Resume{Title: "Main"},
	}
	for _, row := range rows {
		switch v := row.(type) {
		case *jobs.Job:
			v.UserID = u.ID
		case *interview.Prediction:
			v.UserID = u.ID
		case *documents.Resume:
			v.UserID = u.ID
		}
		require.NoError(t, db.Create(row).Error)
	}

	other := documents.Resume{Title: "Not mine"}
	other.UserID = u.ID + 100
	require.NoError(t, db.Create(&other).Error)
	return u.ID
}

func newMux(t *testing.T) (*http.ServeMux, uint) {
	t.Helper()
	db := storetest.Open(t)
	owner := seed(t, db)
	mux := http.NewServeMux()
	NewHandler(db).Mount(mux, controllertest.Protect)
	return mux, owner
}

func TestCompleteness(t *testing.T) {
	mux, owner := newMux(t)
	rec := controllertest.Do(t, mux, owner, http.MethodGet, "/api/v1/analytics/completeness", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got stats.Completeness
	controllertest.Decode(t, rec, &got)
	// name, email, headline, skills, resume
	assert.Equal(t, 55.0, got.Percent)
	assert.Contains(t, got.Missing, "employment")
	assert.NotContains(t, got.Missing, "skills")
}

func TestCompletenessUnknownUser(t *testing.T) {
	mux, _ := newMux(t)
	rec := controllertest.Do(t, mux, 999, http.MethodGet, "/api/v1/analytics/completeness", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPredictionsAndJobSearch(t *testing.T) {
	mux, owner := newMux(t)

	rec := controllertest.Do(t, mux, owner, http.MethodGet, "/api/v1/analytics/predictions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var preds stats.PredictionAccuracy
	controllertest.Decode(t, rec, &preds)
	assert.Equal(t, 2, preds.Total)
	assert.Equal(t, 1, preds.Resolved)
	assert.Equal(t, 100.0, preds.Accuracy)
	assert.Equal(t, 60.0, preds.AverageConfidence)

	rec = controllertest.Do(t, mux, owner, http.MethodGet, "/api/v1/analytics/job-search", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var search stats.JobSearch
	controllertest.Decode(t, rec, &search)
	assert.Equal(t, 2, search.Total)
	assert.Equal(t, 1, search.Applied)
	assert.Equal(t, 100.0, search.ResponseRate)
	assert.Equal(t, 2.0, search.AverageDaysToResponse)
}

func TestDashboard(t *testing.T) {
	mux, owner := newMux(t)
	rec := controllertest.Do(t, mux, owner, http.MethodGet, "/api/v1/analytics/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got Dashboard
	controllertest.Decode(t, rec, &got)
	assert.Equal(t, 55.0, got.Completeness.Percent)
	assert.Equal(t, 2, got.Predictions.Total)
	assert.Equal(t, 1, got.JobSearch.StatusCounts[jobs.StatusInterviewing])
}
