// Package analytics serves the dashboard statistics derived from the
// caller's rows.
package analytics

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"careerhub-backend/controllers/authentication"
	"careerhub-backend/controllers/respond"
	"careerhub-backend/errors"
	"careerhub-backend/models/career"
	"careerhub-backend/models/documents"
	"careerhub-backend/models/interview"
	"careerhub-backend/models/jobs"
	"careerhub-backend/services/stats"
	"careerhub-backend/store"
)

type Handler struct {
	db          *gorm.DB
	jobs        *store.Table[jobs.Job, *jobs.Job]
	predictions *store.Table[interview.Prediction, *interview.Prediction]
	resumes     *store.Table[documents.Resume, *documents.Resume]
	employment  *store.Table[career.Employment, *career.Employment]
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		db:          db,
		jobs:        store.NewTable[jobs.Job](db, store.Spec{}),
		predictions: store.NewTable[interview.Prediction](db, store.Spec{}),
		resumes:     store.NewTable[documents.Resume](db, store.Spec{}),
		employment:  store.NewTable[career.Employment](db, store.Spec{}),
	}
}

func (h *Handler) Mount(mux *http.ServeMux, protect func(http.HandlerFunc) http.Handler) {
	mux.Handle("GET /api/v1/analytics/completeness", protect(h.Completeness))
	mux.Handle("GET /api/v1/analytics/predictions", protect(h.Predictions))
	mux.Handle("GET /api/v1/analytics/job-search", protect(h.JobSearch))
	mux.Handle("GET /api/v1/analytics/dashboard", protect(h.Dashboard))
}

func (h *Handler) completeness(ctx context.Context, owner uint) (stats.Completeness, error) {
	snap := stats.ProfileSnapshot{}
	err := h.db.WithContext(ctx).Preload("Skills").First(&snap.User, owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return stats.Completeness{}, errors.NotFoundf("user %d", owner)
	}
	if err != nil {
		return stats.Completeness{}, errors.Wrap(err, "load user")
	}
	if snap.ResumeCount, err = h.resumes.Count(ctx, owner); err != nil {
		return stats.Completeness{}, err
	}
	if snap.EmploymentCount, err = h.employment.Count(ctx, owner); err != nil {
		return stats.Completeness{}, err
	}
	return stats.ProfileCompleteness(snap), nil
}

func (h *Handler) predictionStats(ctx context.Context, owner uint) (stats.PredictionAccuracy, error) {
	rows, err := h.predictions.All(ctx, owner)
	if err != nil {
		return stats.PredictionAccuracy{}, err
	}
	return stats.PredictionStats(rows), nil
}

func (h *Handler) jobSearch(ctx context.Context, owner uint) (stats.JobSearch, error) {
	rows, err := h.jobs.All(ctx, owner)
	if err != nil {
		return stats.JobSearch{}, err
	}
	return stats.JobSearchStats(rows), nil
}

func (h *Handler) Completeness(w http.ResponseWriter, r *http.Request) {
	out, err := h.completeness(r.Context(), authentication.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *Handler) Predictions(w http.ResponseWriter, r *http.Request) {
	out, err := h.predictionStats(r.Context(), authentication.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *Handler) JobSearch(w http.ResponseWriter, r *http.Request) {
	out, err := h.jobSearch(r.Context(), authentication.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

// Dashboard combines the three statistics.
type Dashboard struct {
	Completeness stats.Completeness       `json:"completeness"`
	Predictions  stats.PredictionAccuracy `json:"predictions"`
	JobSearch    stats.JobSearch          `json:"job_search"`
}

// Dashboard loads the statistics concurrently.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	owner := authentication.UserID(r.Context())
	var out Dashboard
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		out.Completeness, err = h.completeness(ctx, owner)
		return err
	})
	g.Go(func() (err error) {
		out.Predictions, err = h.predictionStats(ctx, owner)
		return err
	})
	g.Go(func() (err error) {
		out.JobSearch, err = h.jobSearch(ctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, out)
}
