// Package preferences stores the per-user application state: theme, text
// size and sidebar.
package preferences

import (
	"context"
	"net/http"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"careerhub-backend/controllers/authentication"
	"careerhub-backend/controllers/respond"
	"careerhub-backend/errors"
	"careerhub-backend/models/users"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler { return &Handler{db: db} }

func (h *Handler) Mount(mux *http.ServeMux, protect func(http.HandlerFunc) http.Handler) {
	mux.Handle("GET /api/v1/preferences", protect(h.Get))
	mux.Handle("PUT /api/v1/preferences", protect(h.Put))
}

// Load returns the stored preferences of owner, or the defaults.
func (h *Handler) Load(ctx context.Context, owner uint) (users.Preferences, error) {
	var p users.Preferences
	err := h.db.WithContext(ctx).Where("user_id = ?", owner).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return users.DefaultPreferences(owner), nil
	}
	if err != nil {
		return p, errors.Wrap(err, "load preferences")
	}
	return p, nil
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Load(r.Context(), authentication.UserID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

// Put merges the body onto the current preferences and stores them.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	owner := authentication.UserID(r.Context())
	p, err := h.Load(r.Context(), owner)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := respond.Decode(r, &p); err != nil {
		respond.Error(w, r, err)
		return
	}
	p.UserID = owner
	if err := p.Validate(); err != nil {
		respond.Error(w, r, err)
		return
	}
	tx := h.db.WithContext(r.Context())
	if p.ID != 0 {
		err = tx.Save(&p).Error
	} else {
		// A concurrent first save for the same user turns into an update.
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"theme", "text_size", "sidebar_collapsed", "updated_at"}),
		}).Create(&p).Error
	}
	if err != nil {
		respond.Error(w, r, errors.Wrap(err, "save preferences"))
		return
	}
	respond.JSON(w, http.StatusOK, p)
}
