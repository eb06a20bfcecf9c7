// Package rest exposes owner-scoped tables as JSON resources:
//
//	GET    /api/v1/{name}        list (order, limit, offset, q, filters)
//	POST   /api/v1/{name}        create
//	GET    /api/v1/{name}/{id}   read
//	PATCH  /api/v1/{name}/{id}   partial update
//	DELETE /api/v1/{name}/{id}   delete
package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"careerhub-backend/controllers/authentication"
	"careerhub-backend/controllers/respond"
	"careerhub-backend/errors"
	"careerhub-backend/store"
)

// Row is a model that can be owned and validated.
type Row[T any] interface {
	store.Row[T]
	Created() time.Time
	SetCreated(time.Time)
	Validate() error
}

// Hooks run around writes. prev is nil on create.
type Hooks[T any] struct {
	BeforeWrite func(ctx context.Context, owner uint, row, prev *T) error
	AfterWrite  func(ctx context.Context, owner uint, row, prev *T)
}

type Resource[T any, P Row[T]] struct {
	Name string
	// NoCreate hides POST for rows that only functions produce.
	NoCreate bool
	Hooks    Hooks[T]
	table    *store.Table[T, P]
}

func NewResource[T any, P Row[T]](name string, table *store.Table[T, P]) *Resource[T, P] {
	return &Resource[T, P]{Name: name, table: table}
}

// Mount registers the routes under /api/v1/{Name}, each wrapped by protect.
func (res *Resource[T, P]) Mount(mux *http.ServeMux, protect func(http.HandlerFunc) http.Handler) {
	base := "/api/v1/" + res.Name
	mux.Handle("GET "+base, protect(res.List))
	if !res.NoCreate {
		mux.Handle("POST "+base, protect(res.Create))
	}
	mux.Handle("GET "+base+"/{id}", protect(res.Get))
	mux.Handle("PATCH "+base+"/{id}", protect(res.Update))
	mux.Handle("DELETE "+base+"/{id}", protect(res.Delete))
}

// PathID parses the {id} path segment.
func PathID(r *http.Request) (uint, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Invalidf("id %q is not a positive integer", raw)
	}
	return uint(id), nil
}

func (res *Resource[T, P]) List(w http.ResponseWriter, r *http.Request) {
	q, err := store.ParseQuery(r.URL.Query())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	rows, total, err := res.table.List(r.Context(), authentication.UserID(r.Context()), q)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, respond.List{Data: rows, Total: total})
}

func (res *Resource[T, P]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	row, err := res.table.Get(r.Context(), authentication.UserID(r.Context()), id)
	if err != nil {
		respond.Error(w, r, errors.Wrap(err, res.Name))
		return
	}
	respond.JSON(w, http.StatusOK, row)
}

func (res *Resource[T, P]) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := authentication.UserID(ctx)

	row := P(new(T))
	if err := respond.Decode(r, row); err != nil {
		respond.Error(w, r, err)
		return
	}
	row.SetOwner(owner)
	row.SetID(0)
	if err := row.Validate(); err != nil {
		respond.Error(w, r, err)
		return
	}
	if h := res.Hooks.BeforeWrite; h != nil {
		if err := h(ctx, owner, row, nil); err != nil {
			respond.Error(w, r, err)
			return
		}
	}
	if err := res.table.Create(ctx, owner, row); err != nil {
		respond.Error(w, r, err)
		return
	}
	if h := res.Hooks.AfterWrite; h != nil {
		h(ctx, owner, row, nil)
	}
	respond.JSON(w, http.StatusCreated, row)
}

// Update decodes the body onto the stored row, so absent fields keep their
// values. Owner, id and creation time cannot be changed.
func (res *Resource[T, P]) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := authentication.UserID(ctx)
	id, err := PathID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	row, err := res.table.Get(ctx, owner, id)
	if err != nil {
		respond.Error(w, r, errors.Wrap(err, res.Name))
		return
	}
	prev := *row

	if err := respond.Decode(r, row); err != nil {
		respond.Error(w, r, err)
		return
	}
	row.SetOwner(owner)
	row.SetID(id)
	row.SetCreated(P(&prev).Created())
	if err := row.Validate(); err != nil {
		respond.Error(w, r, err)
		return
	}
	if h := res.Hooks.BeforeWrite; h != nil {
		if err := h(ctx, owner, row, &prev); err != nil {
			respond.Error(w, r, err)
			return
		}
	}
	if err := res.table.Save(ctx, owner, row); err != nil {
		respond.Error(w, r, err)
		return
	}
	if h := res.Hooks.AfterWrite; h != nil {
		h(ctx, owner, row, &prev)
	}
	respond.JSON(w, http.StatusOK, row)
}

func (res *Resource[T, P]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if err := res.table.Delete(r.Context(), authentication.UserID(r.Context()), id); err != nil {
		respond.Error(w, r, errors.Wrap(err, res.Name))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
