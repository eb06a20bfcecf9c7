// Package functions exposes the named-function runtime over HTTP.
package functions

import (
	"encoding/json"
	"io"
	"net/http"

	"careerhub-backend/controllers/authentication"
	"careerhub-backend/controllers/respond"
	"careerhub-backend/errors"
	fn "careerhub-backend/services/functions"
)

type Handler struct {
	registry *fn.Registry
}

func NewHandler(registry *fn.Registry) *Handler {
	return &Handler{registry: registry}
}

func (h *Handler) Mount(mux *http.ServeMux, protect func(http.HandlerFunc) http.Handler) {
	mux.Handle("GET /functions/v1", protect(h.List))
	mux.Handle("POST /functions/v1/{name}", protect(h.Invoke))
}

// List returns the registered function names.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string][]string{"functions": h.registry.Names()})
}

// Invoke runs a function with the request body and answers with its result.
// An empty body is passed through as no arguments.
func (h *Handler) Invoke(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, respond.MaxBodyBytes+1))
	if err != nil {
		respond.Error(w, r, errors.Wrap(errors.ErrInvalidRequest, "read body"))
		return
	}
	if len(body) > respond.MaxBodyBytes {
		respond.Error(w, r, errors.Invalidf("body exceeds %d bytes", respond.MaxBodyBytes))
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		respond.Error(w, r, errors.Invalidf("body is not valid JSON"))
		return
	}

	result, err := h.registry.Invoke(r.Context(), authentication.UserID(r.Context()), r.PathValue("name"), body)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}
