// Package diagnostics serves the page security self-check and the API
// monitor.
package diagnostics

import (
	"context"
	"net/http"
	"strings"

	"careerhub-backend/controllers/respond"
	"careerhub-backend/errors"
	"careerhub-backend/logger"
	"careerhub-backend/services/monitor"
	"careerhub-backend/services/securitycheck"
)

type SecurityRunner interface {
	Run(ctx context.Context, rawURL string) (*securitycheck.Report, error)
}

type Prober interface {
	Check(ctx context.Context) monitor.Summary
}

type Handler struct {
	security SecurityRunner
	monitor  Prober
}

func NewHandler(security SecurityRunner, mon Prober) *Handler {
	return &Handler{security: security, monitor: mon}
}

func (h *Handler) Mount(mux *http.ServeMux, protect func(http.HandlerFunc) http.Handler) {
	mux.Handle("POST /api/v1/diagnostics/security", protect(h.Security))
	mux.Handle("GET /api/v1/diagnostics/monitor", protect(h.Monitor))
}

type securityRequest struct {
	URL string `json:"url"`
}

func (h *Handler) Security(w http.ResponseWriter, r *http.Request) {
	var in securityRequest
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, err)
		return
	}
	if strings.TrimSpace(in.URL) == "" {
		respond.Error(w, r, errors.Invalidf("url is required"))
		return
	}
	report, err := h.security.Run(r.Context(), in.URL)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	logger.FromContext(r.Context(), nil).Infow("security check",
		"url", report.URL, "passed", report.Passed, "failed", report.Failed)
	respond.JSON(w, http.StatusOK, report)
}

func (h *Handler) Monitor(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.monitor.Check(r.Context()))
}
