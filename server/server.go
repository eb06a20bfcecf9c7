// Package server assembles the HTTP API: routes, middleware and the
// listener lifecycle.
package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"careerhub-backend/config"
	"careerhub-backend/controllers/analytics"
	"careerhub-backend/controllers/authentication"
	"careerhub-backend/controllers/diagnostics"
	"careerhub-backend/controllers/documents"
	fnctl "careerhub-backend/controllers/functions"
	"careerhub-backend/controllers/httpCors"
	"careerhub-backend/controllers/preferences"
	"careerhub-backend/controllers/resources"
	"careerhub-backend/controllers/respond"
	"careerhub-backend/errors"
	"careerhub-backend/services/events"
	"careerhub-backend/services/export"
	"careerhub-backend/services/functions"
	"careerhub-backend/services/importer"
	"careerhub-backend/services/notion"
)

const (
	readyTimeout    = 2 * time.Second
	shutdownTimeout = 15 * time.Second
)

// Deps are the services the routes are built from.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Auth      *authentication.Handler
	Broker    events.Broker
	Notion    notion.Syncer
	Functions *functions.Registry
	Exports   *export.Service
	Imports   *importer.Service
	Security  diagnostics.SecurityRunner
	Monitor   diagnostics.Prober
}

// NewHandler returns the full API wrapped in middleware.
func NewHandler(d Deps) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health)
	mux.HandleFunc("GET /ready", ready(d.DB))

	protect := d.Auth.Protect
	d.Auth.Mount(mux)
	resources.Mount(mux, protect, resources.Deps{DB: d.DB, Broker: d.Broker, Notion: d.Notion})
	analytics.NewHandler(d.DB).Mount(mux, protect)
	preferences.NewHandler(d.DB).Mount(mux, protect)
	fnctl.NewHandler(d.Functions).Mount(mux, protect)
	documents.NewHandler(d.Exports, d.Imports).Mount(mux, protect)
	diagnostics.NewHandler(d.Security, d.Monitor).Mount(mux, protect)

	var h http.Handler = mux
	h = httpCors.CorsSettings(d.Config.CORS).Handler(h)
	h = recoverPanics(h)
	h = accessLog(h)
	h = requestID(h)
	return h
}

func health(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func ready(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := config.Ping(ctx, db); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// Run serves h on addr until ctx is cancelled, then drains in-flight
// requests.
func Run(ctx context.Context, addr string, h http.Handler, log *zap.SugaredLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	log.Infow("shutting down", "timeout", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
