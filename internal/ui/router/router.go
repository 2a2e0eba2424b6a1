// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/leapmap/internal/geocode"
	"github.com/leapstack-labs/leapmap/internal/metrics"
	mapperFeature "github.com/leapstack-labs/leapmap/internal/ui/features/mapper"
	"github.com/leapstack-labs/leapmap/internal/ui/notifier"
	"github.com/leapstack-labs/leapmap/internal/ui/resources"
	"github.com/leapstack-labs/leapmap/internal/ui/session"
	"github.com/leapstack-labs/leapmap/internal/workspace"
)

// SetupRoutes configures all routes for the UI server. Only the page and
// its actions carry a session; static assets, metrics and the health check
// do not.
func SetupRoutes(
	router chi.Router,
	sessionStore sessions.Store,
	store *workspace.Store,
	oracle geocode.Oracle,
	notify *notifier.Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) error {
	// Static assets
	router.Handle("/static/*", resources.Handler())

	router.Handle("/metrics", m.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	var err error
	router.Group(func(r chi.Router) {
		r.Use(session.Middleware(sessionStore, logger))
		err = mapperFeature.SetupRoutes(r, store, oracle, notify, m, logger)
	})
	return err
}
