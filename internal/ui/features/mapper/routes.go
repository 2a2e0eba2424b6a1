// Package mapper provides the map page feature: the page itself, its live
// update stream, and the actions that edit the session workspace.
package mapper

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/leapmap/internal/geocode"
	"github.com/leapstack-labs/leapmap/internal/metrics"
	"github.com/leapstack-labs/leapmap/internal/ui/notifier"
	"github.com/leapstack-labs/leapmap/internal/workspace"
)

// SetupRoutes configures routes for the map feature.
func SetupRoutes(
	router chi.Router,
	store *workspace.Store,
	oracle geocode.Oracle,
	notify *notifier.Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) error {
	handlers := NewHandlers(store, oracle, notify, m, logger)

	router.Get("/", handlers.HandleMapPage)
	router.Get("/updates", handlers.MapPageUpdates)
	router.Get("/export/{format}", handlers.Export)

	router.Route("/api", func(r chi.Router) {
		r.Post("/upload", handlers.Upload)
		r.Post("/reset", handlers.Reset)
		r.Post("/geocode", handlers.Geocode)
		r.Post("/search", handlers.Search)
		r.Post("/filter", handlers.Filter)
		r.Post("/filters/reset", handlers.ResetFilters)
		r.Post("/category", handlers.Category)
		r.Post("/theme", handlers.Theme)
		r.Post("/sidebar", handlers.Sidebar)
	})

	return nil
}
