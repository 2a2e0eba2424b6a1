package mapper

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/leapmap/internal/export"
	"github.com/leapstack-labs/leapmap/internal/geocode"
	"github.com/leapstack-labs/leapmap/internal/metrics"
	"github.com/leapstack-labs/leapmap/internal/ui/notifier"
	"github.com/leapstack-labs/leapmap/internal/ui/session"
	"github.com/leapstack-labs/leapmap/internal/workspace"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

// maxUploadBytes caps an uploaded CSV file.
const maxUploadBytes = 32 << 20

// fallbackSession keys requests that arrive without a session id.
const fallbackSession = "default"

// errNoOracle is reported when geocoding is requested without an API key.
var errNoOracle = errors.New("geocoding is not configured: set geocode.api_key or GEMINI_API_KEY")

// Handlers provides HTTP handlers for the map page.
type Handlers struct {
	store    *workspace.Store
	oracle   geocode.Oracle
	notifier *notifier.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance. oracle may be nil, in which
// case geocode actions fail with a user-visible error.
func NewHandlers(store *workspace.Store, oracle geocode.Oracle, notify *notifier.Notifier, m *metrics.Metrics, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		store:    store,
		oracle:   oracle,
		notifier: notify,
		metrics:  m,
		logger:   logger,
	}
}

func (h *Handlers) workspace(r *http.Request) *workspace.Workspace {
	id := session.ID(r.Context())
	if id == "" {
		id = fallbackSession
	}
	return h.store.Get(id)
}

// HandleMapPage renders the full page with server-rendered content.
func (h *Handlers) HandleMapPage(w http.ResponseWriter, r *http.Request) {
	v := h.workspace(r).View()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := MapPage("Map", v).Render(r.Context(), w); err != nil {
		h.logger.Error("render page", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// MapPageUpdates is the long-lived SSE endpoint for the page. It pushes the
// shell whenever the session's workspace changes outside the current
// request, e.g. a geocode finishing in another tab or a preload reload.
// It does not send initial state; HandleMapPage already rendered it.
func (h *Handlers) MapPageUpdates(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe(ws.ID())
	defer h.notifier.Unsubscribe(ws.ID(), updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := h.sendView(sse, h.workspace(r), true); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// sendView patches the shell, optionally syncs signals, and redraws the map.
func (h *Handlers) sendView(sse *datastar.ServerSentEventGenerator, ws *workspace.Workspace, syncSignals bool) error {
	v := ws.View()
	if err := sse.PatchElementTempl(AppShell(v)); err != nil {
		return err
	}
	if syncSignals {
		if err := sse.MarshalAndPatchSignals(signalsFor(v)); err != nil {
			return err
		}
	}
	script, err := mapScript(v.Map)
	if err != nil {
		return err
	}
	return sse.ExecuteScript(script)
}

func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, syncSignals bool) {
	sse := datastar.NewSSE(w, r)
	if err := h.sendView(sse, ws, syncSignals); err != nil {
		h.logger.Error("send view", "error", err)
		_ = sse.ConsoleError(err)
	}
}

// readSignals reads the request signals. On failure it reports to the
// browser console and returns false.
func (h *Handlers) readSignals(w http.ResponseWriter, r *http.Request) (Signals, bool) {
	var signals Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(err)
		return signals, false
	}
	return signals, true
}

// Upload accepts a multipart CSV upload.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.logger.Debug("upload without file", "error", err)
		// An unnamed upload fails validation and resets the workspace.
		_ = ws.Upload("", "", http.NoBody)
		h.respond(w, r, ws, true)
		return
	}
	defer func() { _ = file.Close() }()

	if err := ws.Upload(header.Filename, header.Header.Get("Content-Type"), file); err != nil {
		h.logger.Info("upload rejected", "file", header.Filename, "error", err)
	} else {
		h.logger.Info("file loaded", "file", header.Filename, "workspace", ws.ID())
	}
	h.respond(w, r, ws, true)
}

// Reset clears the loaded file.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	ws.Reset()
	h.respond(w, r, ws, true)
}

// Geocode resolves the selected column. The loading state is pushed before
// the oracle is called; only this request waits on it.
func (h *Handlers) Geocode(w http.ResponseWriter, r *http.Request) {
	signals, ok := h.readSignals(w, r)
	if !ok {
		return
	}
	ws := h.workspace(r)
	column := signals.GeocodeColumn

	token, places, err := ws.BeginGeocode(column)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		if !errors.Is(err, core.ErrNoLocations) {
			_ = sse.ConsoleError(err)
		}
		if err := h.sendView(sse, ws, false); err != nil {
			_ = sse.ConsoleError(err)
		}
		return
	}
	if err := h.sendView(sse, ws, false); err != nil {
		_ = sse.ConsoleError(err)
	}

	var results []core.GeocodedLocation
	oracleErr := error(&core.OracleError{Cause: errNoOracle})
	if h.oracle != nil {
		results, oracleErr = h.oracle.Geocode(r.Context(), places)
	}
	if oracleErr != nil {
		h.logger.Warn("geocode failed", "column", column, "workspace", ws.ID(), "error", oracleErr)
	}

	if err := ws.CommitGeocode(token, column, results, oracleErr); err != nil {
		h.logger.Debug("geocode result discarded", "column", column, "workspace", ws.ID(), "error", err)
		return
	}
	h.logger.Info("geocode committed", "column", column, "requested", len(places), "resolved", len(results))

	if err := h.sendView(sse, ws, false); err != nil {
		_ = sse.ConsoleError(err)
	}
	h.notifier.Notify(ws.ID())
}

// Search replaces the search text.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	signals, ok := h.readSignals(w, r)
	if !ok {
		return
	}
	ws := h.workspace(r)
	ws.SetSearch(signals.Search)
	h.respond(w, r, ws, false)
}

// Filter sets or clears one column filter.
func (h *Handlers) Filter(w http.ResponseWriter, r *http.Request) {
	signals, ok := h.readSignals(w, r)
	if !ok {
		return
	}
	ws := h.workspace(r)
	if err := ws.SetFilter(signals.FilterColumn, signals.FilterValue); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(err)
		return
	}
	h.respond(w, r, ws, false)
}

// ResetFilters clears filters and search.
func (h *Handlers) ResetFilters(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	ws.ResetFilters()
	h.respond(w, r, ws, true)
}

// Category selects the coloring column.
func (h *Handlers) Category(w http.ResponseWriter, r *http.Request) {
	signals, ok := h.readSignals(w, r)
	if !ok {
		return
	}
	ws := h.workspace(r)
	if err := ws.SetCategory(signals.Category); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(err)
		return
	}
	h.respond(w, r, ws, false)
}

// Theme toggles light and dark mode.
func (h *Handlers) Theme(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	ws.ToggleTheme()
	h.respond(w, r, ws, false)
}

// Sidebar toggles the control panel.
func (h *Handlers) Sidebar(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(r)
	ws.ToggleSidebar()
	h.respond(w, r, ws, false)
}

// Export downloads the visible markers.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dataset, name, err := h.workspace(r).Export()
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename(name)+`"`)
	if err := export.Write(w, format, dataset); err != nil {
		h.logger.Error("export failed", "format", format, "error", err)
		return
	}
	h.metrics.Export(string(format))
}
