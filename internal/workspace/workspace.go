// Package workspace holds the application state of one browser session:
// the loaded table, the derived markers, the facets and the display
// toggles. Every mutation goes through a method that recomputes the
// derived views from scratch, so no view can drift from its inputs.
package workspace

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/leapstack-labs/leapmap/internal/export"
	"github.com/leapstack-labs/leapmap/internal/geocode"
	"github.com/leapstack-labs/leapmap/internal/mapview"
	"github.com/leapstack-labs/leapmap/internal/metrics"
	"github.com/leapstack-labs/leapmap/pkg/core"
	"github.com/leapstack-labs/leapmap/pkg/csvparse"
	"github.com/leapstack-labs/leapmap/pkg/detect"
	"github.com/leapstack-labs/leapmap/pkg/facet"
	"github.com/leapstack-labs/leapmap/pkg/marker"
)

// ErrNoFile is returned by operations that need a loaded table.
var ErrNoFile = errors.New("no file loaded")

// Options tune derived views.
type Options struct {
	// MaxDistinct caps the distinct values of a filterable column.
	MaxDistinct int
	// Theme is the initial theme.
	Theme core.Theme
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Workspace is safe for concurrent use.
type Workspace struct {
	id      string
	opts    Options
	seq     geocode.Sequencer
	mu      sync.Mutex
	updated time.Time

	fileName      string
	table         *core.Table
	pair          core.ColumnPair
	filterColumns []facet.Column
	all           []core.Marker
	facets        core.Facets
	geocodeColumn string
	err           string
	preloaded     bool

	theme       core.Theme
	sidebarOpen bool
}

// New returns an empty workspace with the sidebar open.
func New(id string, opts Options) *Workspace {
	if opts.MaxDistinct <= 0 {
		opts.MaxDistinct = facet.MaxDistinct
	}
	if opts.Theme == "" {
		opts.Theme = core.ThemeLight
	}
	return &Workspace{
		id:          id,
		opts:        opts,
		facets:      core.NewFacets(),
		theme:       opts.Theme,
		sidebarOpen: true,
		updated:     time.Now(),
	}
}

// ID returns the session id the workspace belongs to.
func (w *Workspace) ID() string { return w.id }

// Load replaces the table. Coordinate columns are detected and, when both
// are present, markers are derived from them. Facets, errors and any
// outstanding geocode request are discarded.
func (w *Workspace) Load(name string, table *core.Table) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.load(name, table)
	w.preloaded = false
}

func (w *Workspace) load(name string, table *core.Table) {
	w.seq.Cancel()
	w.clearFile()

	w.fileName = name
	w.table = table
	w.pair = detect.LatLng(table.Headers)
	w.filterColumns = facet.Columns(table, w.pair, w.opts.MaxDistinct)
	if w.pair.Complete() {
		w.all = marker.FromColumns(table, w.pair)
	}
	w.touch()
}

// Upload validates and parses an uploaded file and loads it. On failure the
// workspace returns to the "no file loaded" state and keeps the error for
// display.
func (w *Workspace) Upload(name, contentType string, r io.Reader) error {
	table, err := parseUpload(name, contentType, r)
	w.opts.Metrics.Upload(err)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.seq.Cancel()
		w.clearFile()
		w.preloaded = false
		w.err = core.UserMessage(err)
		w.touch()
		return err
	}
	w.load(name, table)
	w.preloaded = false
	return nil
}

func parseUpload(name, contentType string, r io.Reader) (*core.Table, error) {
	if err := csvparse.CheckFilename(name, contentType); err != nil {
		return nil, &core.InputError{File: name, Err: err}
	}
	table, err := csvparse.ParseReader(r)
	if err != nil {
		return nil, &core.InputError{File: name, Err: err}
	}
	return table, nil
}

// Reset clears the file and everything derived from it. Theme and sidebar
// state survive.
func (w *Workspace) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq.Cancel()
	w.clearFile()
	w.preloaded = false
	w.touch()
}

func (w *Workspace) clearFile() {
	w.fileName = ""
	w.table = nil
	w.pair = core.ColumnPair{}
	w.filterColumns = nil
	w.all = nil
	w.facets = core.NewFacets()
	w.geocodeColumn = ""
	w.err = ""
}

// BeginGeocode starts a geocode action for column and returns the token to
// commit with and the places to resolve. Any earlier outstanding request is
// superseded. The caller runs the oracle without holding the workspace.
func (w *Workspace) BeginGeocode(column string) (geocode.Token, []string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.table == nil {
		return 0, nil, ErrNoFile
	}
	if !w.table.HasHeader(column) {
		return 0, nil, fmt.Errorf("%q: %w", column, core.ErrUnknownColumn)
	}

	w.geocodeColumn = column
	places, err := marker.Places(w.table, column)
	if err != nil {
		w.seq.Cancel()
		w.err = core.UserMessage(err)
		w.touch()
		return 0, nil, err
	}

	w.err = ""
	w.touch()
	return w.seq.Issue(), places, nil
}

// CommitGeocode settles the request identified by token. A token that is
// no longer the latest yields core.ErrStaleResult and leaves the workspace
// untouched. Otherwise the loading state clears and either the markers are
// rebuilt from results or the oracle error is recorded; on error the
// previous markers stay.
func (w *Workspace) CommitGeocode(token geocode.Token, column string, results []core.GeocodedLocation, oracleErr error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.seq.Commit(token); err != nil {
		w.opts.Metrics.Stale()
		return err
	}
	defer w.touch()

	if oracleErr != nil {
		w.err = core.UserMessage(oracleErr)
		return nil
	}
	w.err = ""
	w.all = marker.FromLookup(w.table, column, results)
	return nil
}

// SetFilter constrains column to value. An empty value removes the
// constraint.
func (w *Workspace) SetFilter(column, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.table == nil {
		return ErrNoFile
	}
	if !w.table.HasHeader(column) {
		return fmt.Errorf("%q: %w", column, core.ErrUnknownColumn)
	}
	if value == "" {
		delete(w.facets.Filters, column)
	} else {
		w.facets.Filters[column] = value
	}
	w.touch()
	return nil
}

// SetSearch replaces the search text.
func (w *Workspace) SetSearch(search string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.facets.Search = search
	w.touch()
}

// ResetFilters clears every filter and the search text. The category
// selection is kept.
func (w *Workspace) ResetFilters() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.facets.Filters = map[string]string{}
	w.facets.Search = ""
	w.touch()
}

// SetCategory selects the column used to color markers. "" restores the
// default icons.
func (w *Workspace) SetCategory(column string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if column != "" {
		if w.table == nil {
			return ErrNoFile
		}
		if !w.table.HasHeader(column) || w.pair.Excludes(column) {
			return fmt.Errorf("%q: %w", column, core.ErrUnknownColumn)
		}
	}
	w.facets.Category = column
	w.touch()
	return nil
}

// ToggleTheme flips between light and dark and returns the new theme.
func (w *Workspace) ToggleTheme() core.Theme {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.theme = w.theme.Toggle()
	w.touch()
	return w.theme
}

// ToggleSidebar flips the sidebar and returns whether it is now open.
func (w *Workspace) ToggleSidebar() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sidebarOpen = !w.sidebarOpen
	w.touch()
	return w.sidebarOpen
}

// Preloaded reports whether the table came from the server's preload file
// rather than an upload.
func (w *Workspace) Preloaded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.preloaded
}

// applyPreload loads a server-side table and marks it as such.
func (w *Workspace) applyPreload(name string, table *core.Table) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.load(name, table)
	w.preloaded = true
}

// Updated returns the time of the last mutation.
func (w *Workspace) Updated() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.updated
}

func (w *Workspace) touch() {
	w.updated = time.Now()
}

// View is an immutable snapshot of everything the page renders.
type View struct {
	ID       string
	FileName string
	Loaded   bool
	Headers  []string
	RowCount int
	Pair     core.ColumnPair

	// NeedsGeocode is set when a file is loaded but the coordinate columns
	// were not both found.
	NeedsGeocode  bool
	GeocodeColumn string
	Loading       bool
	Error         string

	Total   int
	Visible []core.Marker

	Facets          core.Facets
	FilterColumns   []facet.Column
	CategoryColumns []string
	FiltersActive   bool

	// NoLocations is set when a file is loaded, nothing is in flight and no
	// row produced a marker.
	NoLocations bool

	Theme       core.Theme
	SidebarOpen bool
	Preloaded   bool
	Map         mapview.Payload
}

// HasMarkers reports whether search and filter controls apply.
func (v View) HasMarkers() bool { return v.Total > 0 }

// View computes a snapshot.
func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	loading := w.seq.Pending()
	facets := w.facets.Clone()
	visible := facet.Apply(w.all, facets)

	v := View{
		ID:            w.id,
		FileName:      w.fileName,
		Loaded:        w.table != nil,
		Pair:          w.pair,
		GeocodeColumn: w.geocodeColumn,
		Loading:       loading,
		Error:         w.err,
		Total:         len(w.all),
		Visible:       visible,
		Facets:        facets,
		FilterColumns: w.filterColumns,
		FiltersActive: facet.Active(facets),
		Theme:         w.theme,
		SidebarOpen:   w.sidebarOpen,
		Preloaded:     w.preloaded,
	}
	if w.table != nil {
		v.Headers = w.table.Headers
		v.RowCount = w.table.Len()
		v.NeedsGeocode = !w.pair.Complete()
		v.CategoryColumns = facet.Candidates(w.table, w.pair)
		v.NoLocations = len(w.all) == 0 && !loading
	}
	v.Map = mapview.Build(v.Headers, visible, core.StyleFor(facets.Category), w.theme)
	return v
}

// Export returns the visible markers with the table headers they came
// from, and the loaded file name.
func (w *Workspace) Export() (export.Dataset, string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.table == nil {
		return export.Dataset{}, "", ErrNoFile
	}
	return export.Dataset{
		Headers: w.table.Headers,
		Pair:    w.pair,
		Markers: facet.Apply(w.all, w.facets.Clone()),
	}, w.fileName, nil
}
