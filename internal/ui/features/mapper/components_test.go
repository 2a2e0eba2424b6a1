package mapper

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmap/internal/mapview"
	"github.com/leapstack-labs/leapmap/internal/workspace"
	"github.com/leapstack-labs/leapmap/pkg/core"
	"github.com/leapstack-labs/leapmap/pkg/facet"
	"github.com/leapstack-labs/leapmap/pkg/palette"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, c.Render(context.Background(), &b))
	return b.String()
}

func TestAppShell(t *testing.T) {
	loaded := workspace.View{
		FileName: "parks.csv",
		Loaded:   true,
		Headers:  []string{"Name", "Kind"},
		RowCount: 4,
		Total:    2,
		Visible:  []core.Marker{{ID: "marker-0"}},
		Facets: core.Facets{
			Filters:  map[string]string{"Kind": "park"},
			Category: "Kind",
		},
		FilterColumns:   []facet.Column{{Name: "Kind", Values: []string{"museum", "park"}}},
		CategoryColumns: []string{"Kind"},
		FiltersActive:   true,
		Theme:           core.ThemeDark,
		SidebarOpen:     true,
		Map:             mapview.Payload{Legend: []palette.Swatch{{Value: "park", Color: "#ea6334"}}},
	}

	tests := []struct {
		name    string
		view    workspace.View
		want    []string
		notWant []string
	}{
		{
			name: "empty",
			view: workspace.View{Theme: core.ThemeLight},
			want: []string{
				`class="sidebar-closed"`,
				"Upload a CSV file to begin",
				`aria-label="Switch to dark mode"`,
			},
			notWant: []string{`id="search"`, "Geocode Locations", `id="error"`},
		},
		{
			name: "loaded with facets",
			view: loaded,
			want: []string{
				`class="sidebar-open"`,
				"parks.csv (4 rows)",
				"Showing 1 of 2 locations",
				`<option value="Kind" selected>Kind</option>`,
				`<option value="park" selected>park</option>`,
				`<option value="museum">museum</option>`,
				`id="filter-Kind" data-column="Kind"`,
				`fill="#ea6334"`,
				`id="reset-filters"`,
				`aria-label="Switch to light mode"`,
			},
			notWant: []string{"Upload a CSV file to begin"},
		},
		{
			name: "geocoding in flight",
			view: workspace.View{
				Loaded:        true,
				NeedsGeocode:  true,
				Headers:       []string{"Name", "Place"},
				GeocodeColumn: "Place",
				Loading:       true,
				Error:         "<b>bad</b>",
			},
			want: []string{
				`<select id="geocode-column" disabled`,
				`<option value="Place" selected>Place</option>`,
				"Geocoding locations...",
				"&lt;b&gt;bad&lt;/b&gt;",
			},
			notWant: []string{"<b>bad</b>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := render(t, AppShell(tt.view))
			for _, want := range tt.want {
				assert.Contains(t, html, want)
			}
			for _, notWant := range tt.notWant {
				assert.NotContains(t, html, notWant)
			}
		})
	}
}

func TestMapPage_EmbedsPayload(t *testing.T) {
	v := workspace.View{Map: mapview.Payload{Points: []mapview.Point{{ID: "marker-0", Lat: 1, Lng: 2}}}}

	html := render(t, MapPage("Map", v))

	assert.True(t, strings.HasPrefix(html, "<!doctype html>"))
	assert.Contains(t, html, `id="map-data"`)
	assert.Contains(t, html, "application/json")
	assert.Contains(t, html, `"id":"marker-0"`)
	assert.Contains(t, html, `href="/static/leapmap.css"`)
	assert.NotContains(t, html, `class="dark"`)

	v.Theme = core.ThemeDark
	assert.Contains(t, render(t, MapPage("Map", v)), `<html lang="en" class="dark">`)
}
