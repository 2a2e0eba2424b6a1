package workspace

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmap/internal/geocode"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

const citiesCSV = "City,Lat,Lng\nParis,48.8566,2.3522\nNowhere,N/A,0\nTokyo,35.6762,139.6503\n"

const placesCSV = "Name,Place,Kind\nLouvre,Paris,museum\nPrado,Madrid,museum\nHyde Park,London,park\nAtlantis,,myth\n"

func upload(t *testing.T, w *Workspace, name, body string) {
	t.Helper()
	require.NoError(t, w.Upload(name, "text/csv", strings.NewReader(body)))
}

func TestWorkspace_EndToEnd(t *testing.T) {
	w := New("s1", Options{})
	upload(t, w, "cities.csv", citiesCSV)

	v := w.View()
	assert.True(t, v.Loaded)
	assert.Equal(t, core.ColumnPair{Lat: "Lat", Lng: "Lng"}, v.Pair)
	assert.False(t, v.NeedsGeocode)
	assert.Equal(t, 2, v.Total)
	assert.Len(t, v.Visible, 2)

	w.SetSearch("tok")
	v = w.View()
	require.Len(t, v.Visible, 1)
	assert.Equal(t, "Tokyo", v.Visible[0].Data["City"])
	assert.True(t, v.FiltersActive)
	assert.Len(t, v.Map.Points, 1)
}

func TestWorkspace_UploadErrorsRollBack(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		contentType string
		body        string
		wantErr     error
	}{
		{name: "not csv", file: "data.txt", contentType: "text/plain", body: citiesCSV, wantErr: core.ErrNotCSV},
		{name: "header only", file: "a.csv", body: "City,Lat,Lng\n", wantErr: core.ErrTooFewLines},
		{name: "blank", file: "a.csv", body: "\n\n", wantErr: core.ErrTooFewLines},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New("s1", Options{})
			upload(t, w, "cities.csv", citiesCSV)

			err := w.Upload(tt.file, tt.contentType, strings.NewReader(tt.body))

			require.ErrorIs(t, err, tt.wantErr)
			v := w.View()
			assert.False(t, v.Loaded)
			assert.Empty(t, v.FileName)
			assert.Zero(t, v.Total)
			assert.False(t, v.NoLocations, "nothing loaded")
			assert.Equal(t, tt.wantErr.Error(), v.Error)
		})
	}
}

func TestWorkspace_NoLocations(t *testing.T) {
	w := New("s1", Options{})
	upload(t, w, "bad.csv", "City,Lat,Lng\nX,N/A,N/A\n")

	v := w.View()
	assert.True(t, v.NoLocations)
	assert.False(t, v.HasMarkers())
}

func TestWorkspace_OutOfRangeColumnsProduceNoMarkers(t *testing.T) {
	w := New("s1", Options{})
	upload(t, w, "metro.csv", "Name,Population,Latitude,Longitude\nParis,2148000,48.8566,2.3522\n")

	v := w.View()
	assert.Equal(t, "Population", v.Pair.Lat, "header match is by substring")
	assert.Zero(t, v.Total)
	assert.True(t, v.NoLocations)
	assert.Empty(t, v.Map.Points)
}

func TestWorkspace_Geocode(t *testing.T) {
	w := New("s1", Options{})
	upload(t, w, "places.csv", placesCSV)

	v := w.View()
	assert.True(t, v.NeedsGeocode)
	assert.True(t, v.NoLocations)

	token, places, err := w.BeginGeocode("Place")
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris", "Madrid", "London"}, places)

	v = w.View()
	assert.True(t, v.Loading)
	assert.False(t, v.NoLocations, "overlay hidden while loading")
	assert.Equal(t, "Place", v.GeocodeColumn)

	oracle := geocode.NewStatic([]core.GeocodedLocation{
		{Location: "Paris", Lat: 48.85, Lng: 2.35},
		{Location: "London", Lat: 51.5, Lng: -0.12},
	})
	results, err := oracle.Geocode(context.Background(), places)
	require.NoError(t, err)
	require.NoError(t, w.CommitGeocode(token, "Place", results, nil))

	v = w.View()
	assert.False(t, v.Loading)
	require.Equal(t, 2, v.Total)
	assert.Equal(t, "marker-0", v.Visible[0].ID)
	assert.Equal(t, "marker-2", v.Visible[1].ID, "ids keep the row position")
}

func TestWorkspace_GeocodeStaleResultDiscarded(t *testing.T) {
	w := New("s1", Options{})
	upload(t, w, "places.csv", placesCSV)

	first, _, err := w.BeginGeocode("Place")
	require.NoError(t, err)
	second, _, err := w.BeginGeocode("Name")
	require.NoError(t, err)

	// The newer request resolves first.
	require.NoError(t, w.CommitGeocode(second, "Name", []core.GeocodedLocation{{Location: "Prado", Lat: 40.41, Lng: -3.69}}, nil))
	// The older one lands afterwards and must not overwrite it.
	err = w.CommitGeocode(first, "Place", []core.GeocodedLocation{{Location: "Paris", Lat: 48.85, Lng: 2.35}}, nil)
	require.ErrorIs(t, err, core.ErrStaleResult)

	v := w.View()
	require.Len(t, v.Visible, 1)
	assert.Equal(t, "Prado", v.Visible[0].Data["Name"])
	assert.False(t, v.Loading)
}

func TestWorkspace_GeocodeError(t *testing.T) {
	w := New("s1", Options{})
	upload(t, w, "places.csv", placesCSV)

	token, _, err := w.BeginGeocode("Place")
	require.NoError(t, err)
	require.NoError(t, w.CommitGeocode(token, "Place", nil, &core.OracleError{Cause: errors.New("connection reset")}))

	v := w.View()
	assert.False(t, v.Loading)
	assert.Equal(t, core.ErrGeocode.Error(), v.Error)
	assert.NotContains(t, v.Error, "connection reset")
}

func TestWorkspace_BeginGeocodeErrors(t *testing.T) {
	w := New("s1", Options{})
	_, _, err := w.BeginGeocode("Place")
	assert.ErrorIs(t, err, ErrNoFile)

	upload(t, w, "places.csv", "Name,Place\nA,\nB,\n")
	_, _, err = w.BeginGeocode("Missing")
	assert.ErrorIs(t, err, core.ErrUnknownColumn)

	_, _, err = w.BeginGeocode("Place")
	assert.ErrorIs(t, err, core.ErrNoLocations)
	v := w.View()
	assert.Equal(t, core.ErrNoLocations.Error(), v.Error)
	assert.False(t, v.Loading)
}

func TestWorkspace_LoadSupersedesGeocode(t *testing.T) {
	w := New("s1", Options{})
	upload(t, w, "places.csv", placesCSV)
	token, _, err := w.BeginGeocode("Place")
	require.NoError(t, err)

	upload(t, w, "cities.csv", citiesCSV)

	assert.ErrorIs(t, w.CommitGeocode(token, "Place", nil, nil), core.ErrStaleResult)
	assert.Equal(t, 2, w.View().Total)
}

func TestWorkspace_Facets(t *testing.T) {
	w := New("s1", Options{})
	upload(t, w, "kinds.csv", "Name,Kind,Lat,Lng\nA,park,1,1\nB,museum,2,2\nC,park,3,3\n")

	v := w.View()
	require.Len(t, v.FilterColumns, 2)
	assert.Equal(t, "Name", v.FilterColumns[0].Name)
	assert.Equal(t, []string{"museum", "park"}, v.FilterColumns[1].Values)
	assert.Equal(t, []string{"Name", "Kind"}, v.CategoryColumns)

	require.NoError(t, w.SetFilter("Kind", "park"))
	assert.Len(t, w.View().Visible, 2)

	w.SetSearch("c")
	assert.Len(t, w.View().Visible, 1)

	require.NoError(t, w.SetCategory("Kind"))
	v = w.View()
	assert.Equal(t, "category", v.Map.Style)
	assert.NotEmpty(t, v.Map.Points[0].Color)

	w.ResetFilters()
	v = w.View()
	assert.Len(t, v.Visible, 3)
	assert.False(t, v.FiltersActive)
	assert.Equal(t, "Kind", v.Facets.Category, "category survives filter reset")

	require.NoError(t, w.SetFilter("Kind", "park"))
	require.NoError(t, w.SetFilter("Kind", ""))
	assert.False(t, w.View().FiltersActive)

	assert.ErrorIs(t, w.SetFilter("Nope", "x"), core.ErrUnknownColumn)
	assert.ErrorIs(t, w.SetCategory("Lat"), core.ErrUnknownColumn)
	require.NoError(t, w.SetCategory(""))
	assert.Equal(t, "default", w.View().Map.Style)
}

func TestWorkspace_ResetKeepsDisplayToggles(t *testing.T) {
	w := New("s1", Options{})
	upload(t, w, "cities.csv", citiesCSV)
	w.SetSearch("paris")

	assert.Equal(t, core.ThemeDark, w.ToggleTheme())
	assert.False(t, w.ToggleSidebar())

	w.Reset()

	v := w.View()
	assert.False(t, v.Loaded)
	assert.Empty(t, v.Facets.Search)
	assert.Zero(t, v.Total)
	assert.Equal(t, core.ThemeDark, v.Theme)
	assert.False(t, v.SidebarOpen)
	assert.Contains(t, v.Map.Tiles.URL, "dark_all")
}

func TestWorkspace_Export(t *testing.T) {
	w := New("s1", Options{})
	_, _, err := w.Export()
	assert.ErrorIs(t, err, ErrNoFile)

	upload(t, w, "cities.csv", citiesCSV)
	w.SetSearch("paris")

	ds, name, err := w.Export()
	require.NoError(t, err)
	assert.Equal(t, "cities.csv", name)
	assert.Equal(t, []string{"City", "Lat", "Lng"}, ds.Headers)
	require.Len(t, ds.Markers, 1)
	assert.Equal(t, "Paris", ds.Markers[0].Data["City"])
}
