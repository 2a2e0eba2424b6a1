package mapview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmap/pkg/core"
	"github.com/leapstack-labs/leapmap/pkg/palette"
)

var headers = []string{"Name", "Type", "Lat", "Lng"}

func markers() []core.Marker {
	return []core.Marker{
		{ID: "marker-0", Index: 0, Lat: 48.85, Lng: 2.35, Data: core.Row{"Name": "Louvre", "Type": "museum", "Lat": "48.85", "Lng": "2.35"}},
		{ID: "marker-1", Index: 1, Lat: 52.51, Lng: 13.35, Data: core.Row{"Name": "Tiergarten", "Type": "park", "Lat": "52.51", "Lng": "13.35"}},
		{ID: "marker-2", Index: 2, Lat: 41.89, Lng: 12.49, Data: core.Row{"Name": "Colosseum", "Type": "", "Lat": "41.89", "Lng": "12.49"}},
		{ID: "marker-3", Index: 3, Lat: 40.41, Lng: -3.69, Data: core.Row{"Name": "Prado", "Type": "museum", "Lat": "40.41", "Lng": "-3.69"}},
	}
}

func TestBuild_DefaultStyle(t *testing.T) {
	p := Build(headers, markers(), core.DefaultStyle{}, core.ThemeLight)

	assert.Equal(t, "default", p.Style)
	assert.Equal(t, TilesFor(core.ThemeLight), p.Tiles)
	require.Len(t, p.Points, 4)
	for _, pt := range p.Points {
		assert.Empty(t, pt.Color)
	}
	assert.Empty(t, p.Legend)
	assert.Equal(t, []Field{
		{Key: "Name", Value: "Louvre"},
		{Key: "Type", Value: "museum"},
		{Key: "Lat", Value: "48.85"},
		{Key: "Lng", Value: "2.35"},
	}, p.Points[0].Fields)
}

func TestBuild_CategoryStyle(t *testing.T) {
	p := Build(headers, markers(), core.CategoryStyle{Field: "Type"}, core.ThemeDark)

	assert.Equal(t, "category", p.Style)
	assert.Equal(t, darkTiles, p.Tiles)
	assert.Equal(t, palette.Color("museum"), p.Points[0].Color)
	assert.Equal(t, palette.Color("park"), p.Points[1].Color)
	assert.Empty(t, p.Points[2].Color, "empty category value falls back to the pin")
	assert.Equal(t, p.Points[0].Color, p.Points[3].Color, "same value, same color")
	assert.Equal(t, []palette.Swatch{
		{Value: "museum", Color: palette.Color("museum")},
		{Value: "park", Color: palette.Color("park")},
	}, p.Legend)
}

func TestBuild_Bounds(t *testing.T) {
	p := Build(headers, markers(), nil, core.ThemeLight)

	require.NotNil(t, p.Bounds)
	assert.Equal(t, Bounds{South: 40.41, West: -3.69, North: 52.51, East: 13.35}, *p.Bounds)
	assert.Equal(t, FitPadding, p.Padding)
	assert.Equal(t, FitMaxZoom, p.MaxZoom)
}

func TestBuild_Empty(t *testing.T) {
	p := Build(headers, nil, core.DefaultStyle{}, core.ThemeLight)

	assert.Nil(t, p.Bounds)
	assert.Equal(t, [2]float64{20, 0}, p.Center)
	assert.Equal(t, 2, p.Zoom)
	assert.NotNil(t, p.Points)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"points":[]`)
	assert.Contains(t, string(raw), `"bounds":null`)
}

func TestTilesFor(t *testing.T) {
	assert.Contains(t, TilesFor(core.ThemeLight).URL, "tile.openstreetmap.org")
	assert.Contains(t, TilesFor(core.ThemeDark).URL, "dark_all")
	assert.Contains(t, TilesFor(core.ThemeDark).Attribution, "CARTO")
}
