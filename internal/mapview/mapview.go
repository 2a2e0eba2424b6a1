// Package mapview turns visible markers into the payload the browser map
// draws. Everything the map needs is decided here; the page script only
// renders it.
package mapview

import (
	"gonum.org/v1/gonum/floats"

	"github.com/leapstack-labs/leapmap/pkg/core"
	"github.com/leapstack-labs/leapmap/pkg/palette"
)

// View constants shared with the page script.
const (
	DefaultZoom   = 2
	FitPadding    = 50
	FitMaxZoom    = 15
	CategoryDotPx = 20
)

// DefaultIconSize is the pin size in pixels, anchored at its bottom centre.
var DefaultIconSize = [2]int{26, 44}

// DefaultCenter is shown when there is nothing to fit.
var DefaultCenter = [2]float64{20, 0}

// Tiles is a basemap source.
type Tiles struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
}

var (
	lightTiles = Tiles{
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
	}
	darkTiles = Tiles{
		URL: "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors ` +
			`&copy; <a href="https://carto.com/attributions">CARTO</a>`,
	}
)

// TilesFor returns the basemap for a theme.
func TilesFor(theme core.Theme) Tiles {
	if theme == core.ThemeDark {
		return darkTiles
	}
	return lightTiles
}

// Field is one popup line.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Point is one drawable marker. An empty Color means the default pin.
type Point struct {
	ID     string  `json:"id"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Color  string  `json:"color,omitempty"`
	Fields []Field `json:"fields"`
}

// Bounds is a south-west / north-east box.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Payload is the complete map state.
type Payload struct {
	Theme   core.Theme       `json:"theme"`
	Tiles   Tiles            `json:"tiles"`
	Style   string           `json:"style"`
	Points  []Point          `json:"points"`
	Legend  []palette.Swatch `json:"legend,omitempty"`
	Bounds  *Bounds          `json:"bounds"`
	Center  [2]float64       `json:"center"`
	Zoom    int              `json:"zoom"`
	Padding int              `json:"padding"`
	MaxZoom int              `json:"maxZoom"`
	DotPx   int              `json:"dotPx"`
	PinSize [2]int           `json:"pinSize"`
}

// Build lays out markers for display. headers orders popup fields; columns
// missing from headers are not shown.
func Build(headers []string, markers []core.Marker, style core.MarkerStyle, theme core.Theme) Payload {
	if style == nil {
		style = core.DefaultStyle{}
	}
	p := Payload{
		Theme:   theme,
		Tiles:   TilesFor(theme),
		Style:   style.Name(),
		Points:  make([]Point, 0, len(markers)),
		Center:  DefaultCenter,
		Zoom:    DefaultZoom,
		Padding: FitPadding,
		MaxZoom: FitMaxZoom,
		DotPx:   CategoryDotPx,
		PinSize: DefaultIconSize,
	}

	seen := make(map[string]bool)
	for _, m := range markers {
		color := colorFor(style, m.Data)
		p.Points = append(p.Points, Point{
			ID:     m.ID,
			Lat:    m.Lat,
			Lng:    m.Lng,
			Color:  color,
			Fields: fields(headers, m.Data),
		})
		if cs, ok := style.(core.CategoryStyle); ok && color != "" {
			v := m.Data[cs.Field]
			if !seen[v] {
				seen[v] = true
				p.Legend = append(p.Legend, palette.Swatch{Value: v, Color: color})
			}
		}
	}

	p.Bounds = boundsOf(markers)
	return p
}

func colorFor(style core.MarkerStyle, row core.Row) string {
	cs, ok := style.(core.CategoryStyle)
	if !ok {
		return ""
	}
	v := row[cs.Field]
	if v == "" {
		return ""
	}
	return palette.Color(v)
}

func fields(headers []string, row core.Row) []Field {
	out := make([]Field, 0, len(headers))
	for _, h := range headers {
		v, ok := row[h]
		if !ok {
			continue
		}
		out = append(out, Field{Key: h, Value: v})
	}
	return out
}

// boundsOf returns nil for no markers.
func boundsOf(markers []core.Marker) *Bounds {
	if len(markers) == 0 {
		return nil
	}
	lats := make([]float64, len(markers))
	lngs := make([]float64, len(markers))
	for i, m := range markers {
		lats[i] = m.Lat
		lngs[i] = m.Lng
	}
	return &Bounds{
		South: floats.Min(lats),
		West:  floats.Min(lngs),
		North: floats.Max(lats),
		East:  floats.Max(lngs),
	}
}
