// Package export writes the visible markers to downloadable files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/leapstack-labs/leapmap/pkg/core"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatCSV     Format = "csv"
	FormatGeoJSON Format = "geojson"
	FormatXLSX    Format = "xlsx"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatGeoJSON, FormatXLSX}

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown export format (want csv, geojson or xlsx)")

// ParseFormat resolves a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatGeoJSON, "json":
		return FormatGeoJSON, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnknownFormat)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatGeoJSON:
		return "application/geo+json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename derives the download name from the source file name.
func (f Format) Filename(source string) string {
	base := strings.TrimSuffix(source, ".csv")
	base = strings.TrimSuffix(base, ".CSV")
	if base == "" {
		base = "markers"
	}
	return base + "." + string(f)
}

// Dataset is what gets exported: the table headers, the coordinate source
// columns (empty when coordinates came from geocoding) and the markers.
type Dataset struct {
	Headers []string
	Pair    core.ColumnPair
	Markers []core.Marker
}

// columns returns the output header row. Geocoded coordinates are not in
// the table, so they get their own columns.
func (d Dataset) columns() []string {
	cols := append([]string(nil), d.Headers...)
	if !d.Pair.Complete() {
		cols = append(cols, freeColumn(d.Headers, "lat"), freeColumn(d.Headers, "lng"))
	}
	return cols
}

// freeColumn returns name, or name with a "_geocoded" suffix (then a
// counter) when the table already has a header equal to it ignoring case.
func freeColumn(headers []string, name string) string {
	taken := func(candidate string) bool {
		for _, h := range headers {
			if strings.EqualFold(h, candidate) {
				return true
			}
		}
		return false
	}

	candidate := name
	for i := 1; taken(candidate); i++ {
		if i == 1 {
			candidate = name + "_geocoded"
		} else {
			candidate = fmt.Sprintf("%s_geocoded_%d", name, i)
		}
	}
	return candidate
}

func (d Dataset) record(m core.Marker) []string {
	rec := make([]string, 0, len(d.Headers)+2)
	for _, h := range d.Headers {
		rec = append(rec, m.Data[h])
	}
	if !d.Pair.Complete() {
		rec = append(rec, formatFloat(m.Lat), formatFloat(m.Lng))
	}
	return rec
}

// Write encodes d to w in format f.
func Write(w io.Writer, f Format, d Dataset) error {
	switch f {
	case FormatCSV:
		return CSV(w, d)
	case FormatGeoJSON:
		return GeoJSON(w, d)
	case FormatXLSX:
		return XLSX(w, d)
	}
	return fmt.Errorf("%q: %w", f, ErrUnknownFormat)
}

// CSV writes a header row and one record per marker.
func CSV(w io.Writer, d Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.columns()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, m := range d.Markers {
		if err := cw.Write(d.record(m)); err != nil {
			return fmt.Errorf("write csv row %d: %w", m.Index, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FeatureCollection is a GeoJSON document of point features.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one GeoJSON point with the row as properties.
type Feature struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Geometry   Geometry          `json:"geometry"`
	Properties map[string]string `json:"properties"`
}

// Geometry holds a GeoJSON position, [lng, lat].
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// GeoJSON writes a FeatureCollection.
func GeoJSON(w io.Writer, d Dataset) error {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(d.Markers))}
	for _, m := range d.Markers {
		props := make(map[string]string, len(m.Data))
		for k, v := range m.Data {
			props[k] = v
		}
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			ID:         m.ID,
			Geometry:   Geometry{Type: "Point", Coordinates: [2]float64{m.Lng, m.Lat}},
			Properties: props,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}

const sheetName = "Markers"

// XLSX writes a single-sheet workbook with a bold, frozen header row.
func XLSX(w io.Writer, d Dataset) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := toCells(d.columns())
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	for i, m := range d.Markers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := toCells(d.record(m))
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", m.Index, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
