// Package marker derives map markers from table rows.
//
// Derivation is a pure function of its inputs. Marker identity is the row
// index in the source table, so every pass renumbers from zero.
package marker

import (
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapmap/pkg/core"
)

// FromColumns builds a marker for every row whose pair columns both hold a
// number inside the latitude and longitude ranges. Other rows are skipped.
func FromColumns(table *core.Table, pair core.ColumnPair) []core.Marker {
	if table == nil || !pair.Complete() {
		return nil
	}

	markers := make([]core.Marker, 0, len(table.Rows))
	for i, row := range table.Rows {
		lat, ok := ParseCoordinate(row[pair.Lat])
		if !ok {
			continue
		}
		lng, ok := ParseCoordinate(row[pair.Lng])
		if !ok || !core.ValidCoordinate(lat, lng) {
			continue
		}
		markers = append(markers, newMarker(i, lat, lng, row))
	}
	return markers
}

// FromLookup builds a marker for every row whose value in column exactly
// matches a geocoded location. Rows the oracle did not resolve get no marker.
// When the oracle repeats a location, the last entry wins.
func FromLookup(table *core.Table, column string, results []core.GeocodedLocation) []core.Marker {
	if table == nil || column == "" {
		return nil
	}

	lookup := make(map[string]core.GeocodedLocation, len(results))
	for _, r := range results {
		lookup[r.Location] = r
	}

	markers := make([]core.Marker, 0, len(table.Rows))
	for i, row := range table.Rows {
		place := row[column]
		if place == "" {
			continue
		}
		loc, ok := lookup[place]
		if !ok || !core.ValidCoordinate(loc.Lat, loc.Lng) {
			continue
		}
		markers = append(markers, newMarker(i, loc.Lat, loc.Lng, row))
	}
	return markers
}

// Places lists the non-empty values of column in row order, keeping
// duplicates. It returns core.ErrNoLocations when nothing is left.
func Places(table *core.Table, column string) ([]string, error) {
	if table == nil {
		return nil, core.ErrNoLocations
	}
	if !table.HasHeader(column) {
		return nil, core.ErrUnknownColumn
	}

	places := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		if v := row[column]; v != "" {
			places = append(places, v)
		}
	}
	if len(places) == 0 {
		return nil, core.ErrNoLocations
	}
	return places, nil
}

// ParseCoordinate reads a decimal coordinate. Surrounding space is allowed;
// empty, non-numeric, NaN and infinite values are rejected.
func ParseCoordinate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		return 0, false
	}
	return v, true
}

func newMarker(index int, lat, lng float64, row core.Row) core.Marker {
	return core.Marker{
		ID:    core.MarkerID(index),
		Index: index,
		Lat:   lat,
		Lng:   lng,
		Data:  row,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
