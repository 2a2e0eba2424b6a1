// Package detect guesses column roles from CSV headers.
package detect

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/leapmap/pkg/core"
)

var (
	latPatterns = []string{"lat", "latitude"}
	lngPatterns = []string{"lon", "lng", "longitude"}
)

// LatLng picks the first header that looks like a latitude and the first
// that looks like a longitude. Matching is a case-insensitive substring test,
// so "Latitude", "lat_deg" and "LON" all qualify. A header claimed for
// latitude is never reconsidered for longitude.
//
// A role with no match is left empty; callers fall back to geocoding.
func LatLng(headers []string) core.ColumnPair {
	var pair core.ColumnPair
	for _, h := range headers {
		lower := strings.ToLower(h)
		if pair.Lat == "" && containsAny(lower, latPatterns) {
			pair.Lat = h
			continue
		}
		if pair.Lng == "" && containsAny(lower, lngPatterns) {
			pair.Lng = h
		}
		if pair.Complete() {
			break
		}
	}
	return pair
}

// UniqueValues returns the sorted distinct non-empty values of column.
func UniqueValues(rows []core.Row, column string) []string {
	set := make(map[string]struct{})
	for _, row := range rows {
		if v := row[column]; v != "" {
			set[v] = struct{}{}
		}
	}
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
