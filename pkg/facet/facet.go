// Package facet narrows a marker list by equality filters and free-text search.
package facet

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapmap/pkg/core"
	"github.com/leapstack-labs/leapmap/pkg/detect"
)

// MaxDistinct is the largest number of distinct values a column may have and
// still be offered as a filter. Wider columns behave like identifiers.
const MaxDistinct = 200

// Column is one filterable dimension with the values it can be set to.
type Column struct {
	Name   string
	Values []string
}

// Apply returns the markers that satisfy every active equality filter and,
// when search is set, contain the search text in at least one field.
//
// Apply is pure: it never mutates markers or facets, and the result depends
// only on its arguments, so the order in which facets were edited is
// irrelevant.
func Apply(markers []core.Marker, facets core.Facets) []core.Marker {
	filters := facets.ActiveFilters()
	m := newMatcher(facets.Search)

	visible := make([]core.Marker, 0, len(markers))
	for _, mk := range markers {
		if !matchFilters(mk.Data, filters) {
			continue
		}
		if !m.match(mk.Data) {
			continue
		}
		visible = append(visible, mk)
	}
	return visible
}

// Columns lists the headers that can be offered as filters: the coordinate
// source columns are excluded, as is any column whose distinct value count
// is zero or above maxDistinct. A non-positive maxDistinct means MaxDistinct.
func Columns(table *core.Table, exclude core.ColumnPair, maxDistinct int) []Column {
	if table == nil {
		return nil
	}
	if maxDistinct <= 0 {
		maxDistinct = MaxDistinct
	}

	var cols []Column
	for _, h := range Candidates(table, exclude) {
		values := detect.UniqueValues(table.Rows, h)
		if len(values) == 0 || len(values) > maxDistinct {
			continue
		}
		cols = append(cols, Column{Name: h, Values: values})
	}
	return cols
}

// Candidates returns the headers that are not coordinate source columns.
// These are also the choices for category coloring.
func Candidates(table *core.Table, exclude core.ColumnPair) []string {
	if table == nil {
		return nil
	}
	out := make([]string, 0, len(table.Headers))
	for _, h := range table.Headers {
		if exclude.Excludes(h) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// Active reports whether any filter or the search text constrains the view.
func Active(facets core.Facets) bool {
	return len(facets.ActiveFilters()) > 0 || facets.SearchActive()
}

func matchFilters(row core.Row, filters map[string]string) bool {
	for col, want := range filters {
		if row[col] != want {
			return false
		}
	}
	return true
}

// matcher holds the lowered search needle. A Caser is stateful, so each
// Apply call builds its own.
type matcher struct {
	caser  cases.Caser
	needle string
}

func newMatcher(search string) *matcher {
	if strings.TrimSpace(search) == "" {
		return &matcher{}
	}
	c := cases.Lower(language.Und)
	return &matcher{caser: c, needle: c.String(search)}
}

func (m *matcher) match(row core.Row) bool {
	if m.needle == "" {
		return true
	}
	for _, v := range row {
		if strings.Contains(m.caser.String(v), m.needle) {
			return true
		}
	}
	return false
}
