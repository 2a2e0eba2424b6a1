package core

import "strings"

// Facets is the user-controlled view state that narrows the marker list.
type Facets struct {
	// Filters maps a column to the value it must equal. "" means unconstrained.
	Filters map[string]string `json:"filters"`
	// Search is matched case-insensitively against every field of a row.
	Search string `json:"search"`
	// Category is the column used to color markers. "" means default pins.
	Category string `json:"category"`
}

// NewFacets returns an unconstrained facet state.
func NewFacets() Facets {
	return Facets{Filters: map[string]string{}}
}

// Clone returns a deep copy so callers can mutate filters safely.
func (f Facets) Clone() Facets {
	out := Facets{
		Filters:  make(map[string]string, len(f.Filters)),
		Search:   f.Search,
		Category: f.Category,
	}
	for k, v := range f.Filters {
		out.Filters[k] = v
	}
	return out
}

// ActiveFilters returns the filters with a non-empty value.
func (f Facets) ActiveFilters() map[string]string {
	active := make(map[string]string)
	for k, v := range f.Filters {
		if v != "" {
			active[k] = v
		}
	}
	return active
}

// SearchActive reports whether the search text constrains the view.
func (f Facets) SearchActive() bool {
	return strings.TrimSpace(f.Search) != ""
}

// Theme selects the map tile set and page palette.
type Theme string

// Theme values.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ParseTheme maps a config or query value to a Theme, defaulting to light.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(ThemeDark)) {
		return ThemeDark
	}
	return ThemeLight
}
