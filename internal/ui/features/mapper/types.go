package mapper

import "github.com/leapstack-labs/leapmap/internal/workspace"

// Signals are the datastar signals the page sends with every action.
type Signals struct {
	Search        string `json:"search"`
	GeocodeColumn string `json:"geocodeColumn"`
	FilterColumn  string `json:"filterColumn"`
	FilterValue   string `json:"filterValue"`
	Category      string `json:"category"`
}

// signalsFor mirrors server-owned state back into the page signals.
func signalsFor(v workspace.View) map[string]any {
	return map[string]any{
		"search":        v.Facets.Search,
		"category":      v.Facets.Category,
		"geocodeColumn": v.GeocodeColumn,
	}
}
