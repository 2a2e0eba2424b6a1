package mapper

import (
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/leapmap/internal/mapview"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

// mapDataID is the id of the JSON script holding the initial map payload.
const mapDataID = "map-data"

func shellClass(sidebarOpen bool) string {
	if sidebarOpen {
		return "sidebar-open"
	}
	return "sidebar-closed"
}

func themeLabel(t core.Theme) string {
	return "Switch to " + string(t.Toggle()) + " mode"
}

func themeIcon(t core.Theme) string {
	if t == core.ThemeDark {
		return "☾"
	}
	return "☀"
}

func filterID(column string) string {
	return "filter-" + column
}

// mapScript is the script that hands a payload to the page's map.
func mapScript(p mapview.Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode map payload: %w", err)
	}
	return "window.leapmap && window.leapmap.render(" + string(data) + ")", nil
}
