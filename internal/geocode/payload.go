package geocode

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapmap/pkg/core"
)

// entry mirrors one element of the structured response. Pointers tell a
// missing coordinate apart from a zero one.
type entry struct {
	Location string   `json:"location"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

// DecodePayload parses an oracle response body into locations.
//
// An empty body or malformed JSON is an error. Individual entries with no
// location, a missing coordinate or an out-of-range coordinate are dropped.
func DecodePayload(text string) ([]core.GeocodedLocation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}

	var entries []entry
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([]core.GeocodedLocation, 0, len(entries))
	for _, e := range entries {
		if e.Location == "" || e.Lat == nil || e.Lng == nil {
			continue
		}
		if !core.ValidCoordinate(*e.Lat, *e.Lng) {
			continue
		}
		out = append(out, core.GeocodedLocation{Location: e.Location, Lat: *e.Lat, Lng: *e.Lng})
	}
	return out, nil
}
