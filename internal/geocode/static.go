package geocode

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/leapstack-labs/leapmap/pkg/core"
)

// StaticOracle resolves places from a fixed table. It never fails and
// omits places it does not know.
type StaticOracle struct {
	known map[string]core.GeocodedLocation
}

// NewStatic builds a StaticOracle. Later entries for the same location
// replace earlier ones.
func NewStatic(locations []core.GeocodedLocation) *StaticOracle {
	known := make(map[string]core.GeocodedLocation, len(locations))
	for _, loc := range locations {
		known[loc.Location] = loc
	}
	return &StaticOracle{known: known}
}

// LoadStatic reads a JSON array of {location, lat, lng} objects, the same
// shape the Gemini oracle returns.
func LoadStatic(r io.Reader) (*StaticOracle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read lookup: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return NewStatic(nil), nil
	}
	locations, err := DecodePayload(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse lookup: %w", err)
	}
	return NewStatic(locations), nil
}

// Geocode implements Oracle.
func (s *StaticOracle) Geocode(_ context.Context, places []string) ([]core.GeocodedLocation, error) {
	var out []core.GeocodedLocation
	for _, p := range dedupe(places) {
		if loc, ok := s.known[p]; ok {
			out = append(out, loc)
		}
	}
	return out, nil
}
