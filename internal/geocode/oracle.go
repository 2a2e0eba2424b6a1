// Package geocode resolves free-text place names to coordinates.
//
// The Oracle port is implemented by GeminiOracle (a generative model with a
// structured JSON response), StaticOracle (a fixed lookup table) and
// CachedOracle (a TTL cache in front of any other Oracle). Sequencer orders
// concurrent requests so only the most recently issued one may commit.
package geocode

import (
	"context"

	"github.com/leapstack-labs/leapmap/pkg/core"
)

// Oracle resolves a batch of place names in one attempt.
//
// The result may omit places the oracle could not resolve and may contain
// the same location more than once. Implementations must not retry.
type Oracle interface {
	Geocode(ctx context.Context, places []string) ([]core.GeocodedLocation, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, places []string) ([]core.GeocodedLocation, error)

// Geocode calls f.
func (f OracleFunc) Geocode(ctx context.Context, places []string) ([]core.GeocodedLocation, error) {
	return f(ctx, places)
}

// dedupe returns places without repeats, first occurrence order.
func dedupe(places []string) []string {
	seen := make(map[string]struct{}, len(places))
	out := make([]string, 0, len(places))
	for _, p := range places {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
