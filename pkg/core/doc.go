// Package core defines the shared language of the leapmap system.
//
// This package contains:
//   - Domain entities (Table, Row, Marker, GeocodedLocation)
//   - View state (Facets, MarkerStyle, Theme)
//   - The error taxonomy shared by the pipeline and the UI
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
