package core

import "fmt"

// Marker is a point plotted on the map. It carries its source row so the
// popup and the search can see every field.
type Marker struct {
	// ID is positional ("marker-<Index>") and only stable within one derivation.
	ID    string  `json:"id"`
	Index int     `json:"index"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Data  Row     `json:"data"`
}

// MarkerID formats the identity token for the row at index.
func MarkerID(index int) string {
	return fmt.Sprintf("marker-%d", index)
}

// GeocodedLocation is one resolved place returned by the geocoding oracle.
type GeocodedLocation struct {
	// Location is the exact input string the coordinates belong to.
	Location string  `json:"location"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// ValidCoordinate reports whether lat/lng fall inside WGS84 bounds.
func ValidCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
