// Package palette derives stable display colors from arbitrary strings.
package palette

import (
	"fmt"
	"unicode/utf16"
)

// Color maps value to a "#rrggbb" color. The same input always yields the
// same output, across processes and against the browser-side renderer, so
// the hash runs over UTF-16 code units with 32-bit wrapping arithmetic.
func Color(value string) string {
	var hash int32
	for _, c := range utf16.Encode([]rune(value)) {
		hash = int32(c) + ((hash << 5) - hash)
	}
	var rgb [3]byte
	for i := range rgb {
		rgb[i] = byte((hash >> (uint(i) * 8)) & 0xFF)
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
}

// Legend pairs each value with its color, preserving input order.
func Legend(values []string) []Swatch {
	out := make([]Swatch, len(values))
	for i, v := range values {
		out[i] = Swatch{Value: v, Color: Color(v)}
	}
	return out
}

// Swatch is one legend entry.
type Swatch struct {
	Value string `json:"value"`
	Color string `json:"color"`
}
