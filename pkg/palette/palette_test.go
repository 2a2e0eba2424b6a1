package palette

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "#000000"},
		{"a", "#610000"},
		{"museum", "#12caa6"},
		{"park", "#ea6334"},
		{"Paris", "#6b2995"},
		{"école", "#4e1302"},
		{"日本", "#e7bd0c"},
		{"🙂", "#a50d1b"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Color(tt.in))
		})
	}
}

func TestColor_Format(t *testing.T) {
	hex := regexp.MustCompile(`^#[0-9a-f]{6}$`)
	for _, v := range []string{"x", "a much longer category label", "123", " "} {
		got := Color(v)
		assert.Regexp(t, hex, got)
		assert.Equal(t, got, Color(v), "deterministic")
	}
}

func TestLegend(t *testing.T) {
	got := Legend([]string{"park", "museum"})
	assert.Equal(t, []Swatch{{Value: "park", Color: "#ea6334"}, {Value: "museum", Color: "#12caa6"}}, got)
	assert.Empty(t, Legend(nil))
}
