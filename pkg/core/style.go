package core

// MarkerStyle decides how a marker is drawn. It is a closed variant:
// DefaultStyle or CategoryStyle.
type MarkerStyle interface {
	isMarkerStyle()
	// Name is a stable label for logs and payloads.
	Name() string
}

// DefaultStyle draws the stock pin icon.
type DefaultStyle struct{}

func (DefaultStyle) isMarkerStyle() {}

// Name implements MarkerStyle.
func (DefaultStyle) Name() string { return "default" }

// CategoryStyle draws a dot colored by the value of Field.
type CategoryStyle struct {
	Field string
}

func (CategoryStyle) isMarkerStyle() {}

// Name implements MarkerStyle.
func (CategoryStyle) Name() string { return "category" }

// StyleFor builds the style for a category column selection.
func StyleFor(category string) MarkerStyle {
	if category == "" {
		return DefaultStyle{}
	}
	return CategoryStyle{Field: category}
}
