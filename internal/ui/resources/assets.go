// Package resources serves the page script and stylesheet.
package resources

// StaticDirectoryPath is the path to static assets from the project root.
const StaticDirectoryPath = "internal/ui/resources/static"

// Asset names referenced by the page template.
const (
	ScriptAsset = "leapmap.js"
	StyleAsset  = "leapmap.css"
)
