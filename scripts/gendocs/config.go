package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/leapstack-labs/leapmap/internal/cli/config"
)

// ConfigEntry is one leaf key of the configuration.
type ConfigEntry struct {
	Key     string
	Env     string
	Type    string
	Default string
}

// configDescriptions documents each key. Keys without an entry are listed
// with an empty description.
var configDescriptions = map[string]string{
	"verbose":             "Enable debug logging",
	"output":              "CLI output mode: auto, text, markdown or json. auto picks text on a terminal and markdown otherwise",
	"ui.port":             "HTTP port of the web UI; 0 picks a free port",
	"ui.auto_open":        "Open the browser when the server starts",
	"ui.watch":            "Reload the --csv file when it changes on disk",
	"ui.theme":            "Initial map theme: light or dark",
	"ui.session_secret":   "Key signing the session cookie; random per run when empty",
	"ui.session_ttl":      "Lifetime of the session cookie",
	"ui.idle_ttl":         "Idle time after which a browser workspace is dropped",
	"geocode.api_key":     "Gemini API key; supports ${VAR} references",
	"geocode.model":       "Gemini model used for geocoding",
	"geocode.base_url":    "Override of the Gemini API endpoint",
	"geocode.timeout":     "Deadline of one geocoding request",
	"geocode.lookup":      "JSON file of known locations used instead of the API",
	"geocode.cache_ttl":   "How long a geocoded place is reused",
	"geocode.cache_size":  "Maximum number of cached places",
	"facets.max_distinct": "Columns with more distinct values are not offered as filters",
}

// configEntries flattens config.Default into dotted keys, in field order.
func configEntries() []ConfigEntry {
	var out []ConfigEntry
	walkConfig(reflect.ValueOf(config.Default()).Elem(), "", &out)
	return out
}

func walkConfig(v reflect.Value, prefix string, out *[]ConfigEntry) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("koanf")
		if tag == "" {
			continue
		}
		key := prefix + tag
		fv := v.Field(i)
		if fv.Kind() == reflect.Struct && fv.Type() != reflect.TypeOf(time.Duration(0)) {
			walkConfig(fv, key+".", out)
			continue
		}

		def := fmt.Sprint(fv.Interface())
		typ := fv.Type().String()
		if d, ok := fv.Interface().(time.Duration); ok {
			def, typ = d.String(), "duration"
		}
		*out = append(*out, ConfigEntry{
			Key:     key,
			Env:     config.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__")),
			Type:    typ,
			Default: def,
		})
	}
}

// generateConfigDocs writes the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "LeapMap configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("LeapMap reads `leapmap.yaml` (or `leapmap.yml`) from the working directory, or the file named by `--config`. Run `leapmap init` to write one holding the defaults.")

	w.Header(2, "Keys")
	headers := []string{"Key", "Type", "Default", "Environment", "Description"}
	var rows [][]string
	for _, e := range configEntries() {
		def := e.Default
		if def == "" {
			def = "-"
		} else {
			def = InlineCode(def)
		}
		rows = append(rows, []string{InlineCode(e.Key), e.Type, def, InlineCode(e.Env), configDescriptions[e.Key]})
	}
	w.Table(headers, rows)

	w.Header(2, "Environment")
	w.Paragraph(fmt.Sprintf("Every key can be set as %s followed by the upper-cased key, with nested keys joined by a double underscore. %s is read for %s when no other source sets it.",
		InlineCode(config.EnvPrefix), InlineCode(config.APIKeyEnv), InlineCode("geocode.api_key")))
	w.Paragraph("Flags override environment variables, which override the file, which overrides the defaults.")

	w.Header(2, "Example")
	w.CodeBlock("yaml", `ui:
  port: 9000
  theme: dark
geocode:
  api_key: ${GEMINI_API_KEY}
  cache_ttl: 48h`)

	filename := filepath.Join(outDir, "configuration.md")
	if err := os.WriteFile(filename, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated configuration.md")
	return nil
}
