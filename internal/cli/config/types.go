// Package config provides configuration management for the leapmap CLI.
//
// Values are layered with koanf: defaults, then leapmap.yaml, then
// LEAPMAP_* environment variables, then explicitly set flags.
package config

import "time"

// Output modes accepted by --output. OutputAuto resolves to OutputText on
// a terminal and OutputMarkdown otherwise.
const (
	OutputAuto     = "auto"
	OutputText     = "text"
	OutputMarkdown = "markdown"
	OutputJSON     = "json"
)

// Default configuration values.
const (
	DefaultPort        = 8765
	DefaultOutput      = OutputAuto
	DefaultSessionTTL  = 30 * 24 * time.Hour
	DefaultIdleTTL     = 12 * time.Hour
	DefaultModel       = "gemini-2.5-flash"
	DefaultTimeout     = 60 * time.Second
	DefaultCacheTTL    = 24 * time.Hour
	DefaultCacheSize   = 10000
	DefaultMaxDistinct = 200
)

// ConfigFileNames are searched, in order, when no --config is given.
var ConfigFileNames = []string{"leapmap.yaml", "leapmap.yml"}

// APIKeyEnv is read when geocode.api_key is not configured.
const APIKeyEnv = "GEMINI_API_KEY"

// UIConfig holds configuration for the web UI server.
type UIConfig struct {
	Port          int           `koanf:"port"`
	AutoOpen      bool          `koanf:"auto_open"`
	Watch         bool          `koanf:"watch"`
	Theme         string        `koanf:"theme"`
	SessionSecret string        `koanf:"session_secret"`
	SessionTTL    time.Duration `koanf:"session_ttl"`
	IdleTTL       time.Duration `koanf:"idle_ttl"`
}

// GeocodeConfig holds configuration for the geocoding oracle.
type GeocodeConfig struct {
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
	// Lookup is a JSON file of known locations used instead of the API.
	Lookup    string        `koanf:"lookup"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
	CacheSize int           `koanf:"cache_size"`
}

// FacetsConfig tunes the filter panel.
type FacetsConfig struct {
	MaxDistinct int `koanf:"max_distinct"`
}

// Config holds all CLI configuration options.
type Config struct {
	Verbose      bool          `koanf:"verbose"`
	OutputFormat string        `koanf:"output"`
	UI           UIConfig      `koanf:"ui"`
	Geocode      GeocodeConfig `koanf:"geocode"`
	Facets       FacetsConfig  `koanf:"facets"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		OutputFormat: DefaultOutput,
		UI: UIConfig{
			Port:       DefaultPort,
			AutoOpen:   true,
			Watch:      true,
			Theme:      "light",
			SessionTTL: DefaultSessionTTL,
			IdleTTL:    DefaultIdleTTL,
		},
		Geocode: GeocodeConfig{
			Model:     DefaultModel,
			Timeout:   DefaultTimeout,
			CacheTTL:  DefaultCacheTTL,
			CacheSize: DefaultCacheSize,
		},
		Facets: FacetsConfig{
			MaxDistinct: DefaultMaxDistinct,
		},
	}
}

// defaultsMap mirrors Default as flat koanf keys.
func defaultsMap() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"verbose":             d.Verbose,
		"output":              d.OutputFormat,
		"ui.port":             d.UI.Port,
		"ui.auto_open":        d.UI.AutoOpen,
		"ui.watch":            d.UI.Watch,
		"ui.theme":            d.UI.Theme,
		"ui.session_ttl":      d.UI.SessionTTL.String(),
		"ui.idle_ttl":         d.UI.IdleTTL.String(),
		"geocode.model":       d.Geocode.Model,
		"geocode.timeout":     d.Geocode.Timeout.String(),
		"geocode.cache_ttl":   d.Geocode.CacheTTL.String(),
		"geocode.cache_size":  d.Geocode.CacheSize,
		"facets.max_distinct": d.Facets.MaxDistinct,
	}
}
