package config

import (
	"fmt"
	"time"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.OutputFormat {
	case OutputAuto, OutputText, OutputMarkdown, OutputJSON:
	default:
		return fmt.Errorf("unknown output mode %q (want %s, %s, %s or %s)", c.OutputFormat, OutputAuto, OutputText, OutputMarkdown, OutputJSON)
	}

	if c.UI.Port < 0 || c.UI.Port > 65535 {
		return fmt.Errorf("ui.port %d is out of range", c.UI.Port)
	}
	switch c.UI.Theme {
	case "light", "dark":
	default:
		return fmt.Errorf("ui.theme must be light or dark, got %q", c.UI.Theme)
	}

	durations := []struct {
		key string
		d   time.Duration
	}{
		{"ui.session_ttl", c.UI.SessionTTL},
		{"ui.idle_ttl", c.UI.IdleTTL},
		{"geocode.timeout", c.Geocode.Timeout},
		{"geocode.cache_ttl", c.Geocode.CacheTTL},
	}
	for _, v := range durations {
		if v.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", v.key, v.d)
		}
	}

	if c.Geocode.CacheSize <= 0 {
		return fmt.Errorf("geocode.cache_size must be positive, got %d", c.Geocode.CacheSize)
	}
	if c.Facets.MaxDistinct <= 0 {
		return fmt.Errorf("facets.max_distinct must be positive, got %d", c.Facets.MaxDistinct)
	}
	return nil
}
