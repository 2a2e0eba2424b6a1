package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/leapmap/internal/cli/config"
	"github.com/leapstack-labs/leapmap/internal/geocode"
	"github.com/leapstack-labs/leapmap/internal/metrics"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// NewCommandContext collects the loaded config and the context logger.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:    getConfig(),
		Logger: config.GetLogger(cmd.Context()),
	}
}

// OutputMode resolves the configured output mode for w. Auto renders text
// tables on a terminal and markdown when the output is piped or captured.
func (cc *CommandContext) OutputMode(w io.Writer) string {
	if cc.Cfg.OutputFormat != config.OutputAuto {
		return cc.Cfg.OutputFormat
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return config.OutputText
	}
	return config.OutputMarkdown
}

// getConfig returns the current configuration, or the defaults when no
// configuration was loaded (commands run without the root command).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// newOracle picks the geocoding backend: a lookup file when configured,
// else Gemini behind a cache when an API key is set, else none. The
// returned cleanup must be called.
func newOracle(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (geocode.Oracle, func(), error) {
	noop := func() {}

	if path := cfg.Geocode.Lookup; path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, noop, fmt.Errorf("open lookup file: %w", err)
		}
		defer func() { _ = f.Close() }()

		oracle, err := geocode.LoadStatic(f)
		if err != nil {
			return nil, noop, fmt.Errorf("load lookup file %s: %w", path, err)
		}
		logger.Debug("geocoding from lookup file", "file", path)
		return oracle, noop, nil
	}

	if cfg.Geocode.APIKey == "" {
		logger.Debug("geocoding disabled: no API key")
		return nil, noop, nil
	}

	gemini, err := geocode.NewGemini(ctx, geocode.GeminiConfig{
		APIKey:  cfg.Geocode.APIKey,
		Model:   cfg.Geocode.Model,
		Timeout: cfg.Geocode.Timeout,
		BaseURL: cfg.Geocode.BaseURL,
	}, logger, m)
	if err != nil {
		return nil, noop, err
	}
	cached := geocode.NewCached(gemini, cfg.Geocode.CacheTTL, uint64(cfg.Geocode.CacheSize), m)
	return cached, cached.Close, nil
}
