package commands

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmap/internal/metrics"
	"github.com/leapstack-labs/leapmap/internal/ui"
	"github.com/leapstack-labs/leapmap/internal/workspace"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	CSV       string
	NoBrowser bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the LeapMap web UI",
		Long: `Start a local web server with the interactive map.

Upload a CSV file in the browser, or preload one with --csv. Latitude and
longitude columns are detected automatically; files without them can be
geocoded with Gemini when GEMINI_API_KEY is set, or from a --lookup file.`,
		Example: `  # Start UI on default port
  leapmap serve

  # Preload a file and reload it when it changes
  leapmap serve --csv places.csv --watch

  # Start on custom port without auto-opening a browser
  leapmap serve --port 3000 --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().Int("port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().StringVar(&opts.CSV, "csv", "", "CSV file preloaded into every new session")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().Bool("watch", true, "Reload the --csv file when it changes")
	cmd.Flags().String("lookup", "", "JSON file of known locations used instead of the geocoding API")
	cmd.Flags().String("model", "", "Gemini model used for geocoding")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc := NewCommandContext(cmd)
	cfg := cc.Cfg
	logger := cc.Logger

	if opts.CSV != "" {
		if _, err := os.Stat(opts.CSV); err != nil {
			return fmt.Errorf("preload file: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	oracle, cleanup, err := newOracle(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer cleanup()
	if oracle == nil {
		logger.Warn("geocoding disabled; set GEMINI_API_KEY or geocode.lookup to enable it")
	}

	store := workspace.NewStore(cfg.UI.IdleTTL, workspace.Options{
		MaxDistinct: cfg.Facets.MaxDistinct,
		Theme:       core.ParseTheme(cfg.UI.Theme),
		Metrics:     m,
	}, logger)
	defer store.Close()

	secret := cfg.UI.SessionSecret
	if secret == "" {
		// Sessions then last until restart.
		secret = uuid.NewString()
		logger.Debug("using a random session secret")
	}

	server := ui.NewServer(ui.Config{
		Store:         store,
		Oracle:        oracle,
		Metrics:       m,
		Port:          cfg.UI.Port,
		Watch:         cfg.UI.Watch,
		CSVPath:       opts.CSV,
		SessionSecret: secret,
		SessionTTL:    cfg.UI.SessionTTL,
		Logger:        logger,
	})

	// Open browser if configured
	if cfg.UI.AutoOpen && !opts.NoBrowser {
		url := fmt.Sprintf("http://localhost:%d", cfg.UI.Port)
		go openBrowser(url)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Starting UI server on http://localhost:%d\n", cfg.UI.Port)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	return server.Serve(ctx)
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
