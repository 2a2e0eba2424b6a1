package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapmap/internal/cli/config"
)

// configHeader precedes the generated settings.
const configHeader = `# leapmap configuration.
# Every key can be overridden with an environment variable, e.g.
# LEAPMAP_UI__PORT=9000. The Gemini API key is read from
# geocode.api_key, LEAPMAP_GEOCODE__API_KEY or GEMINI_API_KEY.
`

// The init file spells durations as strings so the YAML stays readable.
type initFile struct {
	Output  string      `yaml:"output"`
	UI      initUI      `yaml:"ui"`
	Geocode initGeocode `yaml:"geocode"`
	Facets  initFacets  `yaml:"facets"`
}

type initUI struct {
	Port       int    `yaml:"port"`
	AutoOpen   bool   `yaml:"auto_open"`
	Watch      bool   `yaml:"watch"`
	Theme      string `yaml:"theme"`
	SessionTTL string `yaml:"session_ttl"`
	IdleTTL    string `yaml:"idle_ttl"`
}

type initGeocode struct {
	Model     string `yaml:"model"`
	Timeout   string `yaml:"timeout"`
	CacheTTL  string `yaml:"cache_ttl"`
	CacheSize int    `yaml:"cache_size"`
}

type initFacets struct {
	MaxDistinct int `yaml:"max_distinct"`
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default leapmap.yaml",
		Long: `Write a leapmap.yaml holding the default settings, ready to edit.

The API key is deliberately left out; keep it in the environment.`,
		Example: `  # Initialize in current directory
  leapmap init

  # Force overwrite existing config
  leapmap init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			path, err := runInit(dir, force)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Next: leapmap serve")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(dir string, force bool) (string, error) {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	path := filepath.Join(dir, config.ConfigFileNames[0])
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists. Use --force to overwrite", path)
	}

	data, err := renderInitFile(config.Default())
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func renderInitFile(cfg *config.Config) ([]byte, error) {
	doc := initFile{
		Output: cfg.OutputFormat,
		UI: initUI{
			Port:       cfg.UI.Port,
			AutoOpen:   cfg.UI.AutoOpen,
			Watch:      cfg.UI.Watch,
			Theme:      cfg.UI.Theme,
			SessionTTL: cfg.UI.SessionTTL.String(),
			IdleTTL:    cfg.UI.IdleTTL.String(),
		},
		Geocode: initGeocode{
			Model:     cfg.Geocode.Model,
			Timeout:   cfg.Geocode.Timeout.String(),
			CacheTTL:  cfg.Geocode.CacheTTL.String(),
			CacheSize: cfg.Geocode.CacheSize,
		},
		Facets: initFacets{MaxDistinct: cfg.Facets.MaxDistinct},
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}
