package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmap/internal/cli/commands"
)

func TestConfigEntries(t *testing.T) {
	entries := configEntries()

	byKey := make(map[string]ConfigEntry, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e
		assert.Contains(t, configDescriptions, e.Key, "key %s needs a description", e.Key)
	}

	assert.Equal(t, ConfigEntry{Key: "ui.port", Env: "LEAPMAP_UI__PORT", Type: "int", Default: "8765"}, byKey["ui.port"])
	assert.Equal(t, "duration", byKey["geocode.cache_ttl"].Type)
	assert.Equal(t, "24h0m0s", byKey["geocode.cache_ttl"].Default)
	assert.Equal(t, "LEAPMAP_GEOCODE__API_KEY", byKey["geocode.api_key"].Env)
	assert.Equal(t, "verbose", entries[0].Key)
}

func TestMarkdownWriter(t *testing.T) {
	w := NewMarkdownWriter()
	w.Header(2, "Flags")
	w.Table([]string{"Option", "Description"}, [][]string{{InlineCode("--format"), "csv|geojson"}})
	w.Table([]string{"empty"}, nil)

	assert.Equal(t, "## Flags\n\n| Option | Description |\n| --- | --- |\n| `--format` | csv\\|geojson |\n\n", string(w.Bytes()))
	assert.Equal(t, "Write the markers", cleanDescription("Write  the\nmarkers."))
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, generateCLIDocs(filepath.Join(dir, "cli")))
	require.NoError(t, generateConfigDocs(filepath.Join(dir, "reference")))

	for _, name := range []string{"cli/index.md", "cli/serve.md", "cli/inspect.md", "cli/export.md", "reference/configuration.md"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	read := func(name string) string {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		return string(data)
	}

	exportPage := read("cli/export.md")
	assert.Contains(t, exportPage, "leapmap export <file.csv>")
	assert.Contains(t, exportPage, "| `--format string` | `csv` |")
	assert.Contains(t, exportPage, "## Pipeline Options")
	assert.Contains(t, exportPage, "| 2. filter | `--filter column=value` |")
	assert.Contains(t, exportPage, "| `geojson` | `cities.geojson` | `application/geo+json` |")

	index := read("cli/index.md")
	assert.Contains(t, index, "[`inspect`](/cli/inspect)")
	assert.Contains(t, index, "| 1. locate | `--geocode string`, `--lookup string` |")
	assert.Contains(t, index, "`-o, --output string`")

	assert.NotContains(t, read("cli/version.md"), "## Pipeline Options")
	assert.Contains(t, read("reference/configuration.md"), "`GEMINI_API_KEY`")
}

func TestFlagSyntax(t *testing.T) {
	cmd := commands.NewInspectCommand()
	cmd.PersistentFlags().StringP("output", "o", "", "")

	tests := []struct {
		flag string
		want string
	}{
		{flag: "geocode", want: "--geocode string"},
		{flag: "filter", want: "--filter column=value"},
		{flag: "output", want: "-o, --output string"},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			f := cmd.Flag(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.want, flagSyntax(f))
		})
	}

	own, pipeline := splitFlags(cmd.LocalFlags())
	assert.Len(t, pipeline, 5)
	for _, f := range own {
		assert.Empty(t, commands.PipelineStage(f), f.Name)
	}
}
