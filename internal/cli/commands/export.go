package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmap/internal/export"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	PipelineOptions
	Format string
	Out    string
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export <file.csv>",
		Short: "Write the visible markers as CSV, GeoJSON or Excel",
		Long: `Run the same pipeline as inspect and write the markers that remain after
filters and search. Geocoded files gain lat and lng columns.`,
		Example: `  # GeoJSON to stdout
  leapmap export cities.csv --format geojson

  # Excel workbook of the parks only
  leapmap export places.csv --geocode Address --filter Kind=park --format xlsx --out parks.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], opts)
		},
	}

	addPipelineFlags(cmd, &opts.PipelineOptions)
	cmd.Flags().StringVar(&opts.Format, "format", string(export.FormatCSV), "Output format (csv|geojson|xlsx)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Output file (default: stdout)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(export.Formats))
		for _, f := range export.Formats {
			names = append(names, string(f))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runExport(cmd *cobra.Command, path string, opts *ExportOptions) error {
	format, err := export.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	cc := NewCommandContext(cmd)
	ws, err := runPipeline(cmd, cc, path, &opts.PipelineOptions)
	if err != nil {
		return err
	}
	dataset, _, err := ws.Export()
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.Out != "" {
		f, err := os.Create(opts.Out)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.Out, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if err := export.Write(w, format, dataset); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	cc.Logger.Info("exported markers", "format", format, "count", len(dataset.Markers), "out", opts.Out)
	return nil
}
