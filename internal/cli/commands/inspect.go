package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmap/internal/cli/config"
	"github.com/leapstack-labs/leapmap/internal/mapview"
	"github.com/leapstack-labs/leapmap/internal/workspace"
	"github.com/leapstack-labs/leapmap/pkg/palette"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	opts := &PipelineOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <file.csv>",
		Short: "Show the markers a CSV file produces",
		Long: `Parse a CSV file, detect its latitude and longitude columns, and list
the markers that would appear on the map after filters and search.

When no coordinate columns are found, pass --geocode with the column that
holds addresses or place names.`,
		Example: `  # List markers from a file with coordinates
  leapmap inspect cities.csv

  # Geocode a column and keep only parks
  leapmap inspect places.csv --geocode Address --filter Kind=park

  # Machine-readable output
  leapmap inspect cities.csv --search paris -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			ws, err := runPipeline(cmd, cc, args[0], opts)
			if err != nil {
				return err
			}

			v := ws.View()
			out := cmd.OutOrStdout()
			switch cc.OutputMode(out) {
			case config.OutputJSON:
				return renderMarkersJSON(out, v)
			case config.OutputMarkdown:
				return renderMarkersTable(out, v, true)
			default:
				return renderMarkersTable(out, v, false)
			}
		},
	}

	addPipelineFlags(cmd, opts)
	return cmd
}

// inspectResult is the JSON form of an inspect run.
type inspectResult struct {
	File    string           `json:"file"`
	Rows    int              `json:"rows"`
	Total   int              `json:"total"`
	Visible int              `json:"visible"`
	Lat     string           `json:"latColumn,omitempty"`
	Lng     string           `json:"lngColumn,omitempty"`
	Markers []mapview.Point  `json:"markers"`
	Bounds  *mapview.Bounds  `json:"bounds"`
	Legend  []palette.Swatch `json:"legend,omitempty"`
}

func renderMarkersJSON(w io.Writer, v workspace.View) error {
	res := inspectResult{
		File:    v.FileName,
		Rows:    v.RowCount,
		Total:   v.Total,
		Visible: len(v.Visible),
		Lat:     v.Pair.Lat,
		Lng:     v.Pair.Lng,
		Markers: v.Map.Points,
		Bounds:  v.Map.Bounds,
		Legend:  v.Map.Legend,
	}
	if res.Markers == nil {
		res.Markers = []mapview.Point{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func renderMarkersTable(w io.Writer, v workspace.View, markdown bool) error {
	if len(v.Visible) == 0 {
		_, _ = fmt.Fprintf(w, "(0 of %d markers)\n", v.Total)
		return nil
	}

	colored := v.Facets.Category != ""

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := table.Row{"#", "Lat", "Lng"}
	if colored {
		header = append(header, "Color")
	}
	for _, h := range v.Headers {
		header = append(header, h)
	}
	t.AppendHeader(header)

	for i, m := range v.Visible {
		row := table.Row{m.Index + 1, formatCoord(m.Lat), formatCoord(m.Lng)}
		if colored {
			row = append(row, v.Map.Points[i].Color)
		}
		for _, h := range v.Headers {
			row = append(row, m.Data[h])
		}
		t.AppendRow(row)
	}

	if markdown {
		t.RenderMarkdown()
		_, _ = fmt.Fprintln(w)
	} else {
		t.Render()
	}
	_, _ = fmt.Fprintf(w, "(%d of %d markers)\n", len(v.Visible), v.Total)
	return nil
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
