package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/leapmap/internal/metrics"
	"github.com/leapstack-labs/leapmap/internal/workspace"
)

// cliWorkspace is the workspace id used by one-shot commands.
const cliWorkspace = "cli"

// PipelineOptions selects how a file becomes visible markers.
type PipelineOptions struct {
	// GeocodeColumn resolves this column instead of reading coordinates.
	GeocodeColumn string
	Search        string
	// Filters are column=value pairs, all of which must match.
	Filters  []string
	Category string
}

// PipelineAnnotation marks the flags shared by every command that runs the
// CSV pipeline. The value is the pipeline stage the flag feeds.
const PipelineAnnotation = "leapmap_pipeline_stage"

// Pipeline stages in the order a file passes through them.
const (
	StageLocate = "locate"
	StageFilter = "filter"
	StageSearch = "search"
	StageStyle  = "style"
)

// PipelineStages lists the stages in order.
var PipelineStages = []string{StageLocate, StageFilter, StageSearch, StageStyle}

func addPipelineFlags(cmd *cobra.Command, opts *PipelineOptions) {
	flags := cmd.Flags()
	flags.StringVar(&opts.GeocodeColumn, "geocode", "", "Geocode this column instead of reading coordinates")
	flags.String("lookup", "", "JSON file of known locations used instead of the geocoding API")
	flags.StringArrayVar(&opts.Filters, "filter", nil, "Keep markers where column=value (repeatable)")
	flags.StringVar(&opts.Search, "search", "", "Keep markers with a field containing this text")
	flags.StringVar(&opts.Category, "category", "", "Color markers by this column")

	for name, stage := range map[string]string{
		"geocode":  StageLocate,
		"lookup":   StageLocate,
		"filter":   StageFilter,
		"search":   StageSearch,
		"category": StageStyle,
	} {
		_ = flags.SetAnnotation(name, PipelineAnnotation, []string{stage})
	}
}

// PipelineStage reports the stage a flag feeds, or "" for other flags.
func PipelineStage(f *pflag.Flag) string {
	if stage := f.Annotations[PipelineAnnotation]; len(stage) > 0 {
		return stage[0]
	}
	return ""
}

// runPipeline loads path into a fresh workspace, derives markers from the
// detected coordinate columns or by geocoding, and applies the facets.
func runPipeline(cmd *cobra.Command, cc *CommandContext, path string, opts *PipelineOptions) (*workspace.Workspace, error) {
	ws := workspace.New(cliWorkspace, workspace.Options{MaxDistinct: cc.Cfg.Facets.MaxDistinct})

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := ws.Upload(filepath.Base(path), "", f); err != nil {
		return nil, err
	}
	cc.Logger.Debug("file loaded", "file", path, "rows", ws.View().RowCount)

	if opts.GeocodeColumn != "" {
		if err := geocodeColumn(cmd, cc, ws, opts.GeocodeColumn); err != nil {
			return nil, err
		}
	} else if v := ws.View(); v.NeedsGeocode {
		return nil, fmt.Errorf("no latitude/longitude columns found in %s; pick a place column with --geocode (one of: %s)",
			path, strings.Join(v.Headers, ", "))
	}

	for _, f := range opts.Filters {
		column, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --filter %q: want column=value", f)
		}
		if err := ws.SetFilter(strings.TrimSpace(column), value); err != nil {
			return nil, fmt.Errorf("filter %q: %w", column, err)
		}
	}
	ws.SetSearch(opts.Search)
	if err := ws.SetCategory(opts.Category); err != nil {
		return nil, fmt.Errorf("category %q: %w", opts.Category, err)
	}

	return ws, nil
}

func geocodeColumn(cmd *cobra.Command, cc *CommandContext, ws *workspace.Workspace, column string) error {
	oracle, cleanup, err := newOracle(cmd.Context(), cc.Cfg, cc.Logger, metrics.New())
	if err != nil {
		return err
	}
	defer cleanup()
	if oracle == nil {
		return errors.New("geocoding is not configured: set GEMINI_API_KEY or pass --lookup")
	}

	token, places, err := ws.BeginGeocode(column)
	if err != nil {
		return fmt.Errorf("geocode %q: %w", column, err)
	}

	cc.Logger.Info("geocoding", "column", column, "places", len(places))
	results, oracleErr := oracle.Geocode(cmd.Context(), places)
	if err := ws.CommitGeocode(token, column, results, oracleErr); err != nil {
		return err
	}
	if oracleErr != nil {
		return oracleErr
	}
	cc.Logger.Debug("geocoded", "column", column, "resolved", len(results))
	return nil
}
