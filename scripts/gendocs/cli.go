package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/leapmap/internal/cli"
	"github.com/leapstack-labs/leapmap/internal/cli/commands"
	"github.com/leapstack-labs/leapmap/internal/export"
)

// stageDocs describes what each pipeline stage does to a file.
var stageDocs = map[string]string{
	commands.StageLocate: "Coordinates come from the detected latitude and longitude columns, or from geocoding one column",
	commands.StageFilter: "Every filter must match the row value exactly",
	commands.StageSearch: "Any field must contain the text, ignoring case",
	commands.StageStyle:  "Markers take a color per distinct category value",
}

// generateCLIDocs writes index.md and one page per leapmap command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	pages := map[string][]byte{"index.md": cliIndex(root)}
	for _, cmd := range documented(root) {
		pages[cmd.Name()+".md"] = commandPage(cmd)
	}

	for name, data := range pages {
		if err := os.WriteFile(filepath.Join(outDir, name), data, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		log.Printf("  Generated %s", name)
	}
	return nil
}

// documented returns the user-facing subcommands in cobra's order.
func documented(root *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, cmd := range root.Commands() {
		if cmd.IsAvailableCommand() {
			out = append(out, cmd)
		}
	}
	return out
}

func cliIndex(root *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for LeapMap")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)
	w.CodeBlock("bash", "go install github.com/leapstack-labs/leapmap/cmd/leapmap@latest")

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range documented(root) {
		link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
		rows = append(rows, []string{link, cleanDescription(cmd.Short)})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Pipeline")
	w.Paragraph("`inspect` and `export` run a file through the same stages the map page uses, in this order:")
	writePipelineTable(w, pipelineCommand(root))

	w.Header(2, "Export Formats")
	writeFormatsTable(w)

	w.Header(2, "Global Options")
	writeFlagsTable(w, root.PersistentFlags())
	w.Paragraph("Flags override environment variables, which override `leapmap.yaml`. See [Configuration](/reference/configuration) for every key.")

	w.Header(2, "Exit Codes")
	w.Paragraph("`0` on success, `1` on any error. The error is printed to stderr.")

	return w.Bytes()
}

func commandPage(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", cmd.UseLine())

	own, pipeline := splitFlags(cmd.LocalFlags())
	if len(own) > 0 {
		w.Header(2, "Options")
		writeFlagRows(w, own)
	}
	if len(pipeline) > 0 {
		w.Header(2, "Pipeline Options")
		writePipelineTable(w, cmd)
	}
	if cmd.Name() == "export" {
		w.Header(2, "Formats")
		writeFormatsTable(w)
	}
	if cmd.HasAvailableInheritedFlags() {
		w.Header(2, "Global Options")
		writeFlagsTable(w, cmd.InheritedFlags())
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}
	return w.Bytes()
}

// pipelineCommand finds a command carrying the pipeline flags.
func pipelineCommand(root *cobra.Command) *cobra.Command {
	for _, cmd := range documented(root) {
		_, pipeline := splitFlags(cmd.LocalFlags())
		if len(pipeline) > 0 {
			return cmd
		}
	}
	return root
}

// splitFlags separates a command's own flags from the shared pipeline flags.
func splitFlags(flags *pflag.FlagSet) (own, pipeline []*pflag.Flag) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		if commands.PipelineStage(f) != "" {
			pipeline = append(pipeline, f)
		} else {
			own = append(own, f)
		}
	})
	return own, pipeline
}

// writePipelineTable lists the stages with the flags of cmd that feed them.
func writePipelineTable(w *MarkdownWriter, cmd *cobra.Command) {
	_, pipeline := splitFlags(cmd.LocalFlags())
	byStage := make(map[string][]string)
	for _, f := range pipeline {
		stage := commands.PipelineStage(f)
		byStage[stage] = append(byStage[stage], InlineCode(flagSyntax(f)))
	}

	var rows [][]string
	for i, stage := range commands.PipelineStages {
		rows = append(rows, []string{
			fmt.Sprintf("%d. %s", i+1, stage),
			strings.Join(byStage[stage], ", "),
			stageDocs[stage],
		})
	}
	w.Table([]string{"Stage", "Flags", "Behavior"}, rows)
}

func writeFormatsTable(w *MarkdownWriter) {
	var rows [][]string
	for _, f := range export.Formats {
		rows = append(rows, []string{InlineCode(string(f)), InlineCode(f.Filename("cities.csv")), InlineCode(f.ContentType())})
	}
	w.Table([]string{"Format", "File name for cities.csv", "Content type"}, rows)
}

func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var all []*pflag.Flag
	flags.VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			all = append(all, f)
		}
	})
	writeFlagRows(w, all)
}

func writeFlagRows(w *MarkdownWriter, flags []*pflag.Flag) {
	var rows [][]string
	for _, f := range flags {
		def := "-"
		if f.DefValue != "" && f.DefValue != "[]" && f.DefValue != "false" {
			def = InlineCode(f.DefValue)
		}
		rows = append(rows, []string{InlineCode(flagSyntax(f)), def, cleanDescription(f.Usage)})
	}
	w.Table([]string{"Flag", "Default", "Description"}, rows)
}

// flagSyntax renders a flag as typed on the command line, e.g.
// "-o, --output string" or "--filter column=value".
func flagSyntax(f *pflag.Flag) string {
	var b strings.Builder
	if f.Shorthand != "" {
		b.WriteString("-" + f.Shorthand + ", ")
	}
	b.WriteString("--" + f.Name)
	switch f.Value.Type() {
	case "bool":
	case "stringArray":
		b.WriteString(" column=value")
	default:
		b.WriteString(" " + f.Value.Type())
	}
	return b.String()
}

// dedent strips the two-space indent cobra examples are written with.
func dedent(example string) string {
	lines := strings.Split(example, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "  ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
