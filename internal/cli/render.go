package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spantower/pkg/pipeline"
)

// stdoutPath writes the artifact to standard output.
const stdoutPath = "-"

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string   // output file (single format), base path (multiple) or "-"
	formats     string   // comma-separated output formats
	expand      []string // span ids whose panels are open
	display     bool     // display mode: every panel open
	trackWidth  float64  // track width in percent
	columns     int      // text track cells
	trackPixels float64  // SVG track pixels
	panels      bool     // include panels in SVG/PNG/PDF
	scale       float64  // PNG resolution multiplier
	detailed    bool     // service graph details
	title       string   // HTML page title
	noCache     bool
	refresh     bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [trace.json]",
		Short: "Render a trace waterfall to text, images, JSON or HTML",
		Long: `Render a Zipkin v1 JSON trace as a waterfall.

With a single text format and no --output, the waterfall is printed to the
terminal. Otherwise one file per format is written next to the input, or at
the path given by --output.`,
		Example: `  spantower render trace.json
  spantower render trace.json -f svg,png --expand 352bff9a74ca9ad2
  spantower render trace.json -f html --display -o checkout.html
  spantower render trace.json -f graph`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output file (single format), base path (multiple formats) or "-" for stdout`)
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): txt, svg, png, pdf, json, html, dot, graph, tree (comma-separated)")
	cmd.Flags().StringSliceVarP(&opts.expand, "expand", "e", nil, "span id(s) whose annotation panels are open")
	cmd.Flags().BoolVar(&opts.display, "display", false, "display mode: open every panel")
	cmd.Flags().Float64Var(&opts.trackWidth, "width", 0, "track width in percent (default from config, 95)")
	cmd.Flags().IntVar(&opts.columns, "columns", 0, "track width in character cells for text output")
	cmd.Flags().Float64Var(&opts.trackPixels, "track-pixels", pipeline.DefaultTrackPixels, "track width in pixels for SVG output")
	cmd.Flags().BoolVar(&opts.panels, "panels", false, "draw annotation panels in SVG, PNG and PDF output")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "PNG resolution multiplier")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show span counts and time in the service graph")
	cmd.Flags().StringVar(&opts.title, "title", "", "HTML page title")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached entries and re-render")

	return cmd
}

// pipelineOptions merges flags over the config file.
func (c *CLI) pipelineOptions(input string, opts renderOpts) pipeline.Options {
	cfg := c.Config
	po := pipeline.Options{
		Source:      input,
		Refresh:     opts.refresh,
		TrackWidth:  cfg.TrackWidth,
		Display:     cfg.Display || opts.display,
		Expanded:    parseIDs(opts.expand),
		Formats:     parseFormats(opts.formats, cfg.Formats),
		Columns:     cfg.Columns,
		TrackPixels: opts.trackPixels,
		Panels:      opts.panels,
		Scale:       opts.scale,
		Detailed:    opts.detailed,
		Title:       opts.title,
		Logger:      c.Logger,
	}
	if opts.trackWidth != 0 {
		po.TrackWidth = opts.trackWidth
	}
	if opts.columns != 0 {
		po.Columns = opts.columns
	}
	return po
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	po := c.pipelineOptions(input, opts)
	if err := po.ValidateAndSetDefaults(); err != nil {
		return err
	}

	stopTelemetry := c.startTelemetry(ctx)
	defer stopTelemetry()

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	finished := timed(logger, "Rendered")
	result, err := runWithSpinner(ctx, needsSpinner(po.Formats), "Rendering "+filepath.Base(input), func() (*pipeline.Result, error) {
		return runner.Execute(ctx, po)
	})
	if err != nil {
		return err
	}
	finished("formats", len(po.Formats), "spans", result.Stats.SpanCount)

	// Print a lone text render straight to the terminal
	if opts.output == "" && len(po.Formats) == 1 && po.Formats[0] == pipeline.FormatText {
		fmt.Print(string(result.Artifacts[pipeline.FormatText]))
		return nil
	}

	if opts.output == stdoutPath {
		if len(po.Formats) != 1 {
			return fmt.Errorf("--output - needs exactly one format")
		}
		_, err := os.Stdout.Write(result.Artifacts[po.Formats[0]])
		return err
	}

	printSuccess("Rendered trace %s", StyleHighlight.Render(result.Layout.TraceID))
	printStats(result.Stats, result.CacheInfo.RenderHit)
	for _, format := range po.Formats {
		path := outputPath(opts.output, input, format, len(po.Formats))
		if err := writeOutput(path, result.Artifacts[format]); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

// needsSpinner reports whether any format shells out or runs Graphviz.
func needsSpinner(formats []string) bool {
	return slices.ContainsFunc(formats, func(f string) bool {
		return f == pipeline.FormatPNG || f == pipeline.FormatPDF || f == pipeline.FormatGraph
	})
}

// outputPath derives the file for one format. A single format writes to
// output as given; several formats share output as a base name. A derived
// path never overwrites the input trace.
func outputPath(output, input, format string, count int) string {
	if output != "" && count == 1 {
		return output
	}
	base := basePath(output, input)
	path := base + "." + pipeline.Extension(format)
	if filepath.Clean(path) == filepath.Clean(input) {
		path = base + ".waterfall." + pipeline.Extension(format)
	}
	return path
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if slices.Contains(pipeline.Formats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
