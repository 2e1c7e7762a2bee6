// Package pipeline turns a Zipkin trace into rendered waterfalls.
//
// A run has three stages. Load reads span JSON, merges spans shared between
// client and server and assembles the tree. Layout flattens the tree into
// waterfall rows for the current toggle state. Render writes the requested
// formats. The CLI, the terminal UI and the HTTP server all go through a
// [Runner], so caching and observability hooks cover every entry point.
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Source:   "trace.json",
//	    Expanded: []string{"352bff9a74ca9ad2"},
//	    Formats:  []string{pipeline.FormatSVG},
//	})
//	svg := res.Artifacts[pipeline.FormatSVG]
//
// The stages can also be driven one at a time with [Runner.Load],
// [Runner.Layout] and [Runner.Render].
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spantower/pkg/cache"
	"github.com/matzehuels/spantower/pkg/errors"
	"github.com/matzehuels/spantower/pkg/waterfall"
	"github.com/matzehuels/spantower/pkg/zipkin"
)

// Defaults shared by the CLI and the server.
const (
	DefaultColumns     = 60    // track cells in text output
	DefaultTrackPixels = 900.0 // track width in SVG output
	DefaultScale       = 2.0   // PNG resolution multiplier
)

// Output formats.
const (
	FormatText  = "txt"
	FormatSVG   = "svg"
	FormatPNG   = "png"
	FormatPDF   = "pdf"
	FormatJSON  = "json"
	FormatHTML  = "html"
	FormatDOT   = "dot"   // service call graph as Graphviz DOT
	FormatGraph = "graph" // service call graph rendered to SVG
	FormatTree  = "tree"  // assembled span tree as nested JSON
)

// Formats lists every output format in the order help text shows them.
var Formats = []string{
	FormatText, FormatSVG, FormatPNG, FormatPDF, FormatJSON,
	FormatHTML, FormatDOT, FormatGraph, FormatTree,
}

// Extension returns the file extension written for a format.
func Extension(format string) string {
	switch format {
	case FormatGraph:
		return "graph.svg"
	case FormatTree:
		return "tree.json"
	}
	return format
}

// Options configures one pipeline run. The JSON tags let servers accept
// options in request bodies.
type Options struct {
	Source  string `json:"source,omitempty"` // path to a Zipkin JSON file
	Data    []byte `json:"-"`                // raw span JSON, takes precedence over Source
	Refresh bool   `json:"refresh,omitempty"`


	TrackWidth float64  `json:"track_width,omitempty"`
	Display    bool     `json:"display,omitempty"`
	Expanded   []string `json:"expanded,omitempty"`


	Formats     []string `json:"formats,omitempty"`
	Columns     int      `json:"columns,omitempty"`
	TrackPixels float64  `json:"track_pixels,omitempty"`
	Panels      bool     `json:"panels,omitempty"` // include detail panels in SVG output
	Scale       float64  `json:"scale,omitempty"`
	Detailed    bool     `json:"detailed,omitempty"` // service graph node details
	Title       string   `json:"title,omitempty"`
	ToggleURL   string   `json:"toggle_url,omitempty"` // HTML rows post here + span id


	Logger  *log.Logger        `json:"-"`
	Toggles *waterfall.Toggles `json:"-"` // overrides Expanded when set

	validated bool
}

// Result is what [Runner.Execute] produces.
type Result struct {
	Trace     *zipkin.SpanNode
	TraceHash string // content hash of the input span JSON
	Layout    waterfall.Layout
	Artifacts map[string][]byte // keyed by format
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats describes the trace and how long each stage took.
type Stats struct {
	SpanCount  int
	Depth      int
	Services   int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo reports which stages were served from the cache.
type CacheInfo struct {
	LoadHit   bool // merged spans came from the cache
	RenderHit bool // every requested artifact came from the cache
}

// ValidateFormat rejects names not in [Formats].
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: %s)", format, strings.Join(Formats, ", "))
	}
	return nil
}

// ValidateFormats applies [ValidateFormat] to each entry.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults prepares o for a full run. Repeated calls are
// no-ops.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that a trace source is given.
func (o *Options) ValidateForLoad() error {
	if o.Source == "" && len(o.Data) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "source or data is required")
	}
	o.setLogger()
	return nil
}

// SetLayoutDefaults fills in the track width.
func (o *Options) SetLayoutDefaults() {
	if o.TrackWidth == 0 {
		o.TrackWidth = waterfall.DefaultTrackWidth
	}
	o.setLogger()
}

// ValidateForLayout prepares o for [Runner.Layout].
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	return errors.ValidateTrackWidth(o.TrackWidth)
}

// SetRenderDefaults fills in formats, columns, track pixels and scale.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatText}
	}
	if o.Columns == 0 {
		o.Columns = DefaultColumns
	}
	if o.TrackPixels == 0 {
		o.TrackPixels = DefaultTrackPixels
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	o.setLogger()
}

// ValidateForRender prepares o for [Runner.Render].
func (o *Options) ValidateForRender() error {
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// WaterfallOptions returns the layout options for [waterfall.Build].
func (o *Options) WaterfallOptions() []waterfall.Option {
	return []waterfall.Option{
		waterfall.WithTrackWidth(o.TrackWidth),
		waterfall.WithDisplayMode(o.Display),
	}
}

// ToggleState returns the toggles to lay out with: Toggles if set, otherwise
// a fresh map with every id in Expanded expanded.
func (o *Options) ToggleState() *waterfall.Toggles {
	if o.Toggles != nil {
		return o.Toggles
	}
	return waterfall.NewToggles(o.Expanded...)
}

// ArtifactKeyOpts picks the options that change the bytes of format. The
// rest stay zero so unrelated flags do not split cache entries.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatDOT, FormatGraph:
		k.Detailed = o.Detailed
		return k
	case FormatTree:
		return k
	}

	k.TrackWidth = o.TrackWidth
	k.Display = o.Display
	if !o.Display {
		k.Expanded = o.ToggleState().IDs()
	}
	switch format {
	case FormatText:
		k.Columns = o.Columns
	case FormatSVG, FormatPDF:
		k.TrackPixels = o.TrackPixels
		k.Detailed = o.Panels
	case FormatPNG:
		k.TrackPixels = o.TrackPixels
		k.Detailed = o.Panels
		k.Scale = o.Scale
	case FormatHTML:
		k.Title = o.Title
		k.ToggleURL = o.ToggleURL
	}
	return k
}
