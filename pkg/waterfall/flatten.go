package waterfall

import (
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/matzehuels/spantower/pkg/zipkin"
)

// ServicePlaceholder is shown for spans without a known service.
const ServicePlaceholder = "--"

// Options controls row computation.
type Options struct {
	// TrackWidth is the track width in percent. Zero means DefaultTrackWidth.
	TrackWidth float64

	// Display enables the read-only view: every row is expanded and clicks
	// are ignored.
	Display bool
}

// Option configures [Options].
type Option func(*Options)

// WithTrackWidth sets the track width in percent.
func WithTrackWidth(w float64) Option { return func(o *Options) { o.TrackWidth = w } }

// WithDisplayMode enables or disables the read-only display mode.
func WithDisplayMode(on bool) Option { return func(o *Options) { o.Display = on } }

func (o Options) width() float64 {
	if o.TrackWidth <= 0 {
		return DefaultTrackWidth
	}
	return o.TrackWidth
}

// Row is one rendered span.
type Row struct {
	ID             string           `json:"id"`
	Level          int              `json:"level"`
	Service        string           `json:"service"`
	Name           string           `json:"name"`
	DurationMillis int64            `json:"duration_ms"`
	Geometry       Geometry         `json:"geometry"`
	Expanded       bool             `json:"expanded"`
	Node           *zipkin.SpanNode `json:"-"`
}

// Label returns the bar caption, e.g. "12ms: get /users".
func (r Row) Label() string {
	return fmt.Sprintf("%dms: %s", r.DurationMillis, r.Name)
}

// NewRow computes the row for node at the given indentation level.
func NewRow(node, root *zipkin.SpanNode, level int, toggles *Toggles, opts Options) Row {
	service := node.ServiceName()
	if service == "" {
		service = ServicePlaceholder
	}
	return Row{
		ID:             node.ID(),
		Level:          level,
		Service:        service,
		Name:           node.Span.Name,
		DurationMillis: int64(math.Round(float64(node.Span.Duration) / microsPerMilli)),
		Geometry:       ComputeGeometry(node, root, opts.width()),
		Expanded:       opts.Display || toggles.Expanded(node.ID()),
		Node:           node,
	}
}

// Flatten yields one row for node and each of its descendants in pre-order.
// Children follow their parent in input order and are indented one level
// deeper. Every row is placed relative to root. The sequence is lazy and can
// be iterated any number of times; the same tree and toggles give the same
// rows.
func Flatten(node, root *zipkin.SpanNode, level int, toggles *Toggles, opts Options) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		flatten(node, root, level, toggles, opts, yield)
	}
}

func flatten(node, root *zipkin.SpanNode, level int, toggles *Toggles, opts Options, yield func(Row) bool) bool {
	if !yield(NewRow(node, root, level, toggles, opts)) {
		return false
	}
	for _, child := range node.Children {
		if !flatten(child, root, level+1, toggles, opts, yield) {
			return false
		}
	}
	return true
}

// Rows collects the full row list of the trace rooted at root.
func Rows(root *zipkin.SpanNode, toggles *Toggles, opts Options) []Row {
	return slices.Collect(Flatten(root, root, 0, toggles, opts))
}

// Layout is the complete waterfall of one trace.
type Layout struct {
	TraceID        string  `json:"trace_id,omitempty"`
	TrackWidth     float64 `json:"track_width"`
	Display        bool    `json:"display,omitempty"`
	DurationMillis int64   `json:"duration_ms"`
	Labels         []Label `json:"labels"`
	Rows           []Row   `json:"rows"`
}

// Build computes the axis labels and rows of the trace rooted at root.
func Build(root *zipkin.SpanNode, toggles *Toggles, opts ...Option) Layout {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return build(root, toggles, o)
}

func build(root *zipkin.SpanNode, toggles *Toggles, o Options) Layout {
	return Layout{
		TraceID:        root.Span.TraceID,
		TrackWidth:     o.width(),
		Display:        o.Display,
		DurationMillis: int64(math.Round(float64(root.Span.Duration) / microsPerMilli)),
		Labels:         AxisLabels(root, o.width()),
		Rows:           Rows(root, toggles, o),
	}
}
