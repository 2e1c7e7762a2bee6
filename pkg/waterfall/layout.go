package waterfall

import (
	"math"
	"strconv"

	"github.com/matzehuels/spantower/pkg/zipkin"
)

const (
	// DefaultTrackWidth is the width of the timeline track in percent.
	DefaultTrackWidth = 95.0

	// maxIntervals caps the number of axis markers.
	maxIntervals = 10

	// microsPerMilli converts span microseconds to label milliseconds.
	microsPerMilli = 1000
)

// Label is an axis marker on the track.
type Label struct {
	Offset float64 `json:"offset"` // percent of the track
	Millis int64   `json:"millis"`
}

// Text returns the marker text, e.g. "12ms".
func (l Label) Text() string {
	return strconv.FormatInt(l.Millis, 10) + "ms"
}

// AxisLabels returns the axis markers for a trace rooted at root, ordered left
// to right. Traces shorter than one millisecond get no markers.
func AxisLabels(root *zipkin.SpanNode, width float64) []Label {
	duration := root.Span.Duration
	numIntervals := min(int64(maxIntervals), duration/microsPerMilli)
	if numIntervals <= 0 {
		return nil
	}
	interval := duration / numIntervals

	labels := make([]Label, 0, numIntervals)
	for i := int64(0); i < numIntervals; i++ {
		labels = append(labels, Label{
			Offset: float64(i) / float64(numIntervals) * width,
			Millis: int64(math.Round(float64(i*interval) / microsPerMilli)),
		})
	}
	return labels
}

// Bar is a horizontal interval on the track, in percent.
type Bar struct {
	Offset float64 `json:"offset"`
	Width  float64 `json:"width"`
}

// End returns the right edge of the bar.
func (b Bar) End() float64 { return b.Offset + b.Width }

// Geometry is the computed placement of one span.
type Geometry struct {
	// Server is the interval observed by the receiving service. It is drawn
	// as the inner rectangle.
	Server Bar `json:"server"`

	// Client is the interval observed by the caller. Only meaningful when
	// HasClient is set.
	Client    Bar  `json:"client"`
	HasClient bool `json:"has_client,omitempty"`
}

// Effective returns the outer rectangle: the client bar when it is known,
// otherwise the server bar.
func (g Geometry) Effective() Bar {
	if g.HasClient {
		return g.Client
	}
	return g.Server
}

// ComputeGeometry places node on a track of the given width relative to root.
func ComputeGeometry(node, root *zipkin.SpanNode, width float64) Geometry {
	duration := root.Span.Duration
	if duration <= 0 {
		return Geometry{}
	}

	rootSr := root.SR.Or(root.Span.Timestamp)

	nodeSr := node.SR.Or(node.Span.Timestamp)
	nodeSs := node.SS.Or(node.Span.Timestamp + node.Span.Duration)

	scale := func(us int64) float64 {
		return float64(us) / float64(duration) * width
	}

	g := Geometry{
		Server: Bar{
			Offset: scale(nodeSr - rootSr),
			Width:  math.Max(0, scale(nodeSs-nodeSr)),
		},
	}
	if node.CS.Valid && node.CR.Valid {
		g.HasClient = true
		g.Client = Bar{
			Offset: scale(node.CS.Micros - rootSr),
			Width:  math.Max(0, scale(node.CR.Micros-node.CS.Micros)),
		}
	}
	return g
}
