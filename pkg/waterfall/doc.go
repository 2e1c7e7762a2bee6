// Package waterfall computes the timeline layout of a trace.
//
// A waterfall draws every span of a trace as one row. Each row has a bar on a
// shared horizontal track whose offset and width are proportional to the
// span's start and duration relative to the root span. The track is measured
// in percent; [DefaultTrackWidth] leaves a margin for the duration label.
//
// # Layout Engine
//
// [AxisLabels] places up to ten millisecond markers along the track.
// [ComputeGeometry] turns one node's timestamps into bars. The server bar
// comes from the server-receive/server-send annotations (falling back to the
// span timestamp and duration). When both client-send and client-receive are
// known, a client bar is computed as well and becomes the outer rectangle:
// the client observes the network round trip, so its interval normally
// encloses the server's.
//
// Malformed timing never returns an error. A root with a non-positive
// duration yields zero-width bars at offset zero, and widths are clamped at
// zero; offsets are left as computed so out-of-window spans stay visible as
// such.
//
// # Tree Flattener
//
// [Flatten] walks the span tree in pre-order and yields one [Row] per span,
// children after their parent and in input order. Rows are expanded when the
// view is in display mode or when the span's entry in [Toggles] is set.
//
// # View
//
// A [View] owns the toggle state for one loaded trace. [View.Click] is the
// only way to change it; it returns true and calls the redraw callback when
// the layout must be recomputed:
//
//	v := waterfall.NewView(root, waterfall.WithTrackWidth(95))
//	v.OnRedraw(func() { draw(v.Layout()) })
//	v.Click("3f2a")
//
// # Annotation Panel
//
// [Details] builds the expanded detail panel of a row: a stable, time-ordered
// annotation timeline and the binary annotations grouped by service.
package waterfall
