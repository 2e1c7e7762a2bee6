// Package sink renders a [waterfall.Layout] into output formats.
//
// # Formats
//
//   - [RenderTerminal]: plain or styled text for terminals (lipgloss)
//   - [RenderSVG]: vector image with one bar pair per row
//   - [RenderJSON]: the layout plus detail panels of expanded rows
//   - [RenderHTML]: standalone page; with [WithToggleURL] every row posts
//     back to the server to flip its detail panel
//   - [RenderPNG], [RenderPDF]: SVG converted with rsvg-convert
//
// All sinks draw the outer rectangle from [waterfall.Geometry.Effective] and
// the inner rectangle from the server bar. Rows marked Expanded are followed
// by their detail panel.
//
// # Options
//
// Each sink takes functional options:
//
//	svg := sink.RenderSVG(l, sink.WithTrackPixels(1200))
//	page, err := sink.RenderHTML(l, sink.WithHTMLTitle("checkout"), sink.WithToggleURL("/views/abc/toggle/"))
//
// [waterfall.Layout]: github.com/matzehuels/spantower/pkg/waterfall.Layout
// [waterfall.Geometry.Effective]: github.com/matzehuels/spantower/pkg/waterfall.Geometry.Effective
package sink
