// Package render turns waterfall layouts into output formats.
//
// # Overview
//
// The layout engine in [waterfall] is format-agnostic: it produces rows with
// bar geometry expressed in percent of the track. This package and its
// subpackages draw those rows:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - Waterfall sinks for the terminal, SVG, JSON and HTML (in [sink])
//   - Service call graphs rendered with Graphviz (in [servicegraph])
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg := sink.RenderSVG(layout)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [waterfall]: github.com/matzehuels/spantower/pkg/waterfall
// [sink]: github.com/matzehuels/spantower/pkg/render/sink
// [servicegraph]: github.com/matzehuels/spantower/pkg/render/servicegraph
package render
