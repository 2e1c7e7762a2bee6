package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	spanio "github.com/matzehuels/spantower/pkg/io"
	"github.com/matzehuels/spantower/pkg/observability"
	"github.com/matzehuels/spantower/pkg/render/servicegraph"
	"github.com/matzehuels/spantower/pkg/render/sink"
	"github.com/matzehuels/spantower/pkg/waterfall"
	"github.com/matzehuels/spantower/pkg/zipkin"
)

// RenderFromLayout generates output artifacts in the requested formats.
// root is only needed for the service graph formats.
func RenderFromLayout(ctx context.Context, l waterfall.Layout, root *zipkin.SpanNode, opts Options) (map[string][]byte, error) {
	opts.SetRenderDefaults()
	return renderFormats(ctx, l, root, opts, opts.Formats)
}

func renderFormats(ctx context.Context, l waterfall.Layout, root *zipkin.SpanNode, opts Options, formats []string) (map[string][]byte, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, formats)
	start := time.Now()

	artifacts := make(map[string][]byte, len(formats))
	var err error
	for _, format := range formats {
		var data []byte
		data, err = renderFormat(ctx, format, l, root, opts)
		if err != nil {
			err = fmt.Errorf("render %s: %w", format, err)
			break
		}
		artifacts[format] = data
	}

	hooks.OnRenderComplete(ctx, formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, format string, l waterfall.Layout, root *zipkin.SpanNode, opts Options) ([]byte, error) {
	svgOpts := []sink.SVGOption{sink.WithTrackPixels(opts.TrackPixels)}
	if opts.Panels {
		svgOpts = append(svgOpts, sink.WithSVGPanels())
	}

	switch format {
	case FormatText:
		return []byte(sink.RenderTerminal(l, sink.WithColumns(opts.Columns))), nil
	case FormatSVG:
		return sink.RenderSVG(l, svgOpts...), nil
	case FormatPNG:
		return sink.RenderPNG(ctx, l, sink.WithPNGSVGOptions(svgOpts...), sink.WithScale(opts.Scale))
	case FormatPDF:
		return sink.RenderPDF(ctx, l, sink.WithPDFSVGOptions(svgOpts...))
	case FormatJSON:
		var services []string
		if root != nil {
			services = root.Services()
		}
		return sink.RenderJSON(l, sink.WithJSONIndent(), sink.WithJSONServices(services))
	case FormatHTML:
		htmlOpts := []sink.HTMLOption{sink.WithToggleURL(opts.ToggleURL)}
		if opts.Title != "" {
			htmlOpts = append(htmlOpts, sink.WithHTMLTitle(opts.Title))
		}
		return sink.RenderHTML(l, htmlOpts...)
	case FormatTree:
		if root == nil {
			return nil, fmt.Errorf("tree export needs the span tree")
		}
		var buf bytes.Buffer
		if err := spanio.WriteTree(root, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatDOT, FormatGraph:
		if root == nil {
			return nil, fmt.Errorf("service graph needs the span tree")
		}
		dot := servicegraph.ToDOT(servicegraph.Build(root), servicegraph.Options{Detailed: opts.Detailed})
		if format == FormatDOT {
			return []byte(dot), nil
		}
		return servicegraph.RenderSVG(ctx, dot)
	default:
		return nil, ValidateFormat(format)
	}
}
