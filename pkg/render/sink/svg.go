package sink

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/matzehuels/spantower/pkg/waterfall"
)

const (
	svgLabelWidth  = 320.0
	svgRowHeight   = 24.0
	svgAxisHeight  = 28.0
	svgPanelLine   = 16.0
	svgPadding     = 12.0
	svgIndentWidth = 14.0
)

const svgStyle = `
    text { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 12px; fill: #24292f; }
    .axis text { fill: #57606a; font-size: 11px; }
    .axis line { stroke: #d0d7de; }
    .client { fill-opacity: 0.35; }
    .panel text { fill: #57606a; font-size: 11px; }
    .expanded > .title { font-weight: bold; }`

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	trackPx float64
	panels  bool
}

// WithTrackPixels sets the pixel width that the full track maps to.
func WithTrackPixels(px float64) SVGOption {
	return func(r *svgRenderer) {
		if px > 0 {
			r.trackPx = px
		}
	}
}

// WithSVGPanels includes the detail panels of expanded rows as text lines.
func WithSVGPanels() SVGOption { return func(r *svgRenderer) { r.panels = true } }

// RenderSVG renders the waterfall as an SVG document.
func RenderSVG(l waterfall.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{trackPx: 900}
	for _, opt := range opts {
		opt(&r)
	}

	var details map[string]waterfall.Panel
	if r.panels {
		details = panels(l)
	}

	width := svgPadding*2 + svgLabelWidth + r.trackPx
	height := svgPadding*2 + svgAxisHeight + float64(len(l.Rows))*svgRowHeight
	for _, p := range details {
		height += float64(panelLines(p)) * svgPanelLine
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", svgStyle)
	fmt.Fprintf(&buf, `  <rect width="%.1f" height="%.1f" fill="#ffffff"/>`+"\n", width, height)

	r.renderAxis(&buf, l, height)

	y := svgPadding + svgAxisHeight
	tw := trackWidth(l)
	for _, row := range l.Rows {
		r.renderRow(&buf, row, tw, y)
		y += svgRowHeight
		if p, ok := details[row.ID]; ok {
			y = renderSVGPanel(&buf, p, y)
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r svgRenderer) x(offset, tw float64) float64 {
	return svgPadding + svgLabelWidth + offset/tw*r.trackPx
}

func (r svgRenderer) renderAxis(buf *bytes.Buffer, l waterfall.Layout, height float64) {
	tw := trackWidth(l)
	buf.WriteString(`  <g class="axis">` + "\n")
	for _, label := range l.Labels {
		x := r.x(label.Offset, tw)
		fmt.Fprintf(buf, `    <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n",
			x, svgPadding+svgAxisHeight-8, x, height-svgPadding)
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f">%s</text>`+"\n",
			x+3, svgPadding+svgAxisHeight-12, label.Text())
	}
	buf.WriteString("  </g>\n")
}

func (r svgRenderer) renderRow(buf *bytes.Buffer, row waterfall.Row, tw, y float64) {
	class := "row"
	if row.Expanded {
		class += " expanded"
	}
	color := serviceColor(row.Service)
	fmt.Fprintf(buf, `  <g class="%s" id="span-%s">`+"\n", class, html.EscapeString(row.ID))
	fmt.Fprintf(buf, "    <title>%s</title>\n", html.EscapeString(row.Service+" "+row.Label()))
	fmt.Fprintf(buf, `    <text class="title" x="%.1f" y="%.1f">%s</text>`+"\n",
		svgPadding+float64(row.Level)*svgIndentWidth, y+svgRowHeight*0.65, html.EscapeString(truncate(row.Service, 32)))

	barY, barH := y+4, svgRowHeight-8
	g := row.Geometry
	if g.HasClient {
		fmt.Fprintf(buf, `    <rect class="client" x="%.2f" y="%.1f" width="%.2f" height="%.1f" fill="%s"/>`+"\n",
			r.x(g.Client.Offset, tw), barY, max(g.Client.Width/tw*r.trackPx, 1), barH, color)
	}
	fmt.Fprintf(buf, `    <rect class="server" x="%.2f" y="%.1f" width="%.2f" height="%.1f" fill="%s"/>`+"\n",
		r.x(g.Server.Offset, tw), barY+2, max(g.Server.Width/tw*r.trackPx, 1), barH-4, color)

	end := max(g.Effective().End(), g.Server.End())
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f">%s</text>`+"\n",
		r.x(end, tw)+4, y+svgRowHeight*0.65, html.EscapeString(row.Label()))
	buf.WriteString("  </g>\n")
}

// panelLines is the number of text lines renderSVGPanel emits for p.
func panelLines(p waterfall.Panel) int {
	n := len(p.Annotations) + 1
	if p.Empty {
		return n + 1
	}
	for _, g := range p.Tags {
		n += 1 + len(g.Tags)
	}
	return n
}

func renderSVGPanel(buf *bytes.Buffer, p waterfall.Panel, y float64) float64 {
	line := func(indent int, text string) {
		y += svgPanelLine
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f">%s</text>`+"\n",
			svgPadding+svgLabelWidth/4+float64(indent)*svgIndentWidth, y-4, html.EscapeString(text))
	}

	fmt.Fprintf(buf, `  <g class="panel" data-span="%s">`+"\n", html.EscapeString(p.SpanID))
	line(0, "Annotations")
	for _, e := range p.Annotations {
		line(1, strings.Join(nonEmpty(e.Time, e.Label, e.Address, e.Service), "  "))
	}
	if p.Empty {
		line(0, waterfall.NoBinaryAnnotations)
	} else {
		for _, g := range p.Tags {
			line(0, g.Service)
			for _, t := range g.Tags {
				line(1, strings.Join(nonEmpty(t.Key+" = "+t.Value, t.Address), "  "))
			}
		}
	}
	buf.WriteString("  </g>\n")
	return y
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
