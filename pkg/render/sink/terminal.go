package sink

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/spantower/pkg/waterfall"
)

const (
	serverCell = "█"
	clientCell = "░"
	emptyCell  = " "
)

// TerminalOption configures terminal rendering via [RenderTerminal].
type TerminalOption func(*terminalRenderer)

type terminalRenderer struct {
	columns  int
	renderer *lipgloss.Renderer
	panels   bool
}

// WithColumns sets the number of character cells of the timeline track.
func WithColumns(n int) TerminalOption {
	return func(r *terminalRenderer) {
		if n > 0 {
			r.columns = n
		}
	}
}

// WithRenderer sets the lipgloss renderer, e.g. one bound to a specific
// output so color detection matches the destination.
func WithRenderer(lr *lipgloss.Renderer) TerminalOption {
	return func(r *terminalRenderer) { r.renderer = lr }
}

// WithoutPanels omits the detail panels of expanded rows.
func WithoutPanels() TerminalOption {
	return func(r *terminalRenderer) { r.panels = false }
}

// RenderTerminal renders the waterfall as text, one line per row.
func RenderTerminal(l waterfall.Layout, opts ...TerminalOption) string {
	r := terminalRenderer{columns: 60, renderer: lipgloss.DefaultRenderer(), panels: true}
	for _, opt := range opts {
		opt(&r)
	}

	nameWidth := 0
	for _, row := range l.Rows {
		nameWidth = max(nameWidth, lipgloss.Width(rowTitle(row)))
	}

	dim := r.renderer.NewStyle().Foreground(lipgloss.Color("240"))
	var b strings.Builder

	b.WriteString(strings.Repeat(" ", nameWidth+2))
	b.WriteString(dim.Render(axisLine(l, r.columns)))
	b.WriteString("\n")

	tw := trackWidth(l)
	for _, row := range l.Rows {
		color := lipgloss.Color(serviceColor(row.Service))
		title := rowTitle(row)
		b.WriteString(title)
		b.WriteString(strings.Repeat(" ", nameWidth-lipgloss.Width(title)+2))
		b.WriteString(r.renderer.NewStyle().Foreground(color).Render(trackLine(row.Geometry, tw, r.columns)))
		b.WriteString(" ")
		b.WriteString(row.Label())
		b.WriteString("\n")

		if r.panels && row.Expanded && row.Node != nil {
			b.WriteString(r.panel(waterfall.Details(row.Node), row.Level))
		}
	}
	return b.String()
}

func rowTitle(row waterfall.Row) string {
	return strings.Repeat("  ", row.Level) + row.Service
}

// axisLine places axis labels at their track columns. On narrow tracks only
// every stride-th label is drawn so that no two texts overlap.
func axisLine(l waterfall.Layout, columns int) string {
	line := []rune(strings.Repeat(" ", columns))
	tw := trackWidth(l)
	stride := labelStride(l.Labels, columns)
	for i, label := range l.Labels {
		if i%stride != 0 {
			continue
		}
		text := "|" + label.Text()
		col := int(label.Offset / tw * float64(columns))
		if col < 0 || col+len(text) > columns {
			continue
		}
		copy(line[col:], []rune(text))
	}
	return string(line)
}

// labelStride returns the smallest step from the 1, 2, 5 series that leaves
// at least one blank cell between consecutive label texts.
func labelStride(labels []waterfall.Label, columns int) int {
	n := len(labels)
	if n == 0 {
		return 1
	}
	need := 0
	for _, label := range labels {
		need = max(need, len(label.Text())+2)
	}
	spacing := float64(columns) / float64(n)
	for mag := 1; ; mag *= 10 {
		for _, m := range []int{1, 2, 5} {
			if k := m * mag; k >= n || float64(k)*spacing >= float64(need) {
				return k
			}
		}
	}
}

// trackLine draws the client bar as light cells and the server bar on top as
// solid cells.
func trackLine(g waterfall.Geometry, tw float64, columns int) string {
	cells := make([]string, columns)
	for i := range cells {
		cells[i] = emptyCell
	}
	if g.HasClient {
		fill(cells, g.Client, tw, clientCell)
	}
	fill(cells, g.Server, tw, serverCell)
	return strings.Join(cells, "")
}

func fill(cells []string, bar waterfall.Bar, tw float64, cell string) {
	n := len(cells)
	start, end := cellRange(bar, tw, n)
	for i := start; i < end; i++ {
		cells[i] = cell
	}
}

// cellRange maps a bar to cell indices [start, end). Bars that cover no full
// cell still get one so that short spans stay visible.
func cellRange(bar waterfall.Bar, tw float64, n int) (int, int) {
	if tw <= 0 || n == 0 {
		return 0, 0
	}
	start := int(math.Floor(bar.Offset / tw * float64(n)))
	end := int(math.Ceil(bar.End() / tw * float64(n)))
	start = min(max(start, 0), n)
	end = min(max(end, 0), n)
	if end <= start && start < n {
		end = start + 1
	}
	return start, end
}

func (r terminalRenderer) panel(p waterfall.Panel, level int) string {
	indent := strings.Repeat("  ", level+1)
	header := r.renderer.NewStyle().Bold(true)
	dim := r.renderer.NewStyle().Foreground(lipgloss.Color("245"))

	var b strings.Builder
	ann := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Time", "Annotation", "Address", "Service")
	for _, e := range p.Annotations {
		ann.Row(e.Time, e.Label, e.Address, e.Service)
	}
	b.WriteString(indentBlock(ann.Render(), indent))

	if p.Empty {
		b.WriteString(indent + dim.Render(waterfall.NoBinaryAnnotations) + "\n")
		return b.String()
	}
	for _, g := range p.Tags {
		b.WriteString(indent + header.Render(g.Service) + "\n")
		tags := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Key", "Value", "Address")
		for _, tag := range g.Tags {
			tags.Row(tag.Key, tag.Value, tag.Address)
		}
		b.WriteString(indentBlock(tags.Render(), indent))
	}
	return b.String()
}

func indentBlock(s, indent string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		b.WriteString(indent + line + "\n")
	}
	return b.String()
}

// TrackLine draws the bars of one row across columns cells, uncolored.
func TrackLine(l waterfall.Layout, row waterfall.Row, columns int) string {
	return trackLine(row.Geometry, trackWidth(l), max(1, columns))
}

// AxisLine draws the time axis across columns cells.
func AxisLine(l waterfall.Layout, columns int) string {
	return axisLine(l, max(1, columns))
}

// RenderPanel renders the detail panel of a row at the given level.
func RenderPanel(p waterfall.Panel, level int, opts ...TerminalOption) string {
	r := terminalRenderer{columns: 60, renderer: lipgloss.DefaultRenderer(), panels: true}
	for _, opt := range opts {
		opt(&r)
	}
	return r.panel(p, level)
}

// ServiceColor returns the hex color used for a service's bars.
func ServiceColor(service string) string { return serviceColor(service) }
