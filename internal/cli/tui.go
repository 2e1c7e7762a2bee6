package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/spantower/pkg/render/sink"
	"github.com/matzehuels/spantower/pkg/waterfall"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorLabel)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorMuted)
)

// =============================================================================
// WaterfallModel - Interactive trace waterfall
// =============================================================================

// WaterfallModel is the bubbletea model for browsing one trace. Row clicks
// go through the waterfall.View, which owns the toggle state; the model only
// tracks the cursor and scroll position.
type WaterfallModel struct {
	Trace   *waterfall.View
	Title   string
	Cursor  int
	Offset  int // first visible line
	Height  int // visible lines
	Columns int // track cells

	layout waterfall.Layout
}

// NewWaterfallModel creates a model over view.
func NewWaterfallModel(view *waterfall.View, title string) WaterfallModel {
	return WaterfallModel{
		Trace:   view,
		Title:   title,
		Height:  20,
		Columns: 60,
		layout:  view.Layout(),
	}
}

// Layout returns the layout currently shown.
func (m WaterfallModel) Layout() waterfall.Layout { return m.layout }

func (m WaterfallModel) Init() tea.Cmd {
	return nil
}

func (m WaterfallModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.layout.Rows)-1 {
				m.Cursor++
			}
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			m.Cursor = max(0, len(m.layout.Rows)-1)
		case "enter", " ":
			if m.Cursor < len(m.layout.Rows) && m.Trace.Click(m.layout.Rows[m.Cursor].ID) {
				m.layout = m.Trace.Layout()
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(5, msg.Height-5)
		m.Columns = max(20, msg.Width/2)
	}
	m.scroll()
	return m, nil
}

// scroll keeps the cursor row on screen.
func (m *WaterfallModel) scroll() {
	start := m.rowLine(m.Cursor)
	if start < m.Offset {
		m.Offset = start
	}
	if start >= m.Offset+m.Height {
		m.Offset = start - m.Height + 1
	}
}

// rowLine returns the line index at which row i starts.
func (m WaterfallModel) rowLine(i int) int {
	line := 0
	for j := 0; j < i && j < len(m.layout.Rows); j++ {
		line += 1 + m.panelHeight(m.layout.Rows[j])
	}
	return line
}

func (m WaterfallModel) panelHeight(row waterfall.Row) int {
	if !row.Expanded || row.Node == nil {
		return 0
	}
	return strings.Count(m.panel(row), "\n")
}

func (m WaterfallModel) panel(row waterfall.Row) string {
	return sink.RenderPanel(waterfall.Details(row.Node), row.Level)
}

// lines renders every row, and the panels of expanded rows, as screen lines.
func (m WaterfallModel) lines() []string {
	nameWidth := 0
	for _, row := range m.layout.Rows {
		nameWidth = max(nameWidth, lipgloss.Width(tuiTitle(row)))
	}

	var out []string
	out = append(out, strings.Repeat(" ", nameWidth+4)+listDimStyle.Render(sink.AxisLine(m.layout, m.Columns)))
	for i, row := range m.layout.Rows {
		cursor := "  "
		title := tuiTitle(row)
		style := listNormalStyle
		if i == m.Cursor {
			cursor = "▸ "
			style = listSelectedStyle
		}
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(sink.ServiceColor(row.Service))).
			Render(sink.TrackLine(m.layout, row, m.Columns))
		line := cursor + style.Render(title) + strings.Repeat(" ", nameWidth-lipgloss.Width(title)+2) +
			bar + " " + listDimStyle.Render(row.Label())
		out = append(out, line)

		if row.Expanded && row.Node != nil {
			for _, pl := range strings.Split(strings.TrimRight(m.panel(row), "\n"), "\n") {
				out = append(out, "  "+pl)
			}
		}
	}
	return out
}

func tuiTitle(row waterfall.Row) string {
	marker := "+"
	if row.Expanded {
		marker = "-"
	}
	return strings.Repeat("  ", row.Level) + marker + " " + row.Service
}

func (m WaterfallModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	mode := ""
	if m.Trace.Display() {
		mode = " · display mode"
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %dms · %d spans%s", m.layout.DurationMillis, len(m.layout.Rows), mode)))
	b.WriteString("\n")
	help := "↑/↓ navigate  ⏎ toggle details  q quit"
	if m.Trace.Display() {
		help = "↑/↓ navigate  q quit"
	}
	b.WriteString(listDimStyle.Render(help))
	b.WriteString("\n\n")

	lines := m.lines()
	axis, body := lines[0], lines[1:]
	b.WriteString(axis)
	b.WriteString("\n")
	end := min(len(body), m.Offset+m.Height)
	for _, line := range body[min(m.Offset, end):end] {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if len(m.layout.Rows) > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.layout.Rows))))
	}
	return b.String()
}
