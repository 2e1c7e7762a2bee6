package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/spantower/pkg/pipeline"
)

// stdout receives all status output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorFail   = lipgloss.Color("167")
	colorLink   = lipgloss.Color("75")
	colorLabel  = lipgloss.Color("245")
	colorMuted  = lipgloss.Color("240")
)

// Exported styles are shared with the terminal UI.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorAccent)
	StyleLink      = lipgloss.NewStyle().Foreground(colorLink).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorMuted)
)

var (
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)
	styleLabel       = lipgloss.NewStyle().Foreground(colorLabel).Width(12)
	styleCommand     = lipgloss.NewStyle().Foreground(colorLink)
)

// statusIcons prefix the one-line status messages.
var (
	iconOK   = lipgloss.NewStyle().Foreground(colorOK).Render("✓")
	iconFail = lipgloss.NewStyle().Foreground(colorFail).Render("✗")
	iconWarn = lipgloss.NewStyle().Foreground(colorWarn).Render("!")
	iconInfo = lipgloss.NewStyle().Foreground(colorLabel).Render("›")
)

func status(icon, format string, args ...any) {
	fmt.Fprintln(stdout, icon+" "+fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { status(iconOK, format, args...) }
func printError(format string, args ...any)   { status(iconFail, format, args...) }
func printInfo(format string, args ...any)    { status(iconInfo, format, args...) }

func printWarning(format string, args ...any) {
	status(iconWarn, "%s", lipgloss.NewStyle().Foreground(colorWarn).Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile announces a written artifact.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render("→")+" "+path)
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleLabel.Render(key)+" "+value)
}

// printStats summarizes a render on one dimmed line.
func printStats(s pipeline.Stats, cached bool) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(statsLine(s, cached)))
}

func statsLine(s pipeline.Stats, cached bool) string {
	var parts []string
	if s.SpanCount > 0 {
		parts = append(parts, plural(s.SpanCount, "span"))
	}
	if s.Depth > 0 {
		parts = append(parts, fmt.Sprintf("depth %d", s.Depth))
	}
	if s.Services > 0 {
		parts = append(parts, plural(s.Services, "service"))
	}
	if cached {
		parts = append(parts, "cached")
	} else {
		parts = append(parts, "fresh")
	}
	return strings.Join(parts, " · ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}
