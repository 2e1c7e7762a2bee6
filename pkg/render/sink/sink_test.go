package sink

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/matzehuels/spantower/pkg/waterfall"
	"github.com/matzehuels/spantower/pkg/zipkin"
)

func ep(service string) *zipkin.Endpoint {
	return &zipkin.Endpoint{ServiceName: service, IPv4: "10.0.0.1", Port: 8080}
}

// testLayout is a 10ms trace: web -> api (client and server sides) -> db.
func testLayout(t *testing.T, expanded ...string) waterfall.Layout {
	t.Helper()
	root, err := zipkin.BuildTree([]zipkin.Span{
		{TraceID: "t1", ID: "a", Name: "get /", Timestamp: 1_000_000, Duration: 10_000, Annotations: []zipkin.Annotation{
			{Timestamp: 1_000_000, Value: "sr", Endpoint: ep("web")},
			{Timestamp: 1_010_000, Value: "ss", Endpoint: ep("web")},
		}},
		{TraceID: "t1", ID: "b", ParentID: "a", Name: "get /items", Timestamp: 1_001_000, Duration: 6_000,
			Annotations: []zipkin.Annotation{
				{Timestamp: 1_001_000, Value: "cs", Endpoint: ep("web")},
				{Timestamp: 1_002_000, Value: "sr", Endpoint: ep("api")},
				{Timestamp: 1_006_000, Value: "ss", Endpoint: ep("api")},
				{Timestamp: 1_007_000, Value: "cr", Endpoint: ep("web")},
			},
			BinaryAnnotations: []zipkin.BinaryAnnotation{{Key: "http.status", Value: "200", Endpoint: ep("api")}},
		},
		{TraceID: "t1", ID: "c", ParentID: "b", Name: "select <items>", Timestamp: 1_003_000, Duration: 2_000},
	})
	if err != nil {
		t.Fatal(err)
	}
	return waterfall.Build(root, waterfall.NewToggles(expanded...), waterfall.WithTrackWidth(100))
}

func TestRenderTerminal(t *testing.T) {
	out := RenderTerminal(testLayout(t), WithColumns(20))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want axis + 3 rows:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "|0ms") || !strings.Contains(lines[0], "|5ms") {
		t.Errorf("axis line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "10ms: get /") {
		t.Errorf("root line = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "  api") {
		t.Errorf("child should be indented: %q", lines[2])
	}
	if !strings.Contains(lines[2], clientCell) || !strings.Contains(lines[2], serverCell) {
		t.Errorf("child should draw both bars: %q", lines[2])
	}
}

func TestAxisLineLabelsDoNotOverlap(t *testing.T) {
	l := testLayout(t)
	tests := []struct {
		columns int
		want    []string
	}{
		{20, []string{"|0ms", "|5ms"}},
		{8, []string{"|0ms"}},
		{100, []string{"|0ms", "|1ms", "|2ms", "|3ms", "|4ms", "|5ms", "|6ms", "|7ms", "|8ms", "|9ms"}},
	}
	for _, tt := range tests {
		got := strings.Fields(AxisLine(l, tt.columns))
		if strings.Join(got, " ") != strings.Join(tt.want, " ") {
			t.Errorf("AxisLine(%d) labels = %q, want %q", tt.columns, got, tt.want)
		}
	}
}

func TestRenderTerminalPanels(t *testing.T) {
	out := RenderTerminal(testLayout(t, "b", "c"))
	for _, want := range []string{"Client Send", "Server Receive", "http.status", waterfall.NoBinaryAnnotations} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(RenderTerminal(testLayout(t, "b"), WithoutPanels()), "Client Send") {
		t.Error("WithoutPanels should omit panels")
	}
}

func TestTrackLine(t *testing.T) {
	tests := []struct {
		name string
		g    waterfall.Geometry
		want string
	}{
		{"full", waterfall.Geometry{Server: waterfall.Bar{Offset: 0, Width: 100}}, "██████████"},
		{"half", waterfall.Geometry{Server: waterfall.Bar{Offset: 50, Width: 50}}, "     █████"},
		{"tiny bar stays visible", waterfall.Geometry{Server: waterfall.Bar{Offset: 30, Width: 0}}, "   █      "},
		{"client outside server", waterfall.Geometry{
			Server:    waterfall.Bar{Offset: 20, Width: 20},
			Client:    waterfall.Bar{Offset: 10, Width: 40},
			HasClient: true,
		}, " ░██░     "},
		{"out of range clamps", waterfall.Geometry{Server: waterfall.Bar{Offset: -20, Width: 200}}, "██████████"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trackLine(tt.g, 100, 10); got != tt.want {
				t.Errorf("trackLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	svg := RenderSVG(testLayout(t, "b"), WithSVGPanels())

	if err := xml.Unmarshal(svg, new(struct{})); err != nil {
		t.Fatalf("SVG is not well-formed: %v", err)
	}
	s := string(svg)
	if strings.Count(s, `class="server"`) != 3 {
		t.Error("expected one server bar per row")
	}
	if strings.Count(s, `class="client"`) != 1 {
		t.Error("expected one client bar")
	}
	if !strings.Contains(s, "select &lt;items&gt;") {
		t.Error("span names should be escaped")
	}
	if !strings.Contains(s, `data-span="b"`) {
		t.Error("expanded row should have a panel")
	}
}

func TestRenderSVGPanelHeight(t *testing.T) {
	plain := RenderSVG(testLayout(t, "b"))
	withPanels := RenderSVG(testLayout(t, "b"), WithSVGPanels())
	if bytes.Equal(plain, withPanels) || len(withPanels) <= len(plain) {
		t.Error("panels should add content")
	}
}

func TestRenderJSON(t *testing.T) {
	data, err := RenderJSON(testLayout(t, "b"), WithJSONServices([]string{"web", "api"}))
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		TraceID  string                     `json:"trace_id"`
		Rows     []waterfall.Row            `json:"rows"`
		Services []string                   `json:"services"`
		Panels   map[string]waterfall.Panel `json:"panels"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.TraceID != "t1" || len(out.Rows) != 3 || len(out.Services) != 2 {
		t.Errorf("decoded = %+v", out)
	}
	if _, ok := out.Panels["b"]; !ok || len(out.Panels) != 1 {
		t.Errorf("panels = %v", out.Panels)
	}
	if !out.Rows[1].Geometry.HasClient {
		t.Error("geometry should be serialized")
	}
}

func TestRenderJSONNoPanels(t *testing.T) {
	data, err := RenderJSON(testLayout(t))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(data, []byte(`"panels"`)) {
		t.Error("collapsed layout should omit panels")
	}
}

func TestRenderHTML(t *testing.T) {
	page, err := RenderHTML(testLayout(t, "c"), WithHTMLTitle("checkout"), WithToggleURL("/views/v1/toggle/"))
	if err != nil {
		t.Fatal(err)
	}
	s := string(page)
	if !strings.Contains(s, "<title>checkout</title>") {
		t.Error("missing title")
	}
	if strings.Count(s, `action="/views/v1/toggle/`) != 3 {
		t.Error("every row should post to the toggle URL")
	}
	if !strings.Contains(s, waterfall.NoBinaryAnnotations) {
		t.Error("expanded row without tags should show the empty message")
	}
	if !strings.Contains(s, "select &lt;items&gt;") {
		t.Error("span names should be escaped")
	}
	if strings.Contains(s, "ZgotmplZ") {
		t.Error("template rejected a value")
	}
}

func TestRenderHTMLDisplayModeIsReadOnly(t *testing.T) {
	l := testLayout(t)
	l.Display = true
	page, err := RenderHTML(l, WithToggleURL("/views/v1/toggle/"))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(page, []byte("<form")) {
		t.Error("display mode must not render toggle forms")
	}
}

func TestServiceColor(t *testing.T) {
	if serviceColor("api") != serviceColor("api") {
		t.Error("colors should be stable")
	}
	if serviceColor(waterfall.ServicePlaceholder) != placeholderColor {
		t.Error("placeholder should be grey")
	}
}
