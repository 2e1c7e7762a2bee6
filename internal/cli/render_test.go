package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fallback []string
		want     []string
	}{
		{"empty defaults to txt", "", nil, []string{"txt"}},
		{"empty uses config", "", []string{"svg", "json"}, []string{"svg", "json"}},
		{"single format", "svg", nil, []string{"svg"}},
		{"multiple formats", "svg,pdf,png", nil, []string{"svg", "pdf", "png"}},
		{"spaces and blanks", " svg, ,json ", nil, []string{"svg", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseFormats(tt.input, tt.fallback); !slices.Equal(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseIDs(t *testing.T) {
	got := parseIDs([]string{"a,b", " c ", ""})
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("parseIDs = %v", got)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		format string
		count  int
		want   string
	}{
		{"derived from input", "", "traces/checkout.json", "svg", 1, "traces/checkout.svg"},
		{"explicit single", "out.png", "t.json", "png", 1, "out.png"},
		{"explicit base", "out/wf", "t.json", "svg", 2, "out/wf.svg"},
		{"base with extension", "wf.svg", "t.json", "pdf", 2, "wf.pdf"},
		{"graph suffix", "", "t.json", "graph", 1, "t.graph.svg"},
		{"tree suffix", "", "t.json", "tree", 1, "t.tree.json"},
		{"never overwrite input", "", "t.json", "json", 1, "t.waterfall.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(tt.output, tt.input, tt.format, tt.count); got != tt.want {
				t.Errorf("outputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNeedsSpinner(t *testing.T) {
	if needsSpinner([]string{"txt", "svg"}) {
		t.Error("txt/svg render in-process")
	}
	if !needsSpinner([]string{"svg", "png"}) {
		t.Error("png shells out")
	}
}

func newTestCLI(t *testing.T) *CLI {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	return New(io.Discard)
}

func TestPipelineOptionsMergesConfig(t *testing.T) {
	c := newTestCLI(t)
	c.Config.TrackWidth = 80
	c.Config.Columns = 100
	c.Config.Formats = []string{"json"}

	po := c.pipelineOptions("t.json", renderOpts{expand: []string{"a,b"}})
	if po.TrackWidth != 80 || po.Columns != 100 || !slices.Equal(po.Formats, []string{"json"}) {
		t.Errorf("config not applied: %+v", po)
	}
	if !slices.Equal(po.Expanded, []string{"a", "b"}) {
		t.Errorf("Expanded = %v", po.Expanded)
	}

	po = c.pipelineOptions("t.json", renderOpts{trackWidth: 50, columns: 30, formats: "svg", display: true})
	if po.TrackWidth != 50 || po.Columns != 30 || po.Formats[0] != "svg" || !po.Display {
		t.Errorf("flags should override config: %+v", po)
	}
}

func TestRenderCommandWritesFiles(t *testing.T) {
	c := newTestCLI(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "checkout.json")
	data, err := os.ReadFile("testdata/trace.json")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(input, data, 0o644); err != nil {
		t.Fatal(err)
	}

	root := c.RootCommand()
	root.SetArgs([]string{"render", input, "-f", "svg,json,dot", "-e", "352bff9a74ca9ad2"})
	if err := root.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, name := range []string{"checkout.svg", "checkout.waterfall.json", "checkout.dot"} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("missing %s: %v", name, err)
			continue
		}
		if len(b) == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	js, _ := os.ReadFile(filepath.Join(dir, "checkout.waterfall.json"))
	if !bytes.Contains(js, []byte(`"expanded": true`)) {
		t.Error("expanded row missing from JSON")
	}
}

func TestRenderCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"render", "testdata/nope.json"}},
		{"bad format", []string{"render", "testdata/trace.json", "-f", "gif"}},
		{"bad width", []string{"render", "testdata/trace.json", "--width", "120"}},
		{"no args", []string{"render"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCLI(t)
			root := c.RootCommand()
			root.SetArgs(tt.args)
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			if err := root.Execute(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestConfigFlag(t *testing.T) {
	c := newTestCLI(t)
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("track_width = 70\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "config", "show"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "track_width = 70.0") {
		t.Errorf("config show:\n%s", out.String())
	}
}

func TestConfigInit(t *testing.T) {
	c := newTestCLI(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	root := c.RootCommand()
	root.SetArgs([]string{"--config", path, "config", "init"})
	if err := root.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	root = c.RootCommand()
	root.SetArgs([]string{"--config", path, "config", "init"})
	if err := root.Execute(); err == nil {
		t.Error("second init without --force should fail")
	}

	root = c.RootCommand()
	root.SetArgs([]string{"--config", path, "config", "init", "--force"})
	if err := root.Execute(); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestExplicitConfigMustExist(t *testing.T) {
	c := newTestCLI(t)
	root := c.RootCommand()
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.toml"), "cache", "path"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.Execute(); err == nil {
		t.Error("missing --config file should fail")
	}
}

func TestRenderHint(t *testing.T) {
	got := renderHint("t.json", []string{"a", "b"})
	if got != "spantower render t.json -f svg -e a -e b" {
		t.Errorf("renderHint = %q", got)
	}
}
